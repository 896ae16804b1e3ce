package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	_ "github.com/gloriaconnect/gloria-connect-api/docs" // Swagger docs (generated)
	"github.com/gloriaconnect/gloria-connect-api/internal/auth"
	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/business"
	"github.com/gloriaconnect/gloria-connect-api/internal/config"
	"github.com/gloriaconnect/gloria-connect-api/internal/database"
	"github.com/gloriaconnect/gloria-connect-api/internal/email"
	httpServer "github.com/gloriaconnect/gloria-connect-api/internal/http"
	"github.com/gloriaconnect/gloria-connect-api/internal/i18n"
	"github.com/gloriaconnect/gloria-connect-api/internal/logging"
	"github.com/gloriaconnect/gloria-connect-api/internal/metrics"
	"github.com/gloriaconnect/gloria-connect-api/internal/ratelimit"
	"github.com/gloriaconnect/gloria-connect-api/internal/user"
)

// @title           Gloria Local Connect API
// @version         1.0
// @description     Bilingual local business directory API with magic-link and Google sign-in, admin-managed listings, and a live change feed.

// @contact.name   API Support
// @contact.email  support@gloriaconnect.ph

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := user.NewRepository(db)
	authRepo := auth.NewRepository(db)
	magicLinkRepo := auth.NewMagicLinkRepository(redisClient)
	businessRepo := business.NewRepository(db)

	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Role checks read the users table on every call, so admin revocation
	// takes effect immediately
	authorizer := authz.NewAuthorizer(userRepo)

	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromAddress,
	)

	var googleVerifier auth.GoogleTokenVerifier
	if cfg.Auth.GoogleClientID != "" {
		googleVerifier, err = auth.NewGoogleVerifier(context.Background(), cfg.Auth.GoogleClientID)
		if err != nil {
			return fmt.Errorf("failed to initialize Google verifier: %w", err)
		}
	} else {
		logger.Warn("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
		googleVerifier = disabledGoogleVerifier{}
	}

	authService := auth.NewService(
		userRepo,
		authRepo,
		magicLinkRepo,
		pasetoService,
		emailService,
		googleVerifier,
		authorizer,
		logger,
		cfg.Email.FrontendURL,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
		cfg.Auth.MagicLinkDuration,
	)

	feed := business.NewFeed()
	businessService := business.NewService(businessRepo, authorizer, feed, cfg.Media.AllowedImageHosts)
	userService := user.NewService(userRepo, authorizer)

	localeBundle, err := i18n.NewBundle(cfg.Locale.Default)
	if err != nil {
		return fmt.Errorf("failed to load locales: %w", err)
	}
	if err := localeBundle.ValidateLocales(cfg.Locale.Supported); err != nil {
		return fmt.Errorf("invalid SUPPORTED_LOCALES: %w", err)
	}

	// Handlers and middleware
	authHandler := auth.NewHandler(
		authService,
		rateLimiter,
		logger,
		!cfg.Server.IsDevelopment(), // isProduction
		cfg.Locale.Default,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)
	authMiddleware := auth.NewMiddleware(pasetoService)
	localeMiddleware := i18n.NewMiddleware(localeBundle, authMiddleware)
	businessHandler := business.NewHandler(businessService, feed, cfg.Server.TrustedOrigins)
	userHandler := user.NewHandler(userService)

	appMetrics := metrics.New(feed.SubscriberCount)

	router := httpServer.NewRouter(httpServer.Dependencies{
		Config:           cfg,
		Logger:           logger,
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		LocaleMiddleware: localeMiddleware,
		BusinessHandler:  businessHandler,
		BusinessService:  businessService,
		UserHandler:      userHandler,
		UserService:      userService,
		Metrics:          appMetrics,
	})

	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// disabledGoogleVerifier rejects every token; used when no client ID is configured
type disabledGoogleVerifier struct{}

func (disabledGoogleVerifier) Verify(ctx context.Context, raw string) (*auth.GoogleProfile, error) {
	return nil, auth.ErrInvalidGoogleToken
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
