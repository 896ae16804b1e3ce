package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/gloriaconnect/gloria-connect-api/internal/auth"
	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/business"
	"github.com/gloriaconnect/gloria-connect-api/internal/config"
	"github.com/gloriaconnect/gloria-connect-api/internal/httputil"
	"github.com/gloriaconnect/gloria-connect-api/internal/i18n"
	"github.com/gloriaconnect/gloria-connect-api/internal/logging"
	"github.com/gloriaconnect/gloria-connect-api/internal/metrics"
	"github.com/gloriaconnect/gloria-connect-api/internal/user"
)

// Dependencies bundles everything the router wires together
type Dependencies struct {
	Config           *config.Config
	Logger           *logging.Logger
	AuthHandler      *auth.Handler
	AuthMiddleware   *auth.Middleware
	LocaleMiddleware *i18n.Middleware
	BusinessHandler  *business.Handler
	BusinessService  *business.Service
	UserHandler      *user.Handler
	UserService      *user.Service
	Metrics          *metrics.Metrics
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies) *chi.Mux {
	cfg := deps.Config
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(deps.Logger))
	r.Use(deps.Metrics.Middleware)
	r.Use(deps.LocaleMiddleware.Handler)
	r.Use(middleware.Compress(5))

	// Public routes
	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		deps.Logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.AuthHandler.Register)
		r.Post("/login", deps.AuthHandler.Login)
		r.Post("/magic-link", deps.AuthHandler.RequestMagicLink)
		r.Post("/magic-link/verify", deps.AuthHandler.VerifyMagicLink)
		r.Post("/google", deps.AuthHandler.GoogleSignIn)
		r.Post("/refresh", deps.AuthHandler.Refresh)
		r.Post("/logout", deps.AuthHandler.Logout)
	})

	// Business directory (public reads; identity attached when present)
	r.Route("/businesses", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.OptionalAuth)
		r.Get("/", deps.BusinessHandler.List)
		r.Get("/feed", deps.BusinessHandler.Feed)
		r.Get("/{id}", deps.BusinessHandler.GetByID)
	})

	// Current-user routes; answer for anonymous callers too
	r.Route("/users/me", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.OptionalAuth)
		r.Get("/", deps.UserHandler.GetCurrentUser)
		r.Get("/admin", deps.UserHandler.GetIsAdmin)
	})

	// Admin routes: valid token required here, the admin check itself happens
	// in the services so it is enforced even for non-HTTP callers
	r.Route("/admin", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Get("/dashboard", handleDashboard(deps.BusinessService, deps.UserService))

		r.Route("/businesses", func(r chi.Router) {
			r.Post("/", deps.BusinessHandler.Create)
			r.Put("/{id}", deps.BusinessHandler.Update)
			r.Delete("/{id}", deps.BusinessHandler.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", deps.UserHandler.List)
			r.Post("/admin-status", deps.UserHandler.SetAdminStatus)
		})

		r.Post("/maintenance/migrate-refresh-tokens", deps.AuthHandler.MigrateRefreshTokens)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

// DashboardResponse aggregates the admin landing page numbers
type DashboardResponse struct {
	Businesses *business.Stats `json:"businesses"`
	TotalUsers int             `json:"totalUsers"`
}

// handleDashboard returns listing and user statistics
// @Summary      Admin dashboard statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} DashboardResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Router       /admin/dashboard [get]
func handleDashboard(businesses *business.Service, users *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())
		ident := authz.IdentityFromContext(r.Context())

		stats, err := businesses.Stats(r.Context(), ident)
		if err != nil {
			httputil.RespondAuthzError(w, logger, err, "failed to load dashboard")
			return
		}

		totalUsers, err := users.Count(r.Context(), ident)
		if err != nil {
			httputil.RespondAuthzError(w, logger, err, "failed to load dashboard")
			return
		}

		httputil.RespondJSON(w, DashboardResponse{
			Businesses: stats,
			TotalUsers: totalUsers,
		}, http.StatusOK)
	}
}
