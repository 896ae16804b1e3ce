package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/logging"
	"github.com/gloriaconnect/gloria-connect-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// UserStore is the slice of the user repository the auth flows need
type UserStore interface {
	CreateWithPassword(ctx context.Context, email, passwordHash string) (*user.User, error)
	FindOrCreateByEmail(ctx context.Context, email, name string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// RefreshTokenRepository defines the interface for refresh token storage
type RefreshTokenRepository interface {
	StoreRefreshToken(ctx context.Context, userID, sessionID uuid.UUID, parentID *uuid.UUID, token string, expiresAt time.Time) (uuid.UUID, error)
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	ConsumeRefreshToken(ctx context.Context, tokenID uuid.UUID) error
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeSession(ctx context.Context, sessionID uuid.UUID) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	MigrateLegacyTokens(ctx context.Context) (updated, removed int, err error)
}

// MagicLinkStore defines the interface for one-time sign-in codes
type MagicLinkStore interface {
	StoreCode(ctx context.Context, email, code string, ttl time.Duration) error
	ConsumeCode(ctx context.Context, code string) (string, error)
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendMagicLinkEmail(ctx context.Context, toEmail, link, locale string) error
}

// GoogleTokenVerifier validates Google ID tokens
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*GoogleProfile, error)
}

// MigrationResult reports what the refresh token migration changed
type MigrationResult struct {
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Service handles authentication business logic
type Service struct {
	userRepo             UserStore
	authRepo             RefreshTokenRepository
	magicLinkRepo        MagicLinkStore
	tokenService         TokenService
	emailService         EmailService
	googleVerifier       GoogleTokenVerifier
	authorizer           *authz.Authorizer
	logger               *logging.Logger
	appBaseURL           string
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	magicLinkDuration    time.Duration
}

func NewService(
	userRepo UserStore,
	authRepo RefreshTokenRepository,
	magicLinkRepo MagicLinkStore,
	tokenService TokenService,
	emailService EmailService,
	googleVerifier GoogleTokenVerifier,
	authorizer *authz.Authorizer,
	logger *logging.Logger,
	appBaseURL string,
	accessTokenDuration time.Duration,
	refreshTokenDuration time.Duration,
	magicLinkDuration time.Duration,
) *Service {
	return &Service{
		userRepo:             userRepo,
		authRepo:             authRepo,
		magicLinkRepo:        magicLinkRepo,
		tokenService:         tokenService,
		emailService:         emailService,
		googleVerifier:       googleVerifier,
		authorizer:           authorizer,
		logger:               logger,
		appBaseURL:           appBaseURL,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
		magicLinkDuration:    magicLinkDuration,
	}
}

// Register creates a new password-based user account
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.CreateWithPassword(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates a password-based user and returns tokens
func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Accounts created through magic link or Google have no password
	if existingUser.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if !s.verifyPassword(*existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.startSession(ctx, existingUser)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return tokens, nil
}

// RequestMagicLink emails a one-time sign-in link valid for a short window.
// Always returns nil for unknown addresses to prevent email enumeration; only
// malformed input is reported.
func (s *Service) RequestMagicLink(ctx context.Context, email, locale string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}

	code, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate magic link code", "error", err)
		return nil
	}

	if err := s.magicLinkRepo.StoreCode(ctx, email, code, s.magicLinkDuration); err != nil {
		s.logger.Warn("failed to store magic link code", "error", err)
		return nil
	}

	link := fmt.Sprintf("%s/%s/login/verify?code=%s", s.appBaseURL, locale, url.QueryEscape(code))

	// Send in a goroutine so a slow SMTP server does not block the request
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendMagicLinkEmail(emailCtx, email, link, locale); err != nil {
			s.logger.Warn("failed to send magic link email", "email", email, "error", err)
		}
	}()

	return nil
}

// VerifyMagicLink exchanges a one-time code for tokens, creating the user on
// first sign-in
func (s *Service) VerifyMagicLink(ctx context.Context, code string) (*AuthTokens, error) {
	if code == "" {
		return nil, ErrMagicLinkNotFound
	}

	email, err := s.magicLinkRepo.ConsumeCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrMagicLinkNotFound) {
			return nil, ErrMagicLinkNotFound
		}
		return nil, fmt.Errorf("failed to consume magic link code: %w", err)
	}

	signedInUser, err := s.userRepo.FindOrCreateByEmail(ctx, email, "")
	if err != nil {
		return nil, fmt.Errorf("failed to find or create user: %w", err)
	}

	tokens, err := s.startSession(ctx, signedInUser)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return tokens, nil
}

// GoogleSignIn exchanges a Google ID token for our tokens, creating the user
// on first sign-in
func (s *Service) GoogleSignIn(ctx context.Context, rawIDToken string) (*AuthTokens, error) {
	profile, err := s.googleVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}

	signedInUser, err := s.userRepo.FindOrCreateByEmail(ctx, profile.Email, profile.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create user: %w", err)
	}

	tokens, err := s.startSession(ctx, signedInUser)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return tokens, nil
}

// RefreshAccessToken rotates a refresh token: the old token is consumed and a
// new one is issued in the same session with the old token as parent. Replay
// of an already consumed token revokes the whole session.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	rt, err := s.authRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if rt.Consumed {
		// Someone is replaying an already rotated token; kill the session
		if err := s.authRepo.RevokeSession(ctx, rt.SessionID); err != nil {
			s.logger.Warn("failed to revoke session after token replay", "session_id", rt.SessionID, "error", err)
		}
		return nil, ErrRefreshTokenRevoked
	}
	if rt.IsRevoked() {
		return nil, ErrRefreshTokenRevoked
	}
	if rt.IsExpired() {
		return nil, ErrRefreshTokenExpired
	}
	if rt.UserID == nil {
		return nil, ErrInvalidToken
	}

	if err := s.authRepo.ConsumeRefreshToken(ctx, rt.ID); err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	existingUser, err := s.userRepo.GetByID(ctx, *rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	tokens, err := s.generateTokens(ctx, existingUser, rt.SessionID, &rt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return tokens, nil
}

// RevokeRefreshToken revokes a refresh token
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.authRepo.RevokeRefreshToken(ctx, refreshToken)
}

// MigrateRefreshTokens runs the legacy token migration. Admin only.
func (s *Service) MigrateRefreshTokens(ctx context.Context, ident authz.Identity) (*MigrationResult, error) {
	if _, err := s.authorizer.RequireAdmin(ctx, ident); err != nil {
		return nil, err
	}

	updated, removed, err := s.authRepo.MigrateLegacyTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate refresh tokens: %w", err)
	}

	s.logger.Info("refresh token migration completed", "updated", updated, "removed", removed, "admin", ident.Email)

	return &MigrationResult{Updated: updated, Removed: removed}, nil
}

// startSession issues tokens for a brand new session
func (s *Service) startSession(ctx context.Context, u *user.User) (*AuthTokens, error) {
	return s.generateTokens(ctx, u, uuid.New(), nil)
}

// generateTokens creates both access and refresh tokens
func (s *Service) generateTokens(ctx context.Context, u *user.User, sessionID uuid.UUID, parentID *uuid.UUID) (*AuthTokens, error) {
	email := ""
	if u.Email != nil {
		email = *u.Email
	}

	accessToken, err := s.tokenService.CreateToken(u.ID, email, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshTokenDuration)
	if _, err := s.authRepo.StoreRefreshToken(ctx, u.ID, sessionID, parentID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// hashPassword creates an argon2id hash of the password
func (s *Service) hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		encodedSalt,
		encodedHash,
	), nil
}

// verifyPassword checks if a password matches the stored hash
func (s *Service) verifyPassword(encodedHash, password string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	var memory, time uint32
	var threads uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false
	}
	_, err = fmt.Sscanf(parts[2], "v=%d", &version)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	inputHash := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		threads,
		uint32(len(decodedHash)),
	)

	// Constant-time comparison
	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}

// generateRandomToken creates a cryptographically secure random token
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
