package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/httputil"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth validates the access token and stores the caller identity in
// the request context. Requests without a valid token are rejected.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			if errors.Is(err, errMalformedAuthHeader) {
				httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		ident, err := m.identityFromToken(token)
		if err != nil {
			switch {
			case errors.Is(err, ErrExpiredToken):
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
			case errors.Is(err, errInvalidTokenUserID):
				httputil.RespondErrorWithCode(w, "invalid user id in token", httputil.CodeInvalidTokenUserID, http.StatusUnauthorized)
			default:
				httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			}
			return
		}

		ctx := authz.ContextWithIdentity(r.Context(), ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth stores the caller identity when a valid token is present but
// lets unauthenticated requests through. Public endpoints that behave
// differently for admins use this.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ident, err := m.identityFromToken(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := authz.ContextWithIdentity(r.Context(), ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HasValidCredentials reports whether the request carries a verifiable access
// token. The page guard uses this to decide between serving and redirecting
// without writing a response itself.
func (m *Middleware) HasValidCredentials(r *http.Request) bool {
	token, err := extractToken(r)
	if err != nil {
		return false
	}
	_, err = m.identityFromToken(token)
	return err == nil
}

func (m *Middleware) identityFromToken(token string) (authz.Identity, error) {
	claims, err := m.tokenService.VerifyToken(token)
	if err != nil {
		return authz.Identity{}, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return authz.Identity{}, errInvalidTokenUserID
	}

	return authz.Identity{UserID: userID, Email: claims.Email}, nil
}

var (
	errMalformedAuthHeader = errors.New("malformed authorization header")
	errInvalidTokenUserID  = errors.New("invalid user id in token")
)

// extractToken pulls the access token from the Authorization header, falling
// back to the cookie for browser clients
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1], nil
		}
		return "", errMalformedAuthHeader
	}

	cookieToken, err := GetAccessTokenFromCookie(r)
	if err != nil {
		return "", err
	}
	return cookieToken, nil
}
