package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/httputil"
)

// stubTokenService maps opaque token strings onto canned verification results.
type stubTokenService struct {
	claims map[string]*TokenClaims
	errs   map[string]error
}

func (s *stubTokenService) CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error) {
	return "unused", nil
}

func (s *stubTokenService) VerifyToken(token string) (*TokenClaims, error) {
	if err, ok := s.errs[token]; ok {
		return nil, err
	}
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

func requireAuthResponse(t *testing.T, m *Middleware, authHeader string) (*httptest.ResponseRecorder, authz.Identity) {
	t.Helper()

	var seen authz.Identity
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authz.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec, seen
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	userID := uuid.New()
	m := NewMiddleware(&stubTokenService{
		claims: map[string]*TokenClaims{
			"good": {UserID: userID.String(), Email: "ana@gloria.ph"},
		},
	})

	rec, ident := requireAuthResponse(t, m, "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID, ident.UserID)
	require.Equal(t, "ana@gloria.ph", ident.Email)
}

func TestRequireAuthRejectionCodes(t *testing.T) {
	m := NewMiddleware(&stubTokenService{
		claims: map[string]*TokenClaims{
			"bad-subject": {UserID: "not-a-uuid", Email: "ana@gloria.ph"},
		},
		errs: map[string]error{
			"expired": ErrExpiredToken,
		},
	})

	tests := []struct {
		name       string
		authHeader string
		wantCode   string
	}{
		{"no credentials", "", httputil.CodeMissingAuth},
		{"malformed header", "NotBearer good", httputil.CodeInvalidAuthHeader},
		{"unverifiable token", "Bearer garbage", httputil.CodeInvalidToken},
		{"expired token", "Bearer expired", httputil.CodeTokenExpired},
		{"non-uuid subject", "Bearer bad-subject", httputil.CodeInvalidTokenUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ident := requireAuthResponse(t, m, tt.authHeader)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, tt.wantCode, decodeErrorCode(t, rec))
			require.True(t, ident.IsZero())
		})
	}
}

func TestOptionalAuthPassesThroughOnBadToken(t *testing.T) {
	m := NewMiddleware(&stubTokenService{})

	rec, ident := func() (*httptest.ResponseRecorder, authz.Identity) {
		var seen authz.Identity
		handler := m.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = authz.IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
		r := httptest.NewRequest(http.MethodGet, "/businesses", nil)
		r.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		return rec, seen
	}()

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ident.IsZero())
}
