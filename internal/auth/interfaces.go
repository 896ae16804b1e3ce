package auth

import (
	"time"

	"github.com/google/uuid"
)

// TokenService creates and validates access tokens. The production
// implementation is PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}
