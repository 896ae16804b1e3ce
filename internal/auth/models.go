package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token has been revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token has expired")
	ErrMagicLinkNotFound    = errors.New("magic link token not found or expired")
)

// AuthTokens is the token pair returned to clients
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshToken is a server-side session token. Tokens form a chain: refresh
// rotates to a new token carrying the same session id and the old token's id
// as parent.
//
// UserID and ExpiresAt are pointers because legacy rows predate both columns;
// the migration endpoint backfills ExpiresAt from ExpirationTime and drops
// rows with no user.
type RefreshToken struct {
	ID                   uuid.UUID
	SessionID            uuid.UUID
	ParentRefreshTokenID *uuid.UUID
	UserID               *uuid.UUID
	TokenHash            string
	ExpiresAt            *time.Time
	ExpirationTime       *time.Time
	FirstUsedTime        *time.Time
	Consumed             bool
	RevokedAt            *time.Time
	CreatedAt            time.Time
}

// Expiry returns the effective expiry, preferring the current column over the
// legacy one.
func (rt *RefreshToken) Expiry() time.Time {
	if rt.ExpiresAt != nil {
		return *rt.ExpiresAt
	}
	if rt.ExpirationTime != nil {
		return *rt.ExpirationTime
	}
	return time.Time{}
}

// IsExpired reports whether the token's effective expiry has passed.
func (rt *RefreshToken) IsExpired() bool {
	expiry := rt.Expiry()
	return expiry.IsZero() || time.Now().After(expiry)
}

// IsRevoked reports whether the token was revoked or already used.
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil || rt.Consumed
}

// IsValid reports whether the token can still be exchanged.
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsRevoked() && !rt.IsExpired()
}

// hashToken returns the hex sha256 of a token. Only hashes are persisted so a
// database leak does not expose usable tokens.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
