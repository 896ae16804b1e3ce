package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database model for the users table.
// Most profile fields are nullable: accounts created through the magic-link or
// Google flows start with nothing but an email.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                    uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name                  *string    `bun:"name"`
	Image                 *string    `bun:"image"`
	Email                 *string    `bun:"email,unique"`
	EmailVerificationTime *time.Time `bun:"email_verification_time"`
	Phone                 *string    `bun:"phone"`
	PhoneVerificationTime *time.Time `bun:"phone_verification_time"`
	IsAnonymous           bool       `bun:"is_anonymous,notnull,default:false"`
	IsAdmin               bool       `bun:"is_admin,notnull,default:false"`
	PasswordHash          *string    `bun:"password_hash"`
	CreatedAt             time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt             time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// RefreshToken is the database model for the auth_refresh_tokens table.
//
// UserID and ExpiresAt are nullable because rows written by the previous
// deployment carried the expiry in expiration_time and sometimes lost the user
// reference. The migration endpoint backfills expires_at and removes orphans;
// expiration_time is kept as-is afterwards.
type RefreshToken struct {
	bun.BaseModel `bun:"table:auth_refresh_tokens,alias:rt"`

	ID                   uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	SessionID            uuid.UUID  `bun:"session_id,notnull,type:uuid"`
	ParentRefreshTokenID *uuid.UUID `bun:"parent_refresh_token_id,type:uuid"`
	UserID               *uuid.UUID `bun:"user_id,type:uuid"`
	TokenHash            string     `bun:"token_hash,notnull"`
	ExpiresAt            *time.Time `bun:"expires_at"`
	ExpirationTime       *time.Time `bun:"expiration_time"`
	FirstUsedTime        *time.Time `bun:"first_used_time"`
	Consumed             bool       `bun:"consumed,notnull,default:false"`
	RevokedAt            *time.Time `bun:"revoked_at"`
	CreatedAt            time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}
