package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  *string    `json:"name,omitempty"`
	Image                 *string    `json:"image,omitempty"`
	Email                 *string    `json:"email,omitempty"`
	EmailVerificationTime *time.Time `json:"emailVerificationTime,omitempty"`
	Phone                 *string    `json:"phone,omitempty"`
	IsAnonymous           bool       `json:"isAnonymous"`
	IsAdmin               bool       `json:"isAdmin"`
	PasswordHash          *string    `json:"-"` // Never expose password hash in JSON
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}
