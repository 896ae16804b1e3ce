package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrAuthRequired  = errors.New("authentication required")
	ErrEmailRequired = errors.New("email required for authorization")
	ErrUserNotFound  = errors.New("user not found")
	ErrAdminRequired = errors.New("admin access required")
)

// Role is the derived role of a caller. It is never stored; it is recomputed
// from the users table on every check.
type Role string

const (
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated caller as established by the token middleware.
// A zero Identity means the request is unauthenticated. Anonymous and
// phone-only identities carry a user ID but no email.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// IsZero reports whether no identity was established for the request.
func (i Identity) IsZero() bool {
	return i.UserID == uuid.Nil && i.Email == ""
}

// Account is the slice of a user record the authorizer needs.
type Account struct {
	Email   string
	Name    string
	IsAdmin bool
}

// AccountSource looks up an account by email. Implementations return
// ErrUserNotFound when no matching record exists.
type AccountSource interface {
	AccountByEmail(ctx context.Context, email string) (*Account, error)
}

// Authorizer derives roles from the users table. Every check performs a fresh
// indexed lookup; admin-flag changes take effect on the next request.
type Authorizer struct {
	accounts AccountSource
}

func NewAuthorizer(accounts AccountSource) *Authorizer {
	return &Authorizer{accounts: accounts}
}

// RequireAuth returns the identity or ErrAuthRequired when the caller is
// unauthenticated.
func (a *Authorizer) RequireAuth(ident Identity) (Identity, error) {
	if ident.IsZero() {
		return Identity{}, ErrAuthRequired
	}
	return ident, nil
}

// RequireAdmin returns the caller's account when the caller is an
// authenticated admin, and a typed error otherwise. Callers use this to gate
// every mutating operation.
func (a *Authorizer) RequireAdmin(ctx context.Context, ident Identity) (*Account, error) {
	if ident.IsZero() {
		return nil, ErrAuthRequired
	}
	if ident.Email == "" {
		return nil, ErrEmailRequired
	}

	account, err := a.accounts.AccountByEmail(ctx, ident.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if !account.IsAdmin {
		return nil, ErrAdminRequired
	}

	return account, nil
}

// CurrentRole derives the caller's role. It swallows lookup errors and
// returns RoleNone so read paths can call it without failing the request.
func (a *Authorizer) CurrentRole(ctx context.Context, ident Identity) Role {
	if ident.IsZero() {
		return RoleNone
	}

	account, err := a.accounts.AccountByEmail(ctx, ident.Email)
	if err != nil {
		return RoleNone
	}

	if account.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// RequireRole fails unless the caller's derived role equals the required one.
func (a *Authorizer) RequireRole(ctx context.Context, ident Identity, role Role) error {
	if a.CurrentRole(ctx, ident) != role {
		return fmt.Errorf("%s access required", role)
	}
	return nil
}
