package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
)

// Store is the persistence surface the service needs. *Repository implements it.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Count(ctx context.Context) (int, error)
	SetAdminStatus(ctx context.Context, email string, isAdmin bool) error
}

// Service exposes the user/admin-status operations
type Service struct {
	store      Store
	authorizer *authz.Authorizer
}

func NewService(store Store, authorizer *authz.Authorizer) *Service {
	return &Service{store: store, authorizer: authorizer}
}

// IsAdmin reports whether the caller is an admin. It never fails: an
// unauthenticated caller, a missing user row, and a lookup error all read as
// not-admin.
func (s *Service) IsAdmin(ctx context.Context, ident authz.Identity) bool {
	if ident.IsZero() || ident.Email == "" {
		return false
	}

	u, err := s.store.GetByEmail(ctx, ident.Email)
	if err != nil {
		return false
	}
	return u.IsAdmin
}

// CurrentUser returns the caller's user record, or nil when unauthenticated
// or when no matching record exists.
func (s *Service) CurrentUser(ctx context.Context, ident authz.Identity) (*User, error) {
	if ident.IsZero() || ident.Email == "" {
		return nil, nil
	}

	u, err := s.store.GetByEmail(ctx, ident.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	return u, nil
}

// List returns every user. Admin only.
func (s *Service) List(ctx context.Context, ident authz.Identity) ([]*User, error) {
	if _, err := s.authorizer.RequireAdmin(ctx, ident); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

// Count returns the total number of users. Admin only; backs the dashboard.
func (s *Service) Count(ctx context.Context, ident authz.Identity) (int, error) {
	if _, err := s.authorizer.RequireAdmin(ctx, ident); err != nil {
		return 0, err
	}
	return s.store.Count(ctx)
}

// SetAdminStatus flips the admin flag of the user with the given email.
// Admin only; fails with ErrNotFound when the target does not exist.
func (s *Service) SetAdminStatus(ctx context.Context, ident authz.Identity, email string, isAdmin bool) error {
	if _, err := s.authorizer.RequireAdmin(ctx, ident); err != nil {
		return err
	}
	return s.store.SetAdminStatus(ctx, email, isAdmin)
}
