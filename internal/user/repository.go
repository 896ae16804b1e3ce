package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/gloriaconnect/gloria-connect-api/internal/authz"
	"github.com/gloriaconnect/gloria-connect-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithPassword inserts a new password-based user
func (r *Repository) CreateWithPassword(ctx context.Context, email, passwordHash string) (*User, error) {
	dbUser := &database.User{
		Email:        &email,
		PasswordHash: &passwordHash,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// FindOrCreateByEmail returns the user with the given email, creating a bare
// record on first sign-in. Magic-link and Google callers both land here, so a
// verified email always ends up with exactly one row.
func (r *Repository) FindOrCreateByEmail(ctx context.Context, email, name string) (*User, error) {
	existing, err := r.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	dbUser := &database.User{
		Email:                 &email,
		EmailVerificationTime: &now,
	}
	if name != "" {
		dbUser.Name = &name
	}

	_, err = r.db.NewInsert().
		Model(dbUser).
		On("CONFLICT (email) DO UPDATE").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// List returns all users ordered by creation time, newest first
func (r *Repository) List(ctx context.Context) ([]*User, error) {
	var dbUsers []*database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, len(dbUsers))
	for i, dbu := range dbUsers {
		users[i] = mapDBUserToModel(dbu)
	}
	return users, nil
}

// Count returns the total number of users
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// SetAdminStatus updates the admin flag of the user with the given email
func (r *Repository) SetAdminStatus(ctx context.Context, email string, isAdmin bool) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_admin = ?", isAdmin).
		Set("updated_at = NOW()").
		Where("email = ?", email).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set admin status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// AccountByEmail adapts the repository to the authorizer's account lookup.
func (r *Repository) AccountByEmail(ctx context.Context, email string) (*authz.Account, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, authz.ErrUserNotFound
		}
		return nil, err
	}

	account := &authz.Account{IsAdmin: u.IsAdmin}
	if u.Email != nil {
		account.Email = *u.Email
	}
	if u.Name != nil {
		account.Name = *u.Name
	}
	return account, nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                    dbu.ID,
		Name:                  dbu.Name,
		Image:                 dbu.Image,
		Email:                 dbu.Email,
		EmailVerificationTime: dbu.EmailVerificationTime,
		Phone:                 dbu.Phone,
		IsAnonymous:           dbu.IsAnonymous,
		IsAdmin:               dbu.IsAdmin,
		PasswordHash:          dbu.PasswordHash,
		CreatedAt:             dbu.CreatedAt,
		UpdatedAt:             dbu.UpdatedAt,
	}
}
