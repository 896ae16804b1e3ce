package business

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("business not found")

// Repository handles listing persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns the full collection, newest first. The directory is small
// enough that a full scan per request is acceptable; there is no pagination.
func (r *Repository) List(ctx context.Context) ([]*Business, error) {
	var listings []*Business
	err := r.db.NewSelect().
		Model(&listings).
		Order("metadata->>'dateAdded' DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return listings, nil
}

// GetByID returns one listing or ErrNotFound
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Business, error) {
	listing := new(Business)
	err := r.db.NewSelect().
		Model(listing).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return listing, nil
}

// Insert stores a new listing
func (r *Repository) Insert(ctx context.Context, listing *Business) error {
	_, err := r.db.NewInsert().
		Model(listing).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert business: %w", err)
	}
	return nil
}

// Update replaces every column of the listing. Nested JSONB objects are
// written wholesale; there is no deep merge.
func (r *Repository) Update(ctx context.Context, listing *Business) error {
	result, err := r.db.NewUpdate().
		Model(listing).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates listing counts for the admin dashboard
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	total, err := r.db.NewSelect().Model((*Business)(nil)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count businesses: %w", err)
	}
	stats.Total = total

	counts := []struct {
		status Status
		dest   *int
	}{
		{StatusActive, &stats.Active},
		{StatusInactive, &stats.Inactive},
		{StatusPending, &stats.Pending},
	}
	for _, c := range counts {
		n, err := r.db.NewSelect().
			Model((*Business)(nil)).
			Where("metadata->>'status' = ?", string(c.status)).
			Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count businesses by status: %w", err)
		}
		*c.dest = n
	}

	verified, err := r.db.NewSelect().
		Model((*Business)(nil)).
		Where("(metadata->>'isVerified')::boolean").
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count verified businesses: %w", err)
	}
	stats.Verified = verified

	return stats, nil
}
