package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/gloriaconnect/gloria-connect-api/internal/database"
)

// Repository handles refresh token persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// StoreRefreshToken stores a refresh token in the database. sessionID ties a
// chain of rotated tokens together; parentID points at the token this one was
// rotated from, or is nil for the first token of a session.
func (r *Repository) StoreRefreshToken(ctx context.Context, userID, sessionID uuid.UUID, parentID *uuid.UUID, token string, expiresAt time.Time) (uuid.UUID, error) {
	tokenHash := hashToken(token)

	dbToken := &database.RefreshToken{
		SessionID:            sessionID,
		ParentRefreshTokenID: parentID,
		UserID:               &userID,
		TokenHash:            tokenHash,
		ExpiresAt:            &expiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return dbToken.ID, nil
}

// GetRefreshToken retrieves a refresh token by its hash
func (r *Repository) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	tokenHash := hashToken(token)

	dbToken := new(database.RefreshToken)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("token_hash = ?", tokenHash).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return mapDBRefreshTokenToModel(dbToken), nil
}

// ConsumeRefreshToken marks a token as used so it cannot be exchanged again.
// first_used_time is only stamped once.
func (r *Repository) ConsumeRefreshToken(ctx context.Context, tokenID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.RefreshToken)(nil)).
		Set("consumed = TRUE").
		Set("first_used_time = COALESCE(first_used_time, NOW())").
		Where("id = ?", tokenID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to consume refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}

	return nil
}

// RevokeRefreshToken marks a refresh token as revoked
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	tokenHash := hashToken(token)

	result, err := r.db.NewUpdate().
		Model((*database.RefreshToken)(nil)).
		Set("revoked_at = NOW()").
		Where("token_hash = ?", tokenHash).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}

	return nil
}

// RevokeSession revokes every token belonging to a session. Used when a
// consumed token is replayed, which means the refresh token leaked.
func (r *Repository) RevokeSession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*database.RefreshToken)(nil)).
		Set("revoked_at = NOW()").
		Where("session_id = ?", sessionID).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *Repository) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*database.RefreshToken)(nil)).
		Set("revoked_at = NOW()").
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke all user tokens: %w", err)
	}

	return nil
}

// CleanupExpiredTokens removes expired tokens from the database
// Should be run periodically (e.g., via cron job)
func (r *Repository) CleanupExpiredTokens(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*database.RefreshToken)(nil)).
		Where("expires_at < NOW()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	return nil
}

// MigrateLegacyTokens brings rows written by the previous deployment up to the
// current shape. Rows with no user reference are deleted; rows that carry an
// expiry only in the legacy expiration_time column get expires_at backfilled.
// expiration_time itself is left untouched. Returns the number of rows
// updated and removed.
func (r *Repository) MigrateLegacyTokens(ctx context.Context) (updated, removed int, err error) {
	err = r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		deleteResult, err := tx.NewDelete().
			Model((*database.RefreshToken)(nil)).
			Where("user_id IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to remove orphaned tokens: %w", err)
		}

		removedRows, err := deleteResult.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}

		updateResult, err := tx.NewUpdate().
			Model((*database.RefreshToken)(nil)).
			Set("expires_at = expiration_time").
			Where("expiration_time IS NOT NULL").
			Where("expires_at IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to backfill expires_at: %w", err)
		}

		updatedRows, err := updateResult.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}

		updated = int(updatedRows)
		removed = int(removedRows)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return updated, removed, nil
}

// mapDBRefreshTokenToModel converts database model to domain model
func mapDBRefreshTokenToModel(dbt *database.RefreshToken) *RefreshToken {
	return &RefreshToken{
		ID:                   dbt.ID,
		SessionID:            dbt.SessionID,
		ParentRefreshTokenID: dbt.ParentRefreshTokenID,
		UserID:               dbt.UserID,
		TokenHash:            dbt.TokenHash,
		ExpiresAt:            dbt.ExpiresAt,
		ExpirationTime:       dbt.ExpirationTime,
		FirstUsedTime:        dbt.FirstUsedTime,
		Consumed:             dbt.Consumed,
		RevokedAt:            dbt.RevokedAt,
		CreatedAt:            dbt.CreatedAt,
	}
}
