package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MagicLinkRepository handles magic link code storage in Redis
type MagicLinkRepository struct {
	client *redis.Client
}

// NewMagicLinkRepository creates a new magic link repository instance
func NewMagicLinkRepository(client *redis.Client) *MagicLinkRepository {
	return &MagicLinkRepository{
		client: client,
	}
}

// StoreCode stores a magic link code bound to an email for the given TTL
func (r *MagicLinkRepository) StoreCode(ctx context.Context, email, code string, ttl time.Duration) error {
	key := magicLinkKey(code)

	err := r.client.Set(ctx, key, email, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store magic link code: %w", err)
	}

	return nil
}

// ConsumeCode atomically retrieves and deletes a magic link code, returning
// the email it was issued for. A code can only be consumed once.
func (r *MagicLinkRepository) ConsumeCode(ctx context.Context, code string) (string, error) {
	key := magicLinkKey(code)

	email, err := r.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrMagicLinkNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume magic link code: %w", err)
	}

	return email, nil
}

// magicLinkKey generates a Redis key for magic link codes
func magicLinkKey(code string) string {
	// Hash the code for security
	hashedCode := hashToken(code)
	return fmt.Sprintf("magic_link:%s", hashedCode)
}
