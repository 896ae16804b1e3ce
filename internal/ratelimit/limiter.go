package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ipWindow      = 15 * time.Minute
	ipMaxRequests = 10
	emailCooldown = 2 * time.Minute
)

// Limiter implements fixed-window rate limiting on top of Redis. Counters and
// cooldown markers expire on their own, so there is nothing to clean up.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// CheckIPRateLimit reports whether an IP has exhausted the general window
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.checkLimit(ctx, ipKey(ip, "general"))
}

// RecordIPRequest counts a request against the general window
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.record(ctx, ipKey(ip, "general"))
}

// CheckIPRateLimitWithPurpose reports whether an IP has exhausted the window
// for a specific endpoint, e.g. "login" or "register"
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return l.checkLimit(ctx, ipKey(ip, purpose))
}

// RecordIPRequestWithPurpose counts a request against a specific endpoint window
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return l.record(ctx, ipKey(ip, purpose))
}

// CheckEmailCooldown reports whether an email was recently sent a message
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return exists > 0, nil
}

// SetEmailCooldown starts the cooldown window for an email
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	err := l.client.Set(ctx, emailKey(email), "1", emailCooldown).Err()
	if err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}

func (l *Limiter) checkLimit(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	return count >= ipMaxRequests, nil
}

func (l *Limiter) record(ctx context.Context, key string) error {
	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ipWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("rate_limit:%s:%s", purpose, ip)
}

// emailKey hashes the address so raw emails never appear in Redis
func emailKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return fmt.Sprintf("email_cooldown:%s", hex.EncodeToString(sum[:]))
}
