package redisinfra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agribiz-identity/internal/config"
	"github.com/agribiz-identity/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	cooldownPrefix = "otp:resend:cooldown:"
	windowPrefix   = "otp:resend:window:"
	resendWindow   = time.Hour
)

// NewClient returns a client for cfg.RedisAddr, or nil when Redis is not configured.
func NewClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// ResendLimiter throttles verification-code resends per email address: one resend
// per cooldown, and at most maxPerWindow resends per hour. State lives in Redis so
// every API replica shares it.
type ResendLimiter struct {
	client       *redis.Client
	cooldown     time.Duration
	maxPerWindow int64
}

func NewResendLimiter(client *redis.Client, cooldown time.Duration, maxPerHour int) *ResendLimiter {
	return &ResendLimiter{client: client, cooldown: cooldown, maxPerWindow: int64(maxPerHour)}
}

// Allow records a resend attempt for email. It returns a domain.ErrRateLimited-wrapped
// error when the attempt is over budget.
func (l *ResendLimiter) Allow(ctx context.Context, email string) error {
	subject := strings.ToLower(email)

	if l.cooldown > 0 {
		ok, err := l.client.SetNX(ctx, cooldownPrefix+subject, 1, l.cooldown).Result()
		if err != nil {
			return fmt.Errorf("resend cooldown: %w", err)
		}
		if !ok {
			return fmt.Errorf("resend requested too soon: %w", domain.ErrRateLimited)
		}
	}

	if l.maxPerWindow <= 0 {
		return nil
	}
	key := windowPrefix + subject
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("resend window: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, resendWindow).Err(); err != nil {
			return fmt.Errorf("resend window expiry: %w", err)
		}
	}
	if count > l.maxPerWindow {
		return fmt.Errorf("resend limit reached: %w", domain.ErrRateLimited)
	}
	return nil
}

// Reset clears the throttle state for email, e.g. once the address is verified.
func (l *ResendLimiter) Reset(ctx context.Context, email string) error {
	subject := strings.ToLower(email)
	return l.client.Del(ctx, cooldownPrefix+subject, windowPrefix+subject).Err()
}
