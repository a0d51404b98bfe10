// utils/otp.go
package utils

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrTooManyAttempts is returned when the verify attempt counter trips.
var ErrTooManyAttempts = errors.New("too many verification attempts")

// GenerateOTP returns a 6-digit numeric code in [100000, 999999].
func GenerateOTP() string {
	return strconv.Itoa(rand.Intn(900000) + 100000)
}

// AttemptLimiter bounds verify attempts per phone.
type AttemptLimiter interface {
	// Validate records an attempt and returns ErrTooManyAttempts once the
	// phone exceeds its budget for the current window.
	Validate(ctx context.Context, phone string) error
	// Clear resets the counter after a successful verification.
	Clear(ctx context.Context, phone string)
}

// RedisAttemptLimiter counts verify attempts per phone in Redis, allowing
// at most 5 per hour. The counter is best effort: without a Redis client,
// or when Redis itself errors, attempts are not limited.
type RedisAttemptLimiter struct {
	client *redis.Client
}

// NewRedisAttemptLimiter creates the limiter. A nil client is allowed and
// disables limiting entirely.
func NewRedisAttemptLimiter(client *redis.Client) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{client: client}
}

func (l *RedisAttemptLimiter) Validate(ctx context.Context, phone string) error {
	if l.client == nil {
		return nil
	}

	key := "otp_attempts:" + phone
	attempts, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return nil
	}

	// Set expiry if first attempt
	if attempts == 1 {
		l.client.Expire(ctx, key, 1*time.Hour)
	}

	if attempts > 5 {
		return ErrTooManyAttempts
	}

	return nil
}

func (l *RedisAttemptLimiter) Clear(ctx context.Context, phone string) {
	if l.client == nil {
		return
	}
	l.client.Del(ctx, "otp_attempts:"+phone)
}
