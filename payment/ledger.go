package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ledgerKeyPrefix = "mietrecht:webhook:event:"
	ledgerTTL       = 30 * 24 * time.Hour
)

// Ledger remembers processed webhook events so redeliveries can short-circuit
type Ledger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID string) error
}

// RedisLedger keeps event ids in Redis for 30 days
type RedisLedger struct {
	rdb *redis.Client
}

// ConnectLedger parses a redis:// URL and verifies connectivity
func ConnectLedger(ctx context.Context, url string) (*RedisLedger, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisLedger{rdb: rdb}, nil
}

// NewRedisLedger wraps an existing client
func NewRedisLedger(rdb *redis.Client) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

func ledgerKey(eventID string) string {
	return ledgerKeyPrefix + eventID
}

// Seen reports whether the event was recorded
func (l *RedisLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	_, err := l.rdb.Get(ctx, ledgerKey(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Record marks the event as processed
func (l *RedisLedger) Record(ctx context.Context, eventID string) error {
	return l.rdb.SetNX(ctx, ledgerKey(eventID), time.Now().Unix(), ledgerTTL).Err()
}

// Close closes the Redis client
func (l *RedisLedger) Close() error {
	return l.rdb.Close()
}
