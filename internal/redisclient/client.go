package redisclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("redis: key not found")

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and verifies connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks Redis connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveOTP stores a login code digest with a fresh attempt counter
func (c *Client) SaveOTP(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	key := fmt.Sprintf("otp:%s", email)

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, "code_hash", codeHash, "attempts", 0)
	pipe.Expire(ctx, key, ttl)

	_, err := pipe.Exec(ctx)
	return err
}

// GetOTP returns the stored digest and the number of failed attempts
func (c *Client) GetOTP(ctx context.Context, email string) (string, int, error) {
	result, err := c.rdb.HGetAll(ctx, fmt.Sprintf("otp:%s", email)).Result()
	if err != nil {
		return "", 0, err
	}
	if len(result) == 0 {
		return "", 0, ErrMiss
	}

	attempts, _ := strconv.Atoi(result["attempts"])
	return result["code_hash"], attempts, nil
}

// incrementIfPresent bumps the attempt counter only while the code exists,
// so an expired code is never recreated without a TTL
var incrementIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

// IncrementOTPAttempts records a failed verification and returns the new
// count. ErrMiss means the code expired in the meantime.
func (c *Client) IncrementOTPAttempts(ctx context.Context, email string) (int, error) {
	n, err := incrementIfPresent.Run(ctx, c.rdb, []string{fmt.Sprintf("otp:%s", email)}).Int64()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrMiss
	}
	return int(n), nil
}

// DeleteOTP burns a login code
func (c *Client) DeleteOTP(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("otp:%s", email)).Err()
}

// CreateSession maps a session token to a customer id
func (c *Client) CreateSession(ctx context.Context, token string, customerID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("session:%s", token), customerID, ttl).Err()
}

// GetSession resolves a session token to a customer id
func (c *Client) GetSession(ctx context.Context, token string) (int64, error) {
	id, err := c.rdb.Get(ctx, fmt.Sprintf("session:%s", token)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrMiss
	}
	return id, err
}

// DeleteSession logs a session out
func (c *Client) DeleteSession(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("session:%s", token)).Err()
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// GetIdempotencyKey returns the value stored for an idempotency key
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) ([]byte, error) {
	value, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return value, err
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
