package tokenstore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/boddenberg/supplier-portal-bfa/internal/infra/secrets"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string // redis://host:port or rediss://host:port for TLS
	Password string
}

// NewRedisClient connects to Redis and pings it.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis: REDIS_URL not configured")
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	useTLS := parsedURL.Scheme == "rediss"

	addr := parsedURL.Host
	if parsedURL.Port() == "" {
		addr = parsedURL.Host + ":6379"
	}

	password := cfg.Password
	if password == "" && parsedURL.User != nil {
		password, _ = parsedURL.User.Password()
	}

	opts := &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
	if useTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connection failed: %w", err)
	}
	return client, nil
}

// Redis stores tokens in Redis so they survive restarts of the BFA.
type Redis struct {
	client *redis.Client
	sealer *secrets.Sealer
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store; ttl of 0 means no expiry.
func NewRedis(client *redis.Client, sealer *secrets.Sealer, ttl time.Duration) *Redis {
	return &Redis{client: client, sealer: sealer, ttl: ttl}
}

// Get returns the session's token, or "" when none (or an unreadable one) is stored.
func (r *Redis) Get(ctx context.Context, sessionID string) (string, error) {
	key := Key(sessionID)
	sealed, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("tokenstore: redis get: %w", err)
	}

	token, err := r.sealer.Open(sealed, key)
	if err != nil {
		_ = r.client.Del(ctx, key).Err()
		return "", nil
	}
	return token, nil
}

// Set stores the session's token.
func (r *Redis) Set(ctx context.Context, sessionID, token string) error {
	if token == "" {
		return errors.New("tokenstore: empty token")
	}
	key := Key(sessionID)
	sealed, err := r.sealer.Seal(token, key)
	if err != nil {
		return fmt.Errorf("tokenstore: sealing: %w", err)
	}
	if err := r.client.Set(ctx, key, sealed, r.ttl).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis set: %w", err)
	}
	return nil
}

// Delete removes the session's token.
func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis del: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
