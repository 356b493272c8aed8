// Package redisstore provides a Redis-backed sessionstore.Store for
// multi-instance deployments, with native TTL expiry.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/openfacet/facet-go/sessionstore"
)

// Config for the Redis-backed store. Defaults can be loaded via
// envdecode.
type Config struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: SESSIONS_KEY_PREFIX
	KeyPrefix string `env:"SESSIONS_KEY_PREFIX,default=facet:sessions:"`

	// Client optionally supplies a pre-configured Redis client. When
	// set, RedisAddr is ignored.
	Client *redis.Client
}

// Store implements sessionstore.Store using Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
	ownClient bool
}

var _ sessionstore.Store = (*Store)(nil)

// storedItem is the JSON structure persisted per session.
type storedItem struct {
	Data      []byte     `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// New creates a Redis-backed store and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := cfg.Client
	ownClient := false
	if client == nil {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr})
		ownClient = true
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "facet:sessions:"
	}

	return &Store{client: client, keyPrefix: prefix, ownClient: ownClient}, nil
}

// NewFromEnv builds a Store using envdecode to populate Config.
func NewFromEnv(ctx context.Context) (*Store, error) {
	var cfg Config
	// Defaults are provided via struct tags.
	_ = envdecode.Decode(&cfg)
	return New(ctx, cfg)
}

func (s *Store) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

func (s *Store) Get(ctx context.Context, sessionID string) (*sessionstore.Item, error) {
	res := s.client.Get(ctx, s.key(sessionID))
	if err := res.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	var stored storedItem
	if err := json.Unmarshal([]byte(res.Val()), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored session: %w", err)
	}

	item := &sessionstore.Item{
		Data:      stored.Data,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}

	// Redis TTL usually reaps first; this covers clock-skewed replicas.
	if item.IsExpired() {
		_ = s.client.Del(ctx, s.key(sessionID)).Err()
		return nil, nil
	}

	return item, nil
}

func (s *Store) Set(ctx context.Context, sessionID string, data []byte, opts ...sessionstore.Option) error {
	var options sessionstore.Options
	options.Apply(opts)

	now := time.Now()
	stored := storedItem{
		Data:      data,
		CreatedAt: now,
	}

	var ttl time.Duration
	if options.TTL != nil {
		ttl = *options.TTL
		expiresAt := now.Add(ttl)
		stored.ExpiresAt = &expiresAt
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session %s: %w", sessionID, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.ownClient {
		return s.client.Close()
	}
	return nil
}
