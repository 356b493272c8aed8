// Package boltstore provides a bbolt-backed sessionstore.Store: durable
// single-file storage for single-instance deployments that must survive
// restarts.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/openfacet/facet-go/sessionstore"
)

var bucketSessions = []byte("sessions")

// Store implements sessionstore.Store using a bbolt database file.
type Store struct {
	db    *bolt.DB
	ownDB bool
}

var _ sessionstore.Store = (*Store)(nil)

// storedItem is the JSON structure persisted per session.
type storedItem struct {
	Data      []byte     `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Open opens (or creates) the database file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize session bucket: %w", err)
	}

	return &Store{db: db, ownDB: true}, nil
}

// NewWithDB wraps an already-open bbolt database. The caller retains
// ownership; Close does not close it.
func NewWithDB(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (*sessionstore.Item, error) {
	var item *sessionstore.Item

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSessions).Get([]byte(sessionID))
		if v == nil {
			return nil
		}

		var stored storedItem
		if err := json.Unmarshal(v, &stored); err != nil {
			return fmt.Errorf("failed to unmarshal stored session: %w", err)
		}

		item = &sessionstore.Item{
			Data:      stored.Data,
			CreatedAt: stored.CreatedAt,
			ExpiresAt: stored.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if item == nil {
		return nil, nil
	}

	if item.IsExpired() {
		// Lazy expiry: bbolt has no TTL of its own.
		_ = s.Delete(ctx, sessionID)
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
	if options.TTL != nil {
		expiresAt := now.Add(*options.TTL)
		stored.ExpiresAt = &expiresAt
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(sessionID), payload)
	})
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(sessionID))
	})
}

func (s *Store) Close() error {
	if s.ownDB {
		return s.db.Close()
	}
	return nil
}
