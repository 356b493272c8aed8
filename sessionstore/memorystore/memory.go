// Package memorystore provides an in-memory sessionstore.Store backed by
// an LRU cache, suitable for single-instance deployments and tests.
package memorystore

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openfacet/facet-go/sessionstore"
)

// Store implements sessionstore.Store using an in-memory LRU cache.
type Store struct {
	mu     sync.RWMutex
	cache  *lru.Cache[string, *sessionstore.Item]
	stopCh chan struct{}
}

var _ sessionstore.Store = (*Store)(nil)

// New creates an in-memory store holding at most maxSessions entries.
// Least-recently-used sessions are evicted beyond that bound.
func New(maxSessions int) (*Store, error) {
	cache, err := lru.New[string, *sessionstore.Item](maxSessions)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	s := &Store{
		cache:  cache,
		stopCh: make(chan struct{}),
	}

	go s.cleanupExpired()

	return s, nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (*sessionstore.Item, error) {
	s.mu.RLock()
	item, exists := s.cache.Get(sessionID)
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if item.IsExpired() {
		s.mu.Lock()
		s.cache.Remove(sessionID)
		s.mu.Unlock()
		return nil, nil
	}

	return item, nil
}

func (s *Store) Set(ctx context.Context, sessionID string, data []byte, opts ...sessionstore.Option) error {
	var options sessionstore.Options
	options.Apply(opts)

	now := time.Now()
	item := &sessionstore.Item{
		Data:      append([]byte(nil), data...),
		CreatedAt: now,
	}
	if options.TTL != nil {
		expiresAt := now.Add(*options.TTL)
		item.ExpiresAt = &expiresAt
	}

	s.mu.Lock()
	s.cache.Add(sessionID, item)
	s.mu.Unlock()

	return nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	s.cache.Remove(sessionID)
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error {
	close(s.stopCh)
	s.mu.Lock()
	s.cache.Purge()
	s.mu.Unlock()
	return nil
}

// cleanupExpired periodically sweeps expired items so that sessions that
// are never read again do not pin cache slots until eviction.
func (s *Store) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		for _, key := range s.cache.Keys() {
			if item, ok := s.cache.Peek(key); ok && item.IsExpired() {
				s.cache.Remove(key)
			}
		}
		s.mu.Unlock()
	}
}
