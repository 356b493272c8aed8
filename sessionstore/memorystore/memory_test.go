package memorystore

import (
	"context"
	"testing"
	"time"

	"github.com/openfacet/facet-go/sessionstore"
)

func newStore(t *testing.T, maxSessions int) *Store {
	t.Helper()
	s, err := New(maxSessions)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 16)

	if err := s.Set(ctx, "sess-1", []byte(`{"count":1}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	item, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item == nil {
		t.Fatal("expected item")
	}
	if string(item.Data) != `{"count":1}` {
		t.Fatalf("data = %s", item.Data)
	}
	if item.ExpiresAt != nil {
		t.Fatal("no TTL requested, item should not expire")
	}

	if err := s.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	item, err = s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if item != nil {
		t.Fatal("expected nil item after delete")
	}
}

func TestGetUnknownSession(t *testing.T) {
	s := newStore(t, 16)

	item, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item != nil {
		t.Fatal("unknown session should yield a nil item, not an error")
	}
}

func TestExpiredItemIsDropped(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 16)

	if err := s.Set(ctx, "sess-1", []byte("x"), sessionstore.WithTTL(-time.Second)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	item, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item != nil {
		t.Fatal("expired item should read as absent")
	}
}

func TestSetClonesData(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 16)

	data := []byte("original")
	if err := s.Set(ctx, "sess-1", data); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data[0] = 'X'

	item, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(item.Data) != "original" {
		t.Fatalf("stored data aliases caller slice: %s", item.Data)
	}
}

func TestLRUEviction(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, 2)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, id, []byte(id)); err != nil {
			t.Fatalf("Set %s: %v", id, err)
		}
	}

	item, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if item != nil {
		t.Fatal("oldest session should have been evicted")
	}

	for _, id := range []string{"b", "c"} {
		item, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		if item == nil {
			t.Fatalf("session %s should still be present", id)
		}
	}
}
