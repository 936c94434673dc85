package idempotency

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStorePutIfAbsent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := &Record{StatusCode: 200, Body: []byte(`{}`), StoredAt: time.Now()}

	stored, err := s.PutIfAbsent(ctx, "k", rec, time.Hour)
	if err != nil || !stored {
		t.Fatalf("first put: stored=%v err=%v", stored, err)
	}

	other := &Record{StatusCode: 500, Body: []byte(`oops`), StoredAt: time.Now()}
	stored, err = s.PutIfAbsent(ctx, "k", other, time.Hour)
	if err != nil || stored {
		t.Fatalf("second put must lose: stored=%v err=%v", stored, err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.StatusCode != 200 {
		t.Fatalf("first writer must win, got %+v", got)
	}
}

func TestMemoryStorePassiveExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := &Record{StatusCode: 200, Body: []byte(`{}`), StoredAt: time.Now()}

	if _, err := s.PutIfAbsent(ctx, "k", rec, 20*time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected expired record to read as absent, got %+v", got)
	}

	// An expired slot is writable again.
	stored, err := s.PutIfAbsent(ctx, "k", rec, time.Hour)
	if err != nil || !stored {
		t.Fatalf("rewrite after expiry: stored=%v err=%v", stored, err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.PutIfAbsent(ctx, "stale", &Record{StatusCode: 200}, 10*time.Millisecond)
	s.PutIfAbsent(ctx, "fresh", &Record{StatusCode: 200}, time.Hour)

	time.Sleep(20 * time.Millisecond)
	s.sweep(time.Now())

	s.mu.RLock()
	_, staleKept := s.records["stale"]
	_, freshKept := s.records["fresh"]
	s.mu.RUnlock()

	if staleKept {
		t.Fatal("expected sweep to remove expired record")
	}
	if !freshKept {
		t.Fatal("expected sweep to keep live record")
	}
}
