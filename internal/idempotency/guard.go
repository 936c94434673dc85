package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Response is what the guard records and replays.
type Response struct {
	StatusCode int
	Body       []byte
}

// HandlerFunc produces the response for a request the guard decided to let
// through.
type HandlerFunc func(ctx context.Context) (Response, error)

// Guard serializes concurrent duplicates of the same (route, key) pair and
// replays the first recorded response for later ones. Duplicate suppression
// is best-effort: a failing store degrades to direct execution rather than
// blocking the request.
type Guard struct {
	store Store
	ttl   time.Duration

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewGuard creates a guard recording responses in store for ttl.
func NewGuard(store Store, ttl time.Duration) *Guard {
	return &Guard{
		store: store,
		ttl:   ttl,
		locks: make(map[string]*keyLock),
	}
}

// Do runs handler under idempotency protection. An empty clientKey opts out
// and calls handler directly. The returned bool reports whether the response
// was replayed from a previous execution.
func (g *Guard) Do(ctx context.Context, routeKey, clientKey string, handler HandlerFunc) (Response, bool, error) {
	if clientKey == "" {
		resp, err := handler(ctx)
		return resp, false, err
	}

	key := routeKey + "\x00" + clientKey

	lock := g.acquire(key)
	defer g.release(key, lock)

	if rec, err := g.store.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("route", routeKey).Msg("idempotency lookup failed; executing directly")
	} else if rec != nil {
		return Response{StatusCode: rec.StatusCode, Body: rec.Body}, true, nil
	}

	resp, err := handler(ctx)
	if err != nil {
		// Only completed responses are recorded; a failed handler stays
		// retryable.
		return resp, false, err
	}

	rec := &Record{StatusCode: resp.StatusCode, Body: resp.Body, StoredAt: time.Now().UTC()}
	if _, err := g.store.PutIfAbsent(ctx, key, rec, g.ttl); err != nil {
		log.Warn().Err(err).Str("route", routeKey).Msg("idempotency record failed")
	}

	return resp, false, nil
}

// acquire returns the per-key mutex, locked. The lock table is refcounted so
// idle keys do not accumulate.
func (g *Guard) acquire(key string) *keyLock {
	g.mu.Lock()
	lock, ok := g.locks[key]
	if !ok {
		lock = &keyLock{}
		g.locks[key] = lock
	}
	lock.refs++
	g.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (g *Guard) release(key string, lock *keyLock) {
	lock.mu.Unlock()

	g.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(g.locks, key)
	}
	g.mu.Unlock()
}
