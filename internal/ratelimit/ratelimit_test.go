package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cleanedge.io/forms/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

// fakeClock is a manually-advanced clock for window tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(0, WithClock(clock))
	return store, clock
}

func TestMemoryStore_Monotonicity(t *testing.T) {
	store, _ := newTestStore()
	defer store.Close()

	ctx := context.Background()
	const limit = 5
	window := 10 * time.Minute

	// All admissions up to limit succeed with strictly decreasing remaining.
	for i := 1; i <= limit; i++ {
		res, err := store.Take(ctx, "client-a", limit, window)
		if err != nil {
			t.Fatalf("Take() error = %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d: Allowed = false, want true", i)
		}
		if want := limit - i; res.Remaining != want {
			t.Errorf("request %d: Remaining = %d, want %d", i, res.Remaining, want)
		}
	}

	// The (limit+1)th call is rejected with remaining 0, repeatedly.
	for i := 0; i < 3; i++ {
		res, err := store.Take(ctx, "client-a", limit, window)
		if err != nil {
			t.Fatalf("Take() error = %v", err)
		}
		if res.Allowed {
			t.Error("over-limit request allowed")
		}
		if res.Remaining != 0 {
			t.Errorf("over-limit Remaining = %d, want 0", res.Remaining)
		}
	}
}

func TestMemoryStore_RejectionsDoNotBurnBudget(t *testing.T) {
	store, clock := newTestStore()
	defer store.Close()

	ctx := context.Background()
	window := 10 * time.Minute

	for i := 0; i < 10; i++ {
		store.Take(ctx, "client-a", 2, window)
	}

	// Window expires: client starts fresh regardless of how many rejected
	// requests piled up.
	clock.Advance(window)
	res, _ := store.Take(ctx, "client-a", 2, window)
	if !res.Allowed || res.Remaining != 1 {
		t.Errorf("post-expiry Take() = %+v, want fresh window with remaining 1", res)
	}
}

func TestMemoryStore_WindowReset(t *testing.T) {
	store, clock := newTestStore()
	defer store.Close()

	ctx := context.Background()
	window := time.Minute

	first, _ := store.Take(ctx, "client-b", 3, window)
	if !first.Allowed || first.Remaining != 2 {
		t.Fatalf("first Take() = %+v", first)
	}

	clock.Advance(window + time.Second)

	// Behaves identically to a first-ever call: fresh count, fresh reset.
	res, _ := store.Take(ctx, "client-b", 3, window)
	if !res.Allowed || res.Remaining != 2 {
		t.Errorf("Take() after expiry = %+v, want fresh window", res)
	}
	if !res.Reset.After(first.Reset) {
		t.Errorf("Reset not advanced: %v vs %v", res.Reset, first.Reset)
	}
}

func TestMemoryStore_IndependentKeys(t *testing.T) {
	store, _ := newTestStore()
	defer store.Close()

	ctx := context.Background()
	window := time.Minute

	for i := 0; i < 2; i++ {
		store.Take(ctx, "client-a", 2, window)
	}
	blocked, _ := store.Take(ctx, "client-a", 2, window)
	if blocked.Allowed {
		t.Error("client-a should be over budget")
	}

	other, _ := store.Take(ctx, "client-b", 2, window)
	if !other.Allowed {
		t.Error("client-b should not share client-a's budget")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store, clock := newTestStore()
	defer store.Close()

	ctx := context.Background()
	store.Take(ctx, "a", 3, time.Minute)
	store.Take(ctx, "b", 3, time.Hour)

	clock.Advance(2 * time.Minute)

	removed := store.Sweep()
	if removed != 1 {
		t.Errorf("Sweep() removed = %d, want 1", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

// errStore always fails, to exercise the limiter's fail-open path.
type errStore struct{}

func (errStore) Take(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("store down")
}
func (errStore) Close() error { return nil }

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(errStore{}, WithLimiterClock(clock))

	rule := Rule{Limit: 3, Window: time.Minute}
	res := l.Check(context.Background(), "client-a", rule)
	if !res.Allowed {
		t.Error("Check() should fail open when the store errors")
	}
	if res.Remaining != 2 {
		t.Errorf("Remaining = %d, want 2", res.Remaining)
	}
	if want := clock.Now().Add(rule.Window); !res.Reset.Equal(want) {
		t.Errorf("Reset = %s, want %s from the injected clock", res.Reset, want)
	}
}

func TestLimiter_Check(t *testing.T) {
	store, _ := newTestStore()
	l := New(store)
	defer l.Close()

	rule := Rule{Limit: 2, Window: time.Minute}
	ctx := context.Background()

	if res := l.Check(ctx, "c", rule); !res.Allowed || res.Limit != 2 {
		t.Errorf("Check() = %+v", res)
	}
	l.Check(ctx, "c", rule)
	if res := l.Check(ctx, "c", rule); res.Allowed {
		t.Errorf("third Check() = %+v, want rejection", res)
	}
}
