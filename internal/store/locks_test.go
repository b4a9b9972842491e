package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shelver/internal/store"
	"shelver/internal/testsupport"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAcquireLockHeldCarriesFirstToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := testsupport.NewClock(epoch)
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))
	ctx := context.Background()

	t1, err := st.AcquireLock(ctx, "job", 5*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if t1 == "" {
		t.Fatal("expected token")
	}

	_, err = st.AcquireLock(ctx, "job", 5*time.Second)
	if !errors.Is(err, store.ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if errors.Is(err, store.ErrLockStuck) {
		t.Fatalf("held lock must not match ErrLockStuck: %v", err)
	}
	var lockErr *store.LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected *LockError, got %T", err)
	}
	if lockErr.Token != t1 {
		t.Fatalf("expected existing token %s, got %s", t1, lockErr.Token)
	}
	if !lockErr.ExpiresAt.Equal(epoch.Add(5 * time.Second)) {
		t.Fatalf("unexpected expiry: %s", lockErr.ExpiresAt)
	}
	if lockErr.Name != "job" {
		t.Fatalf("unexpected lock name: %q", lockErr.Name)
	}
}

func TestAcquireLockAfterTTLReportsStuckWithoutReclaiming(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := testsupport.NewClock(epoch)
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))
	ctx := context.Background()

	t1, err := st.AcquireLock(ctx, "job", 5*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	clock.Advance(6 * time.Second)
	for attempt := 0; attempt < 2; attempt++ {
		_, err = st.AcquireLock(ctx, "job", 5*time.Second)
		if !errors.Is(err, store.ErrLockStuck) {
			t.Fatalf("attempt %d: expected ErrLockStuck, got %v", attempt, err)
		}
		var lockErr *store.LockError
		if !errors.As(err, &lockErr) || lockErr.Token != t1 || !lockErr.Stuck() {
			t.Fatalf("attempt %d: expected stuck lock carrying %s, got %v", attempt, t1, err)
		}
	}

	stuck, err := st.StuckLocks(ctx)
	if err != nil {
		t.Fatalf("StuckLocks failed: %v", err)
	}
	if len(stuck) != 1 || stuck[0].Token != t1 {
		t.Fatalf("expected the original row to be reported stuck, got %+v", stuck)
	}
}

func TestAcquireLockAtExactExpiryIsStuck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := testsupport.NewClock(epoch)
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))
	ctx := context.Background()

	if _, err := st.AcquireLock(ctx, "job", 5*time.Second); err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	clock.Advance(5 * time.Second)
	if _, err := st.AcquireLock(ctx, "job", 5*time.Second); !errors.Is(err, store.ErrLockStuck) {
		t.Fatalf("expected ErrLockStuck at expires_at == now, got %v", err)
	}
}

func TestReleaseStuckLockThenAcquireIssuesNewToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := testsupport.NewClock(epoch)
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))
	ctx := context.Background()

	t1, err := st.AcquireLock(ctx, "job", 5*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	clock.Advance(6 * time.Second)
	if _, err := st.AcquireLock(ctx, "job", 5*time.Second); !errors.Is(err, store.ErrLockStuck) {
		t.Fatalf("expected ErrLockStuck, got %v", err)
	}

	if err := st.ReleaseLock(ctx, "job", t1); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	t2, err := st.AcquireLock(ctx, "job", 5*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock after release failed: %v", err)
	}
	if t2 == t1 {
		t.Fatalf("expected a fresh token, got %s again", t2)
	}

	history, err := st.LockHistory(ctx, "job", 10)
	if err != nil {
		t.Fatalf("LockHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected history to retain both acquisitions, got %d", len(history))
	}
	if history[0].Token != t2 || !history[0].Locked || history[1].Token != t1 || history[1].Locked {
		t.Fatalf("unexpected history: %+v %+v", history[0], history[1])
	}
}

func TestReleaseLockRejectsWrongOrReleasedToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	token, err := st.AcquireLock(ctx, "job", time.Minute)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	if err := st.ReleaseLock(ctx, "job", "not-the-token"); !errors.Is(err, store.ErrLockNotOwned) {
		t.Fatalf("expected ErrLockNotOwned for wrong token, got %v", err)
	}
	if err := st.ReleaseLock(ctx, "other", token); !errors.Is(err, store.ErrLockNotOwned) {
		t.Fatalf("expected ErrLockNotOwned for wrong name, got %v", err)
	}
	held, err := st.HeldLocks(ctx)
	if err != nil {
		t.Fatalf("HeldLocks failed: %v", err)
	}
	if len(held) != 1 || held[0].Token != token {
		t.Fatalf("expected failed releases to leave state unchanged, got %+v", held)
	}

	if err := st.ReleaseLock(ctx, "job", token); err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if err := st.ReleaseLock(ctx, "job", token); !errors.Is(err, store.ErrLockNotOwned) {
		t.Fatalf("expected ErrLockNotOwned for double release, got %v", err)
	}
}

func TestLocksAreIndependentPerName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.AcquireLock(ctx, "execute_archive", time.Minute); err != nil {
		t.Fatalf("AcquireLock archive failed: %v", err)
	}
	if _, err := st.AcquireLock(ctx, "create_cfg", time.Minute); err != nil {
		t.Fatalf("AcquireLock cfg failed: %v", err)
	}
}

func TestAcquireLockValidatesInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.AcquireLock(ctx, "  ", time.Minute); !errors.Is(err, store.ErrInvalidLock) {
		t.Fatalf("expected ErrInvalidLock for empty name, got %v", err)
	}
	if _, err := st.AcquireLock(ctx, "job", 500*time.Millisecond); !errors.Is(err, store.ErrInvalidLock) {
		t.Fatalf("expected ErrInvalidLock for sub-second ttl, got %v", err)
	}
}

func TestConcurrentAcquirersNeverBothSucceed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenStore(t, cfg)
	second := testsupport.MustOpenStore(t, cfg)
	stores := []*store.Store{first, second}

	const rounds = 10
	for round := 0; round < rounds; round++ {
		name := "race"
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			tokens  []string
			heldErr int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(st *store.Store) {
				defer wg.Done()
				token, err := st.AcquireLock(context.Background(), name, time.Minute)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					tokens = append(tokens, token)
				case errors.Is(err, store.ErrLockHeld):
					heldErr++
				default:
					t.Errorf("round %d: unexpected error: %v", round, err)
				}
			}(stores[i%len(stores)])
		}
		wg.Wait()

		if len(tokens) != 1 {
			t.Fatalf("round %d: expected exactly one winner, got %d (held=%d)", round, len(tokens), heldErr)
		}
		if err := first.ReleaseLock(context.Background(), name, tokens[0]); err != nil {
			t.Fatalf("round %d: release failed: %v", round, err)
		}
	}
}
