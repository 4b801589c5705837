package riseup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTokenSourceFetchesOnFirstUse(t *testing.T) {
	fetches := 0
	ts := newTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		fetches++
		return "tok-1", time.Hour, nil
	})

	if got := ts.state(); got != stateUnauthenticated {
		t.Errorf("Expected initial state unauthenticated, got %s", got)
	}

	tok, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("Expected token 'tok-1', got '%s'", tok)
	}
	if fetches != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetches)
	}
	if got := ts.state(); got != stateValid {
		t.Errorf("Expected state valid after fetch, got %s", got)
	}

	// Second call reuses the cached token.
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetches != 1 {
		t.Errorf("Expected cached token to be reused, got %d fetches", fetches)
	}
}

func TestTokenSourceRefreshesInsideMargin(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	fetches := 0
	ts := newTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		fetches++
		return "tok", 90 * time.Second, nil
	})
	ts.now = func() time.Time { return now }

	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// 40s in: 50s of ttl left, inside the 60s margin, so the state machine
	// reports expiring-soon and the next call refreshes.
	now = now.Add(40 * time.Second)
	if got := ts.state(); got != stateExpiringSoon {
		t.Errorf("Expected state expiring-soon, got %s", got)
	}
	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetches != 2 {
		t.Errorf("Expected a refresh inside the expiry margin, got %d fetches", fetches)
	}
}

func TestTokenSourceClearsOnFetchError(t *testing.T) {
	fail := errors.New("auth rejected")
	calls := 0
	ts := newTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		calls++
		if calls == 1 {
			return "tok", time.Hour, nil
		}
		return "", 0, fail
	})
	ts.now = time.Now

	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Force expiry, then fail the refresh.
	ts.mu.Lock()
	ts.expiry = time.Now().Add(-time.Minute)
	ts.mu.Unlock()

	if _, err := ts.Token(context.Background()); !errors.Is(err, fail) {
		t.Fatalf("Expected fetch error to propagate, got %v", err)
	}
	if got := ts.state(); got != stateUnauthenticated {
		t.Errorf("Expected state unauthenticated after failed refresh, got %s", got)
	}
}

func TestTokenSourceSingleRefreshUnderConcurrency(t *testing.T) {
	fetches := 0
	ts := newTokenSource(func(ctx context.Context) (string, time.Duration, error) {
		fetches++
		time.Sleep(10 * time.Millisecond) // widen the race window
		return "tok", time.Hour, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ts.Token(context.Background()); err != nil {
				t.Errorf("Token returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if fetches != 1 {
		t.Errorf("Expected exactly one refresh across concurrent callers, got %d", fetches)
	}
}
