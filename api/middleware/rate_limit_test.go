package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeLimiterStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (s *fakeLimiterStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/payments/history/o1/m1", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	store := &fakeLimiterStore{}
	policy := NewRateLimitPolicy(time.Minute, 2)
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", rec.Code)
	}
	// A different caller is unaffected.
	if rec := hit(handler, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for second caller, got %d", rec.Code)
	}
}

func TestRateLimit_FailsOpenOnStoreError(t *testing.T) {
	store := &fakeLimiterStore{err: errors.New("redis down")}
	policy := NewRateLimitPolicy(time.Minute, 1)
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: limiter failure must fail open, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimit_DisabledPolicyPassesThrough(t *testing.T) {
	store := &fakeLimiterStore{}
	handler := RateLimit(NewRateLimitPolicy(0, 0), store, nil)(okHandler())

	if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("disabled policy must pass through, got %d", rec.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy must not touch the store")
	}
}

func TestRateLimit_NilStorePassesThrough(t *testing.T) {
	handler := RateLimit(NewRateLimitPolicy(time.Minute, 1), nil, nil)(okHandler())

	for i := 0; i < 3; i++ {
		if rec := hit(handler, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("nil store must pass through, got %d", rec.Code)
		}
	}
}

func TestClientIP_PrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}
}
