package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterSharesBucketAcrossPorts(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	first.RemoteAddr = "9.9.9.9:1111"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rr.Code)
	}

	// Same caller on a new connection must hit the same bucket.
	second := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	second.RemoteAddr = "9.9.9.9:2222"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, second)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rr.Code)
	}
}

func TestRateLimiterIsolatesCallers(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"1.1.1.1:80", "2.2.2.2:80"} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected caller %s to have its own budget, got %d", addr, rr.Code)
		}
	}
}

func TestRateLimiterCleanupResetsBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if !rl.limiterFor("3.3.3.3").Allow() {
		t.Fatalf("expected fresh bucket to allow")
	}
	if rl.limiterFor("3.3.3.3").Allow() {
		t.Fatalf("expected drained bucket to throttle")
	}

	rl.CleanupLimiters()

	if !rl.limiterFor("3.3.3.3").Allow() {
		t.Fatalf("expected cleanup to restore a full bucket")
	}
}
