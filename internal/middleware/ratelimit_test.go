package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskmanager/taskmanager/internal/cache"
)

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error
	ips    []string
}

func (f *fakeLimiter) CheckIPRateLimit(ctx context.Context, ip string, rps, burst int) (*cache.RateLimitResult, error) {
	f.ips = append(f.ips, ip)
	return f.result, f.err
}

func TestRateLimitIP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		limiter    *fakeLimiter
		enabled    bool
		wantStatus int
		wantCalls  int
	}{
		{"disabled", &fakeLimiter{}, false, http.StatusOK, 0},
		{"allowed", &fakeLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4}}, true, http.StatusOK, 1},
		{"throttled", &fakeLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: 2 * time.Second}}, true, http.StatusTooManyRequests, 1},
		{"limiter error fails open", &fakeLimiter{err: errors.New("redis down")}, true, http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := RateLimitIP(RateLimitConfig{Logger: logger, Limiter: tt.limiter, Enabled: tt.enabled, RPS: 1, Burst: 5})

			req := httptest.NewRequest(http.MethodPost, "/tack/create", nil)
			req.RemoteAddr = "203.0.113.7:51234"
			rec := httptest.NewRecorder()
			mw(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(tt.limiter.ips) != tt.wantCalls {
				t.Fatalf("limiter calls = %d, want %d", len(tt.limiter.ips), tt.wantCalls)
			}
			if tt.wantCalls > 0 && tt.limiter.ips[0] != "203.0.113.7" {
				t.Errorf("expected port stripped from IP, got %q", tt.limiter.ips[0])
			}
			if tt.wantStatus == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "2" {
				t.Errorf("expected Retry-After 2, got %q", rec.Header().Get("Retry-After"))
			}
		})
	}
}
