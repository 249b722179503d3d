package cache

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestHashIP(t *testing.T) {
	t.Parallel()

	if hashIP("192.168.1.100") != hashIP("192.168.1.100") {
		t.Error("Same IP should produce same hash")
	}

	tests := []struct {
		name string
		ip1  string
		ip2  string
	}{
		{"different IPv4", "192.168.1.1", "192.168.1.2"},
		{"IPv4 vs IPv6", "127.0.0.1", "::1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h1, h2 := hashIP(tt.ip1), hashIP(tt.ip2)
			if h1 == h2 {
				t.Errorf("Different IPs should produce different hashes: %q and %q both produced %s", tt.ip1, tt.ip2, h1)
			}
			// First 8 bytes of SHA256, hex encoded.
			if len(h1) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip1, len(h1))
			}
		})
	}
}

func TestTaskKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   int64
		want string
	}{
		{1, "task:1"},
		{42, "task:42"},
		{9007199254740993, "task:9007199254740993"},
	}

	for _, tt := range tests {
		if got := taskKey(tt.id); got != tt.want {
			t.Errorf("taskKey(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestNewWithClient_DefaultTTL(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	if c := NewWithClient(client, 0); c.taskTTL != DefaultTaskTTL {
		t.Errorf("expected default TTL %s, got %s", DefaultTaskTTL, c.taskTTL)
	}
	if c := NewWithClient(client, time.Minute); c.taskTTL != time.Minute {
		t.Errorf("expected TTL 1m, got %s", c.taskTTL)
	}
}
