//go:build integration

package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmanager/taskmanager/internal/metrics"
	"github.com/taskmanager/taskmanager/internal/model"
	"github.com/taskmanager/taskmanager/internal/testutil"
)

func TestIntegrationPublish(t *testing.T) {
	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	p := NewPublisher(client, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.NewNoop())
	ev := NewTaskEvent(TaskUpdated, &model.Task{ID: 5, UserID: 1, Slug: "t"}, time.Now())

	if _, err := p.Publish(ctx, ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	entries, err := client.XRange(ctx, StreamKey, "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}

	var got TaskEvent
	if err := json.Unmarshal([]byte(entries[0].Values["payload"].(string)), &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.ID != ev.ID || got.Type != TaskUpdated || got.TaskID != 5 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}
