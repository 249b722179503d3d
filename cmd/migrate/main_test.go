package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/taskmanager/taskmanager/internal/migrate"
)

func TestPrintStatus(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	statuses := []migrate.Status{
		{Migration: migrate.Migration{Version: 1, Name: "users"}, AppliedAt: &at},
		{Migration: migrate.Migration{Version: 2, Name: "tasks"}},
	}

	var buf bytes.Buffer
	if err := printStatus(&buf, statuses); err != nil {
		t.Fatalf("printStatus failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", buf.String())
	}
	if !strings.Contains(lines[1], "000001") || !strings.Contains(lines[1], "2024-03-01T12:00:00Z") {
		t.Fatalf("unexpected applied row %q", lines[1])
	}
	if !strings.Contains(lines[2], "tasks") || !strings.Contains(lines[2], "pending") {
		t.Fatalf("unexpected pending row %q", lines[2])
	}
}

func TestApp_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")

	app := newApp(io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)))
	app.Writer = io.Discard
	app.ErrWriter = io.Discard

	if err := app.Run(context.Background(), []string{"migrate", "status"}); err == nil {
		t.Fatal("expected an error without a database url")
	}
}

func TestApp_DownRejectsZeroSteps(t *testing.T) {
	app := newApp(io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)))
	app.Writer = io.Discard
	app.ErrWriter = io.Discard

	err := app.Run(context.Background(), []string{"migrate", "--database-url", "postgres://localhost/none", "down", "--steps", "0"})
	if err == nil || !strings.Contains(err.Error(), "steps must be at least 1") {
		t.Fatalf("expected steps error, got %v", err)
	}
}
