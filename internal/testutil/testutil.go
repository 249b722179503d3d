// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taskmanager/taskmanager/internal/model"
	"github.com/taskmanager/taskmanager/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// AdvisoryLockID serializes DB tests across packages.
const AdvisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", AdvisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", AdvisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// schemaFiles lists migrations in apply order; down runs in reverse.
var schemaFiles = []string{"000001_users", "000002_tasks"}

// ResetSchema drops and recreates the users and tasks tables from the embedded migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i := len(schemaFiles) - 1; i >= 0; i-- {
		if err := execMigration(ctx, pool, schemaFiles[i]+".down.sql"); err != nil {
			return err
		}
	}
	for _, name := range schemaFiles {
		if err := execMigration(ctx, pool, name+".up.sql"); err != nil {
			return err
		}
	}
	return nil
}

func execMigration(ctx context.Context, pool *pgxpool.Pool, name string) error {
	sql, err := migrations.FS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates an unsaved user with a unique username.
func NewTestUser(t testing.TB, prefix string) *model.User {
	t.Helper()
	username := UniqueName(prefix)
	return &model.User{
		Username:  username,
		Firstname: "Test",
		Lastname:  "User",
		Age:       30,
		Slug:      username,
	}
}

// NewTestTask creates an unsaved task owned by userID.
func NewTestTask(t testing.TB, userID int64, title string) *model.Task {
	t.Helper()
	return &model.Task{
		Title:    title,
		Content:  "content for " + title,
		Priority: 1,
		Slug:     title,
		UserID:   userID,
	}
}

// UniqueName generates a unique name for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
