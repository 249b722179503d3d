// Package migrate applies the embedded SQL migrations through database/sql.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/lib/pq"
)

// DefaultTable records applied migration versions.
const DefaultTable = "schema_migrations"

// ErrNoMigrations is returned by Down when nothing has been applied.
var ErrNoMigrations = errors.New("no applied migrations")

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// Migration is one numbered schema change.
type Migration struct {
	Version int64
	Name    string
	Up      string
	Down    string
}

// Status describes a migration and whether it has been applied.
type Status struct {
	Migration
	AppliedAt *time.Time
}

// Migrator applies migrations from a filesystem against a database.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
	table      string
	logger     *slog.Logger
}

// Open connects to databaseURL with the lib/pq driver.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// New loads the migrations in fsys and returns a Migrator for db.
func New(db *sql.DB, fsys fs.FS, logger *slog.Logger) (*Migrator, error) {
	migrations, err := Load(fsys)
	if err != nil {
		return nil, err
	}
	return &Migrator{
		db:         db,
		migrations: migrations,
		table:      DefaultTable,
		logger:     logger.With("component", "migrate"),
	}, nil
}

// Load reads and pairs the *.up.sql and *.down.sql files in fsys, ordered by version.
// Every version must have an up file.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int64]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}

		version, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse version of %s: %w", entry.Name(), err)
		}

		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: match[2]}
			byVersion[version] = m
		} else if m.Name != match[2] {
			return nil, fmt.Errorf("migration %d has conflicting names %q and %q", version, m.Name, match[2])
		}

		if match[3] == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %d_%s has no up file", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// Up applies every pending migration in version order, each in its own transaction.
// Returns the number applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		insert := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", pq.QuoteIdentifier(m.table))
		if err := m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, insert, mig.Version, mig.Name)
			return err
		}); err != nil {
			return count, fmt.Errorf("apply %d_%s: %w", mig.Version, mig.Name, err)
		}

		m.logger.Info("migration applied", "version", mig.Version, "name", mig.Name)
		count++
	}

	return count, nil
}

// Down reverts the most recently applied migrations, up to steps of them.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}
	if len(applied) == 0 {
		return 0, ErrNoMigrations
	}

	remove := fmt.Sprintf("DELETE FROM %s WHERE version = $1", pq.QuoteIdentifier(m.table))

	count := 0
	for i := len(m.migrations) - 1; i >= 0 && count < steps; i-- {
		mig := m.migrations[i]
		if _, ok := applied[mig.Version]; !ok {
			continue
		}
		if mig.Down == "" {
			return count, fmt.Errorf("migration %d_%s has no down file", mig.Version, mig.Name)
		}

		if err := m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mig.Down); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, remove, mig.Version)
			return err
		}); err != nil {
			return count, fmt.Errorf("revert %d_%s: %w", mig.Version, mig.Name, err)
		}

		m.logger.Info("migration reverted", "version", mig.Version, "name", mig.Name)
		count++
	}

	return count, nil
}

// Status lists every known migration with its applied time, if any.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(m.migrations))
	for _, mig := range m.migrations {
		s := Status{Migration: mig}
		if at, ok := applied[mig.Version]; ok {
			at := at
			s.AppliedAt = &at
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version    BIGINT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, pq.QuoteIdentifier(m.table))

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", m.table, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int64]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s", pq.QuoteIdentifier(m.table))

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]time.Time)
	for rows.Next() {
		var version int64
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = at
	}
	return applied, rows.Err()
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
