// Package main is the schema migration CLI for Taskmanager.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/taskmanager/taskmanager/internal/migrate"
	"github.com/taskmanager/taskmanager/migrations"
)

func main() {
	// A local .env supplies DATABASE_URL the same way it does for the server.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := newApp(os.Stdout, logger).Run(context.Background(), os.Args); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back the Taskmanager schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "PostgreSQL connection string",
				Sources:  cli.EnvVars("DATABASE_URL"),
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withMigrator(ctx, cmd, logger, func(m *migrate.Migrator) error {
						n, err := m.Up(ctx)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "applied %d migration(s)\n", n)
						return nil
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back applied migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Usage: "Number of migrations to roll back",
						Value: 1,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					steps := int(cmd.Int("steps"))
					if steps < 1 {
						return fmt.Errorf("steps must be at least 1, got %d", steps)
					}
					return withMigrator(ctx, cmd, logger, func(m *migrate.Migrator) error {
						n, err := m.Down(ctx, steps)
						if errors.Is(err, migrate.ErrNoMigrations) {
							fmt.Fprintln(out, "nothing to roll back")
							return nil
						}
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "rolled back %d migration(s)\n", n)
						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "List migrations and when they were applied",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withMigrator(ctx, cmd, logger, func(m *migrate.Migrator) error {
						statuses, err := m.Status(ctx)
						if err != nil {
							return err
						}
						return printStatus(out, statuses)
					})
				},
			},
		},
	}
}

func withMigrator(ctx context.Context, cmd *cli.Command, logger *slog.Logger, fn func(m *migrate.Migrator) error) error {
	db, err := migrate.Open(ctx, cmd.String("database-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := migrate.New(db, migrations.FS, logger)
	if err != nil {
		return err
	}
	return fn(m)
}

func printStatus(out io.Writer, statuses []migrate.Status) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
	for _, s := range statuses {
		applied := "pending"
		if s.AppliedAt != nil {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%06d\t%s\t%s\n", s.Version, s.Name, applied)
	}
	return tw.Flush()
}
