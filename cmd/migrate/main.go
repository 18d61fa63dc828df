// Command migrate applies the SQL files under migrations/ in lexical order.
// Applied file names are recorded in schema_migrations so reruns are safe.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const migrationsDir = "migrations"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	dsn, err := databaseDSN()
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return errors.Wrap(err, "connect")
	}
	defer func() {
		_ = conn.Close(ctx)
	}()

	if _, err := conn.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`,
	); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	names, err := migrationFiles()
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, err := isApplied(ctx, conn, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := apply(ctx, conn, name); err != nil {
			return err
		}
		fmt.Println("applied", name)
	}
	return nil
}

// databaseDSN resolves the connection string from the same config file the
// services read, with DATABASE_DSN taking precedence.
func databaseDSN() (string, error) {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(configFileName(), filepath.Ext(configFileName())))
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	if err := v.ReadInConfig(); err != nil {
		return "", errors.Wrap(err, "read config")
	}

	dsn := v.GetString("db_dsn")
	if env := os.Getenv("DATABASE_DSN"); env != "" {
		dsn = env
	}
	if dsn == "" {
		return "", errors.New("db_dsn is not set")
	}
	return dsn, nil
}

func configFileName() string {
	if name := os.Getenv("CONFIG_FILE"); name != "" {
		return name
	}
	return "values_local.yaml"
}

func migrationFiles() ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations dir")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isApplied(ctx context.Context, conn *pgx.Conn, name string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "check %s", name)
	}
	return exists, nil
}

func apply(ctx context.Context, conn *pgx.Conn, name string) error {
	sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir, name))
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		return errors.Wrapf(err, "apply %s", name)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (name) VALUES ($1)`, name,
	); err != nil {
		return errors.Wrapf(err, "record %s", name)
	}
	return errors.Wrap(tx.Commit(ctx), "commit")
}
