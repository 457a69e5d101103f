package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	loadEnvFunc = godotenv.Load
	openPool    = pgxpool.New
)

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

func main() {
	loadEnvFunc()

	if len(os.Args) < 2 {
		log.Fatalf("usage: go run ./cmd/migrate [up|down|version] [steps]")
	}

	dsn := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := openPool(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := ensureMigrationTable(ctx, pool); err != nil {
		log.Fatalf("ensure schema_migrations table: %v", err)
	}

	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		log.Fatalf("load migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		runUp(ctx, pool, migrations)
	case "down":
		runDown(ctx, pool, migrations, os.Args[2:])
	case "version":
		reportVersion(ctx, pool)
	default:
		log.Fatalf("unknown command %q. usage: go run ./cmd/migrate [up|down|version] [steps]", os.Args[1])
	}
}

func runUp(ctx context.Context, pool *pgxpool.Pool, migrations []migration) {
	versions, err := appliedVersions(ctx, pool)
	if err != nil {
		log.Fatalf("read applied versions: %v", err)
	}
	appliedSet := make(map[int64]struct{}, len(versions))
	for _, v := range versions {
		appliedSet[v] = struct{}{}
	}

	applied := 0
	for _, m := range migrations {
		if _, ok := appliedSet[m.Version]; ok {
			continue
		}
		err := runInTx(ctx, pool, m.UpSQL,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
		if err != nil {
			log.Fatalf("version %d up failed: %v", m.Version, err)
		}
		applied++
	}
	log.Printf("migrations up complete (%d applied)", applied)
}

func runDown(ctx context.Context, pool *pgxpool.Pool, migrations []migration, args []string) {
	steps := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			log.Fatalf("invalid down steps: %q", args[0])
		}
		steps = n
	}

	byVersion := make(map[int64]migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}

	versions, err := appliedVersions(ctx, pool)
	if err != nil {
		log.Fatalf("read applied versions: %v", err)
	}

	rolledBack := 0
	for i := len(versions) - 1; i >= 0 && rolledBack < steps; i-- {
		m, ok := byVersion[versions[i]]
		if !ok {
			log.Fatalf("cannot find migration source for applied version %d", versions[i])
		}
		err := runInTx(ctx, pool, m.DownSQL,
			`DELETE FROM schema_migrations WHERE version = $1`, m.Version)
		if err != nil {
			log.Fatalf("version %d down failed: %v", m.Version, err)
		}
		rolledBack++
	}
	log.Printf("migrations down complete (%d rolled back)", rolledBack)
}

func reportVersion(ctx context.Context, pool *pgxpool.Pool) {
	var version int64
	var name string
	err := pool.QueryRow(ctx,
		`SELECT version, name FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &name)
	switch {
	case err == nil:
		log.Printf("current version: %d (%s)", version, name)
	case errors.Is(err, pgx.ErrNoRows):
		log.Println("no migrations applied")
	default:
		log.Fatalf("read current version: %v", err)
	}
}

func ensureMigrationTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version     BIGINT PRIMARY KEY,
    name        TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`)
	return err
}

// appliedVersions returns every applied version in ascending order.
func appliedVersions(ctx context.Context, pool *pgxpool.Pool) ([]int64, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// runInTx executes the migration SQL and its bookkeeping statement in one
// transaction, so a half-applied migration never gets recorded.
func runInTx(ctx context.Context, pool *pgxpool.Pool, migrationSQL, recordSQL string, args ...any) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, migrationSQL); err != nil {
		tx.Rollback(ctx)
		return err
	}
	if _, err := tx.Exec(ctx, recordSQL, args...); err != nil {
		tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

var migrationNameRe = regexp.MustCompile(`^migrations/([0-9]+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// parseMigrationPath splits "migrations/NNNN_name.{up,down}.sql" into its parts.
func parseMigrationPath(p string) (version int64, name, direction string, err error) {
	matches := migrationNameRe.FindStringSubmatch(p)
	if matches == nil {
		return 0, "", "", fmt.Errorf("invalid migration filename: %s", p)
	}
	version, err = strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("parse version in %s: %w", p, err)
	}
	return version, matches[2], matches[3], nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	paths, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no migration files found")
	}

	index := make(map[int64]*migration)
	for _, p := range paths {
		version, name, direction, err := parseMigrationPath(p)
		if err != nil {
			return nil, err
		}

		sqlBytes, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", p, err)
		}
		sqlText := strings.TrimSpace(string(sqlBytes))
		if sqlText == "" {
			return nil, fmt.Errorf("empty migration file: %s", p)
		}

		m, ok := index[version]
		if !ok {
			m = &migration{Version: version, Name: name}
			index[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("conflicting names for version %d: %s vs %s", version, m.Name, name)
		}

		dst := &m.UpSQL
		if direction == "down" {
			dst = &m.DownSQL
		}
		if *dst != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", direction, version)
		}
		*dst = sqlText
	}

	migrations := make([]migration, 0, len(index))
	for _, m := range index {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration version %d must include both up and down files", m.Version)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}
