package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
)

// Postgres keeps records in the kv_records table created by migrations/postgres.
type Postgres struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewPostgres(db *dbpg.DB, log *zerolog.Logger) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &Postgres{db: db, log: log}, nil
}

func (p *Postgres) MigrateUp(migrationsDir string) error {
	return p.migrate(migrationsDir, "*.up.sql")
}

func (p *Postgres) MigrateDown(migrationsDir string) error {
	return p.migrate(migrationsDir, "*.down.sql")
}

func (p *Postgres) migrate(migrationsDir, pattern string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := p.db.Master.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	p.log.Info().Msgf("Migrations %s applied from %s", pattern, migrationsDir)
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.Master.QueryRowContext(ctx, `SELECT value FROM kv_records WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_records (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := p.db.Master.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.Master.ExecContext(ctx, `DELETE FROM kv_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Master.Close()
}
