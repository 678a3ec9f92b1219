package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
)

type Options struct {
	Driver string
	DSN    string

	// postgres
	SlaveDSNs       []string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string

	// mongo
	Database   string
	Collection string
}

// Open connects the backend selected by opts.Driver.
func Open(ctx context.Context, opts Options, log *zerolog.Logger) (Store, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(ctx, opts.DSN)
	case DriverPostgres:
		db, err := dbpg.New(opts.DSN, opts.SlaveDSNs, &dbpg.Options{
			MaxOpenConns:    opts.MaxOpenConns,
			MaxIdleConns:    opts.MaxIdleConns,
			ConnMaxLifetime: opts.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		pg, err := NewPostgres(db, log)
		if err != nil {
			return nil, err
		}
		if opts.MigrationsDir != "" {
			if err := pg.MigrateUp(opts.MigrationsDir); err != nil {
				return nil, fmt.Errorf("migration failed: %w", err)
			}
		}
		return pg, nil
	case DriverMongo:
		return NewMongo(ctx, opts.DSN, opts.Database, opts.Collection)
	case DriverMySQL:
		return NewMySQL(opts.DSN)
	default:
		return nil, unsupported(opts.Driver)
	}
}
