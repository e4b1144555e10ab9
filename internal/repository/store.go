// Package repository opens the configured storage backend.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"statusboard/internal/config"
	"statusboard/internal/domain/repositories"
	spRepo "statusboard/internal/domain/repositories/statuspage"
	"statusboard/internal/repository/postgres"
	pgStatusPage "statusboard/internal/repository/postgres/statuspage"
	"statusboard/internal/repository/sqlite"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the repositories of one backend with its maintenance operations
type Store struct {
	StatusPages spRepo.StatusPageRepository
	TxManager   repositories.TransactionManager

	driver string
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	prefix string
	db     *sql.DB
}

// Open connects to the backend named by cfg.DatabaseDriver
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		logger.Info("database connected",
			"driver", cfg.DatabaseDriver,
			"max_conns", cfg.DBMaxConns,
			"min_conns", cfg.DBMinConns,
			"table_prefix", cfg.TablePrefix,
		)
		return &Store{
			StatusPages: pgStatusPage.NewStatusPageRepository(repoConfig),
			TxManager:   postgres.NewTransactionManager(pool, logger),
			driver:      cfg.DatabaseDriver,
			pool:        pool,
			tables:      tables,
			prefix:      cfg.TablePrefix,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected", "driver", cfg.DatabaseDriver, "path", cfg.DatabaseURL)
		return &Store{
			StatusPages: sqlite.NewStatusPageRepository(db),
			TxManager:   sqlite.NewTransactionManager(db),
			driver:      cfg.DatabaseDriver,
			db:          db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// EnsureSchema creates missing tables
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.pool != nil {
		return postgres.RunSchema(ctx, s.pool, s.tables, s.prefix)
	}
	return sqlite.RunSchema(ctx, s.db)
}

// DropAll drops every status page table
func (s *Store) DropAll(ctx context.Context) error {
	if s.pool != nil {
		return postgres.DropAllTables(ctx, s.pool, s.tables)
	}
	return sqlite.DropAllTables(ctx, s.db)
}

// Clear deletes all status pages and their layouts, keeping the schema
func (s *Store) Clear(ctx context.Context) error {
	if s.pool != nil {
		return postgres.ClearData(ctx, s.pool, s.tables)
	}
	return sqlite.ClearData(ctx, s.db)
}

// Driver names the backend in use
func (s *Store) Driver() string {
	return s.driver
}

// Close releases the underlying connections
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
