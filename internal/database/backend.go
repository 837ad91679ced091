package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/matricula/matricula/internal/config"
)

// Backend is the opened relational store. Exactly one of Pool or Gorm is set,
// depending on cfg.DatabaseDriver.
type Backend struct {
	Pool *pgxpool.Pool
	Gorm *gorm.DB
}

// Open connects to the store selected by DATABASE_DRIVER.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Backend{Pool: pool}, nil
	case config.DriverSQLite:
		db, err := NewSQLite(cfg, log)
		if err != nil {
			return nil, err
		}
		return &Backend{Gorm: db}, nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

// Close releases the underlying connections.
func (b *Backend) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
	if b.Gorm != nil {
		if sqlDB, err := b.Gorm.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// Ping checks that the store is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.Pool != nil {
		return b.Pool.Ping(ctx)
	}
	if b.Gorm != nil {
		sqlDB, err := b.Gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return fmt.Errorf("no database configured")
}
