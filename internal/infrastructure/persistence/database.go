package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/infrastructure/persistence/tenant"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	slowQueryThreshold = 200 * time.Millisecond
	connectTimeout     = 10 * time.Second
)

// Database is the PostgreSQL pool shared by every repository
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the pool, sizes it from cfg and waits for the first ping.
// Tenant-scoped models get the tenant guard callback.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, log *zap.Logger, logLevel gormlogger.LogLevel) (*Database, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(log, logLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	d := &Database{DB: gdb}

	pool, err := d.pool()
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := tenant.NewCallback(tenant.DefaultColumn, false).Register(gdb); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to register tenant callback: %w", err)
	}
	return d, nil
}

// GormConfig is shared by the server and repository tests.
// TranslateError turns unique violations into gorm.ErrDuplicatedKey.
func GormConfig(log *zap.Logger, logLevel gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.NewGormLogger(log, logLevel, slowQueryThreshold),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

func (d *Database) pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return pool, nil
}

// PingContext checks the connection; it backs the health endpoint
func (d *Database) PingContext(ctx context.Context) error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Close closes every pooled connection
func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}
