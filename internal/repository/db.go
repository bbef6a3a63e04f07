package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ConfigFromStore maps the store section of the app config.
func ConfigFromStore(sc common.StoreConfig) Config {
	return Config{
		DSN:              sc.DSN,
		MaxConns:         sc.MaxConns,
		MinConns:         sc.MinConns,
		MaxConnLifetime:  sc.MaxConnLifetime,
		MaxConnIdleTime:  sc.MaxConnIdleTime,
		DialTimeout:      sc.DialTimeout,
		StatementTimeout: sc.StatementTimeout,
	}
}

// Open creates a pgx pool.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "interview-matrix"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return pool, nil
}

// Close closes the database connections gracefully
func Close(pool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("closing database connections")
	if pool != nil {
		pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the pool to catch DSN issues early.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// NewSessionStore opens the store selected by sc.Driver. The returned cleanup releases
// the underlying connections.
func NewSessionStore(ctx context.Context, sc common.StoreConfig, logger *slog.Logger) (SessionStore, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch sc.Driver {
	case "", "memory":
		s := NewMemoryStore()
		return s, func() {}, nil
	case "sqlite":
		s, err := OpenSQLite(ctx, sc.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("failed to close sqlite store", "error", err)
			}
		}, nil
	case "postgres":
		pool, err := Open(ctx, ConfigFromStore(sc), logger)
		if err != nil {
			return nil, nil, err
		}
		s, err := NewPostgresStore(ctx, pool, logger)
		if err != nil {
			Close(pool, logger)
			return nil, nil, err
		}
		return s, func() { Close(pool, logger) }, nil
	default:
		return nil, nil, common.NewAppError("CONFIG_ERROR", "unknown STORE_DRIVER "+sc.Driver, common.ErrConfiguration)
	}
}

// Ping checks that the configured store is reachable.
func Ping(ctx context.Context, sc common.StoreConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	switch sc.Driver {
	case "postgres":
		pool, err := Open(ctx, ConfigFromStore(sc), logger)
		if err != nil {
			return err
		}
		defer Close(pool, logger)
		return HealthCheck(ctx, pool, sc.DialTimeout, logger)
	default:
		s, cleanup, err := NewSessionStore(ctx, sc, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		_, err = s.Exists(ctx, uuid.Nil)
		return err
	}
}
