package infra

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// PoolConfig tunes the evidence pool's PostgreSQL connections. Selection
// traffic is read-heavy (one ListByTerms per request) while ingest writes
// arrive in bursts, so the defaults keep a small warm floor and a modest
// ceiling rather than sizing for sustained write load.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPoolConfig returns the engine defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        8,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 15 * time.Minute,
	}
}

// PoolConfigFromEnv layers DB_POOL_MAX_CONNS and DB_POOL_MIN_CONNS over
// the defaults. Unset or unparseable values keep the default.
func PoolConfigFromEnv() PoolConfig {
	cfg := DefaultPoolConfig()
	if v, err := strconv.Atoi(os.Getenv("DB_POOL_MAX_CONNS")); err == nil && v > 0 {
		cfg.MaxConns = int32(v)
	}
	if v, err := strconv.Atoi(os.Getenv("DB_POOL_MIN_CONNS")); err == nil && v >= 0 {
		cfg.MinConns = int32(v)
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	return cfg
}

// NewPostgresDB opens the evidence pool. Stored embeddings round-trip as
// pgvector values, so the vector codecs are registered on every new
// connection before the repository sees it.
func NewPostgresDB(ctx context.Context, dsn string, opts ...PoolConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse evidence pool dsn: %w", err)
	}

	sizing := DefaultPoolConfig()
	if len(opts) > 0 {
		sizing = opts[0]
	}
	pcfg.MaxConns = sizing.MaxConns
	pcfg.MinConns = sizing.MinConns
	pcfg.MaxConnLifetime = sizing.MaxConnLifetime
	pcfg.MaxConnIdleTime = sizing.MaxConnIdleTime

	pcfg.ConnConfig.RuntimeParams["application_name"] = "evidence-engine"
	pcfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open evidence pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("evidence pool unreachable: %w", err)
	}

	return pool, nil
}
