package infra_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"evidence-engine/internal/infra"
)

func TestPoolConfigFromEnv(t *testing.T) {
	t.Run("defaults without env", func(t *testing.T) {
		t.Setenv("DB_POOL_MAX_CONNS", "")
		t.Setenv("DB_POOL_MIN_CONNS", "")

		cfg := infra.PoolConfigFromEnv()

		assert.Equal(t, int32(8), cfg.MaxConns)
		assert.Equal(t, int32(2), cfg.MinConns)
		assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
		assert.Equal(t, 15*time.Minute, cfg.MaxConnIdleTime)
	})

	t.Run("env overrides sizing", func(t *testing.T) {
		t.Setenv("DB_POOL_MAX_CONNS", "20")
		t.Setenv("DB_POOL_MIN_CONNS", "5")

		cfg := infra.PoolConfigFromEnv()

		assert.Equal(t, int32(20), cfg.MaxConns)
		assert.Equal(t, int32(5), cfg.MinConns)
	})

	t.Run("floor is clamped to the ceiling", func(t *testing.T) {
		t.Setenv("DB_POOL_MAX_CONNS", "4")
		t.Setenv("DB_POOL_MIN_CONNS", "9")

		cfg := infra.PoolConfigFromEnv()

		assert.Equal(t, int32(4), cfg.MaxConns)
		assert.Equal(t, int32(4), cfg.MinConns)
	})

	t.Run("unparseable values keep defaults", func(t *testing.T) {
		t.Setenv("DB_POOL_MAX_CONNS", "many")
		t.Setenv("DB_POOL_MIN_CONNS", "-3")

		cfg := infra.PoolConfigFromEnv()

		assert.Equal(t, int32(8), cfg.MaxConns)
		assert.Equal(t, int32(2), cfg.MinConns)
	})
}
