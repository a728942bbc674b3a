package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Fanout.MaxItems)
	assert.Equal(t, 800, cfg.Fanout.PersonalMaxItems)
	assert.Equal(t, 14*24*time.Hour, cfg.Fanout.BroadcastCutoff)
	assert.Equal(t, 5*time.Minute, cfg.Fanout.LockTTL)
	assert.Equal(t, 4, cfg.Jobs.Workers)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_FANOUT_MAX_ITEMS", "50")
	t.Setenv("APP_DATABASE_DRIVER", "sqlite")
	t.Setenv("APP_REDIS_ADDRS", "10.0.0.1:6379,10.0.0.2:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Fanout.MaxItems)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, []string{"10.0.0.1:6379", "10.0.0.2:6379"}, cfg.Redis.Addrs)
}
