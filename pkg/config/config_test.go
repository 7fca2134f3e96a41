package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 50, cfg.PoolPages)
	assert.Equal(t, 4096, cfg.PageSize)
	assert.Equal(t, 10*time.Millisecond, cfg.DeadlockInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.DeadlockThreshold)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
pool_pages = 16
page_size = 8192
data_dir = "/tmp/heapdb"
deadlock_threshold_ms = 150
log_level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.PoolPages)
	assert.Equal(t, 8192, cfg.PageSize)
	assert.Equal(t, "/tmp/heapdb", cfg.DataDir)
	assert.Equal(t, 150*time.Millisecond, cfg.DeadlockThreshold)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched variables keep their defaults.
	assert.Equal(t, 10*time.Millisecond, cfg.DeadlockInterval)
}

func TestParseRejectsUnknownVariable(t *testing.T) {
	_, err := Parse([]byte(`no_such_knob = 1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a config variable")
}

func TestParseRejectsThresholdOutOfBand(t *testing.T) {
	_, err := Parse([]byte(`deadlock_threshold_ms = 50`))
	require.Error(t, err)

	_, err = Parse([]byte(`deadlock_threshold_ms = 600`))
	require.Error(t, err)
}

func TestParseRejectsBadTypes(t *testing.T) {
	_, err := Parse([]byte(`pool_pages = "lots"`))
	require.Error(t, err)
}

func TestParseRejectsNonPositiveSizes(t *testing.T) {
	_, err := Parse([]byte(`pool_pages = 0`))
	require.Error(t, err)

	_, err = Parse([]byte(`page_size = -1`))
	require.Error(t, err)
}
