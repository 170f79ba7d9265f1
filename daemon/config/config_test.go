package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvSubstitutesAndBlanksMissing(t *testing.T) {
	t.Setenv("SYSOPS_TEST_VAR", "hello")
	in := []byte(`endpoint = "${SYSOPS_TEST_VAR}/x?k=${SYSOPS_MISSING_VAR}"`)
	out := expandEnv(in)
	assert.Equal(t, `endpoint = "hello/x?k="`, string(out))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Storage.RingBufferSize, cfg.Storage.RingBufferSize)
}

func TestLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[agent]
hostname = "testhost"
data_dir = "/tmp/sysops-agent"

[storage]
ring_buffer_size = 100

[alerting]
dedup_window_secs = 60
rate_limit_per_minute = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testhost", cfg.Agent.Hostname)
	assert.Equal(t, 100, cfg.Storage.RingBufferSize)
	assert.Equal(t, 60, cfg.Alerting.DedupWindowSecs)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "not-a-level"
	assert.Error(t, Validate(cfg))
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}
