package logscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

func matchLine(t *testing.T, s *Scanner, line string) (types.Severity, bool) {
	t.Helper()
	for _, p := range s.patterns {
		if p.re.MatchString(line) {
			return p.severity, true
		}
	}
	return 0, false
}

func TestBuiltinPatternsMatchKnownLines(t *testing.T) {
	s := New("host1", config.LogConfig{})

	cases := []struct {
		line string
		want types.Severity
	}{
		{"Out of memory: Killed process 1234 (python3)", types.Critical},
		{"mce: [Hardware Error]: CPU 0: Machine Check Exception", types.Critical},
		{"EDAC MC0: 1 CE memory read error", types.Critical},
		{"EXT4-fs error (device sda1): ext4_find_entry", types.Warn},
		{"INFO: task kworker/0:1:123 blocked for more than 120 seconds", types.Warn},
		{"eth0: Link is Down", types.Warn},
	}
	for _, c := range cases {
		sev, ok := matchLine(t, s, c.line)
		require.True(t, ok, "expected a match for %q", c.line)
		assert.Equal(t, c.want, sev)
	}
}

func TestBuiltinPatternsIgnoreUnrelatedLines(t *testing.T) {
	s := New("host1", config.LogConfig{})
	_, ok := matchLine(t, s, "systemd[1]: Started Daily apt download activities.")
	assert.False(t, ok)
}

func TestCustomPatternWiredIn(t *testing.T) {
	s := New("host1", config.LogConfig{
		CustomPatterns: []config.LogPattern{
			{Name: "raid_degraded", Pattern: `md.*degraded`, Severity: "critical"},
		},
	})
	sev, ok := matchLine(t, s, "md0: array degraded")
	require.True(t, ok)
	assert.Equal(t, types.Critical, sev)
}

func TestInvalidCustomPatternSkipped(t *testing.T) {
	s := New("host1", config.LogConfig{
		CustomPatterns: []config.LogPattern{
			{Name: "bad", Pattern: `[`, Severity: "warn"},
		},
	})
	for _, p := range s.patterns {
		assert.NotEqual(t, "bad", p.name)
	}
}
