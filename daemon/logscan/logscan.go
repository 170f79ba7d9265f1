// Package logscan watches the kernel ring buffer for error-severity
// lines and turns matches into alerts, bypassing the ring-buffer
// store entirely: it is a second alert producer alongside the
// analyzer ticker, not a collector.
package logscan

import (
	"regexp"
	"time"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/lib"
	"github.com/ecmoce/sysops-agent/daemon/logger"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// pattern is one compiled rule matched against each dmesg line.
type pattern struct {
	name     string
	re       *regexp.Regexp
	severity types.Severity
	message  string
}

// builtinPatterns covers the error classes §10.6 names: OOM kill,
// hardware/MCE/ECC/EDAC errors, filesystem errors, hung tasks, and
// network link-down events.
func builtinPatterns() []pattern {
	return []pattern{
		{name: "oom_kill", re: regexp.MustCompile(`(?i)out of memory|oom[-_ ]kill`), severity: types.Critical, message: "out-of-memory kill detected"},
		{name: "hardware_error", re: regexp.MustCompile(`(?i)\bmce\b|machine check|hardware error`), severity: types.Critical, message: "hardware machine-check error detected"},
		{name: "ecc_edac_error", re: regexp.MustCompile(`(?i)\bedac\b|ecc error|uncorrectable error`), severity: types.Critical, message: "memory ECC/EDAC error detected"},
		{name: "filesystem_error", re: regexp.MustCompile(`(?i)ext4-fs error|xfs.*corruption|i/o error`), severity: types.Warn, message: "filesystem error detected"},
		{name: "hung_task", re: regexp.MustCompile(`(?i)hung_task|blocked for more than`), severity: types.Warn, message: "hung kernel task detected"},
		{name: "link_down", re: regexp.MustCompile(`(?i)link is down|nic link is down`), severity: types.Warn, message: "network link down detected"},
	}
}

// Scanner runs dmesg on a fixed cadence and matches each line against
// its compiled pattern set.
type Scanner struct {
	hostname string
	patterns []pattern
}

// New builds a log scanner from the built-in pattern set plus any
// custom patterns named in configuration.
func New(hostname string, cfg config.LogConfig) *Scanner {
	patterns := builtinPatterns()
	for _, custom := range cfg.CustomPatterns {
		sev, ok := types.ParseSeverity(custom.Severity)
		if !ok {
			logger.Component("logscan").Warn().Str("pattern", custom.Name).Str("severity", custom.Severity).Msg("unrecognized severity, skipping custom pattern")
			continue
		}
		re, err := regexp.Compile(custom.Pattern)
		if err != nil {
			logger.Component("logscan").Warn().Err(err).Str("pattern", custom.Name).Msg("invalid custom pattern regex, skipping")
			continue
		}
		patterns = append(patterns, pattern{name: custom.Name, re: re, severity: sev, message: custom.Name})
	}
	return &Scanner{hostname: hostname, patterns: patterns}
}

// Scan runs one dmesg pass and returns one alert per matched line.
// dmesg itself failing (not installed, permission denied) is logged
// and yields no alerts for this cycle; it is not fatal.
func (s *Scanner) Scan() []types.Alert {
	var alerts []types.Alert
	var lines []string

	lib.SafeShellEx("dmesg", func(line string) { lines = append(lines, line) },
		"--time-format=iso", "--level=err,crit,alert,emerg")

	now := time.Now().UTC()
	for _, line := range lines {
		for _, p := range s.patterns {
			if !p.re.MatchString(line) {
				continue
			}
			alerts = append(alerts, types.Alert{
				Timestamp: now,
				Severity:  p.severity,
				Metric:    types.KernelLogEvent,
				Message:   p.message + ": " + line,
				Hostname:  s.hostname,
			})
			break // one alert per line, first matching pattern wins
		}
	}
	return alerts
}
