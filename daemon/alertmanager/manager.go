// Package alertmanager deduplicates, rate-limits and fans out alerts
// produced by the analyzers and the log scanner to the configured
// delivery channels.
package alertmanager

import (
	"context"
	"sync"
	"time"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/logger"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// Channel delivers one alert to one external destination. Channels
// own their own transport (HTTP client, message-bus connection) and
// must tolerate being called concurrently with other channels, though
// never concurrently with themselves (the manager calls them
// sequentially, one alert at a time).
type Channel interface {
	Name() string
	AcceptsSeverity(sev types.Severity) bool
	Send(ctx context.Context, alert types.Alert) error
}

// dedupEntry tracks the last time a (metric, severity) pair was sent
// and how many alerts for that pair have been received since the first
// delivery, counting delivered and dedup-suppressed alerts alike.
type dedupEntry struct {
	lastSent time.Time
	count    int
}

// tokenBucket is a continuous-refill rate limiter: tokens accumulate
// as a real-valued quantity, proportional to elapsed monotonic time,
// rather than in discrete per-tick increments. Adapted from the
// discrete-tick bucket the host repository used for its (now-dropped)
// HTTP operation rate limiter.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(maxTokens, refillPerSec float64) *tokenBucket {
	return &tokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillPerSec,
		lastRefill: time.Now(),
	}
}

// tryConsume refills the bucket based on elapsed time since the last
// call, then attempts to take one token.
func (b *tokenBucket) tryConsume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min64(b.maxTokens, b.tokens+elapsed*b.refillRate)
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Manager owns the dedup map and token bucket exclusively. The
// pipeline calls it from a single goroutine (the alert consumer task);
// mu still guards the dedup map and the token bucket carries its own
// lock, so calls from other goroutines are safe as well.
type Manager struct {
	hostname    string
	dedupWindow time.Duration
	bucket      *tokenBucket
	channels    []Channel

	dedup map[types.DedupKey]*dedupEntry

	mu sync.Mutex
}

// New builds an alert manager with the configured dedup window and
// rate limit, fanning out to the given channels.
func New(hostname string, cfg config.AlertingConfig, channels []Channel) *Manager {
	dedupWindow := time.Duration(cfg.DedupWindowSecs) * time.Second
	if dedupWindow <= 0 {
		dedupWindow = 300 * time.Second
	}
	rateLimit := float64(cfg.RateLimitPerMinute)
	if rateLimit <= 0 {
		rateLimit = 10
	}

	return &Manager{
		hostname:    hostname,
		dedupWindow: dedupWindow,
		bucket:      newTokenBucket(rateLimit, rateLimit/60.0),
		channels:    channels,
		dedup:       make(map[types.DedupKey]*dedupEntry),
	}
}

// Dispatch applies dedup and rate-limit policy to alert, then fans it
// out to every channel whose severity filter accepts it. Per-channel
// delivery failures are logged and never short-circuit the remaining
// channels.
func (m *Manager) Dispatch(ctx context.Context, alert types.Alert) {
	key := types.DedupKey{Metric: alert.Metric, Severity: alert.Severity}

	m.mu.Lock()
	entry, seen := m.dedup[key]
	suppressed := alert.Severity < types.Emergency && seen && time.Since(entry.lastSent) < m.dedupWindow
	if suppressed {
		entry.count++
		m.mu.Unlock()
		logger.Component("alertmanager").Debug().
			Str("metric", alert.Metric.String()).
			Str("severity", alert.Severity.String()).
			Int("suppressed_count", entry.count).
			Msg("alert suppressed by dedup window")
		return
	}
	m.mu.Unlock()

	if alert.Severity < types.Emergency && !m.bucket.tryConsume() {
		logger.Component("alertmanager").Warn().
			Str("metric", alert.Metric.String()).
			Str("severity", alert.Severity.String()).
			Msg("alert dropped, rate limit exceeded")
		return
	}

	m.fanOut(ctx, alert)

	m.mu.Lock()
	if entry == nil {
		entry = &dedupEntry{}
		m.dedup[key] = entry
	}
	entry.lastSent = time.Now()
	entry.count++
	m.mu.Unlock()
}

func (m *Manager) fanOut(ctx context.Context, alert types.Alert) {
	for _, ch := range m.channels {
		if !ch.AcceptsSeverity(alert.Severity) {
			continue
		}
		if err := ch.Send(ctx, alert); err != nil {
			logger.Component("alertmanager").Error().
				Err(err).
				Str("channel", ch.Name()).
				Str("metric", alert.Metric.String()).
				Msg("channel delivery failed")
		}
	}
}

// DedupCount returns how many alerts for a (metric, severity) pair
// have been delivered or suppressed by dedup, for tests and
// diagnostics.
func (m *Manager) DedupCount(metric types.MetricId, severity types.Severity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.dedup[types.DedupKey{Metric: metric, Severity: severity}]; ok {
		return e.count
	}
	return 0
}
