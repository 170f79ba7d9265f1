package analyzer

import (
	"fmt"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// trendMinSamples is the smallest window a regression is trusted over.
const trendMinSamples = 60

// samplesPerHour assumes the 10-second collection cadence §4.3 bases
// its window-to-sample-count conversion on.
const samplesPerHour = 360

// capacityLimit is the value a capacity-bounded percentage metric
// reaches at full exhaustion.
const capacityLimit = 100.0

// trendTarget is one capacity-bounded metric the trend analyzer
// projects toward exhaustion, with its own warn/critical horizons.
type trendTarget struct {
	metric    types.MetricId
	hoursWarn float64
	hoursCrit float64
}

var trendTargets = []trendTarget{
	{types.DiskUsagePercent, 72, 24},
	{types.MemUsagePercent, 12, 6},
	{types.FDSystemUsagePercent, 24, 6},
}

// TrendAnalyzer fits a linear regression over recent history of each
// capacity-bounded metric and emits an alert when the projected time
// to exhaustion falls inside the metric's warn/critical horizon.
type TrendAnalyzer struct {
	hostname    string
	windowHours int
}

// NewTrendAnalyzer builds a trend analyzer from its configured
// lookback window.
func NewTrendAnalyzer(hostname string, cfg config.TrendAnalyzerConfig) *TrendAnalyzer {
	windowHours := cfg.WindowHours
	if windowHours <= 0 {
		windowHours = 12
	}
	return &TrendAnalyzer{hostname: hostname, windowHours: windowHours}
}

func (a *TrendAnalyzer) Name() string { return "trend" }

func (a *TrendAnalyzer) Analyze(store *storage.Store) []types.Alert {
	windowSize := a.windowHours * samplesPerHour

	var alerts []types.Alert
	for _, target := range trendTargets {
		samples := store.Recent(target.metric, windowSize)
		if len(samples) < trendMinSamples {
			continue
		}

		fit, ok := fitLinear(samples)
		if !ok || fit.slope <= 0 || fit.rSquared < 0.5 {
			continue
		}

		current := samples[len(samples)-1].Value
		if current >= capacityLimit {
			continue
		}

		slopePerHour := fit.slope * 3600
		hoursToExhaustion := (capacityLimit - current) / slopePerHour
		if hoursToExhaustion > target.hoursWarn {
			continue
		}

		severity := types.Warn
		if hoursToExhaustion <= target.hoursCrit {
			severity = types.Critical
		}

		alerts = append(alerts, types.Alert{
			Timestamp: samples[len(samples)-1].Timestamp,
			Severity:  severity,
			Metric:    target.metric,
			Value:     current,
			Message: fmt.Sprintf("%s projected to reach %.0f%% in %.1f hours (R²=%.2f)",
				target.metric, capacityLimit, hoursToExhaustion, fit.rSquared),
			Labels:   samples[len(samples)-1].Labels,
			Hostname: a.hostname,
		})
	}
	return alerts
}
