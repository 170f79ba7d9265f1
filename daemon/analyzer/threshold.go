package analyzer

import (
	"fmt"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// thresholdTarget pairs a metric with the cut-offs configured for it.
type thresholdTarget struct {
	metric types.MetricId
	cutoff config.ThresholdConfig
}

// ThresholdAnalyzer compares the latest sample of a fixed set of
// metrics against per-metric warn/critical cut-offs. It emits at most
// one alert per metric per invocation.
type ThresholdAnalyzer struct {
	hostname string
	targets  []thresholdTarget
}

// NewThresholdAnalyzer builds a threshold analyzer for CPU, memory,
// disk and FD usage from the configured cut-offs.
func NewThresholdAnalyzer(hostname string, cfg config.ThresholdAnalyzerConfig) *ThresholdAnalyzer {
	return &ThresholdAnalyzer{
		hostname: hostname,
		targets: []thresholdTarget{
			{types.CPUUsagePercent, cfg.CPU},
			{types.MemUsagePercent, cfg.Memory},
			{types.DiskUsagePercent, cfg.Disk},
			{types.FDSystemUsagePercent, cfg.FD},
		},
	}
}

func (a *ThresholdAnalyzer) Name() string { return "threshold" }

func (a *ThresholdAnalyzer) Analyze(store *storage.Store) []types.Alert {
	var alerts []types.Alert
	for _, target := range a.targets {
		sample, ok := store.Latest(target.metric)
		if !ok {
			continue
		}

		var severity types.Severity
		var threshold float64
		switch {
		case sample.Value >= target.cutoff.CriticalPercent:
			severity, threshold = types.Critical, target.cutoff.CriticalPercent
		case sample.Value >= target.cutoff.WarnPercent:
			severity, threshold = types.Warn, target.cutoff.WarnPercent
		default:
			continue
		}

		t := threshold
		alerts = append(alerts, types.Alert{
			Timestamp: sample.Timestamp,
			Severity:  severity,
			Metric:    target.metric,
			Value:     sample.Value,
			Threshold: &t,
			Message:   fmt.Sprintf("%s at %.2f, breaching %s threshold of %.2f", target.metric, sample.Value, severity, threshold),
			Labels:    sample.Labels,
			Hostname:  a.hostname,
		})
	}
	return alerts
}
