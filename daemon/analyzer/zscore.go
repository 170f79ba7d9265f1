package analyzer

import (
	"fmt"
	"math"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// zscoreMinSamples is the smallest window over which a mean/stddev
// are considered meaningful.
const zscoreMinSamples = 30

// zscoreMetrics is the fixed set of metrics the z-score analyzer
// watches for statistical anomalies. These are metrics with a stable
// enough baseline that a sudden deviation is meaningful; most have no
// fixed capacity, while cpu.usage_percent is also a threshold-analyzer
// target.
var zscoreMetrics = []types.MetricId{
	types.CPUUsagePercent,
	types.CPULoad1m,
	types.NetRxBytesRate,
	types.NetTxBytesRate,
	types.DiskReadBytesRate,
	types.DiskWriteBytesRate,
}

// ZScoreAnalyzer flags a metric whose latest sample deviates from the
// recent window's mean by more than a configured number of standard
// deviations.
type ZScoreAnalyzer struct {
	hostname   string
	windowSize int
	threshold  float64
}

// NewZScoreAnalyzer builds a z-score analyzer from its configured
// window size and deviation threshold.
func NewZScoreAnalyzer(hostname string, cfg config.ZScoreAnalyzerConfig) *ZScoreAnalyzer {
	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = 360
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 3.0
	}
	return &ZScoreAnalyzer{hostname: hostname, windowSize: windowSize, threshold: threshold}
}

func (a *ZScoreAnalyzer) Name() string { return "zscore" }

func (a *ZScoreAnalyzer) Analyze(store *storage.Store) []types.Alert {
	var alerts []types.Alert
	for _, metric := range zscoreMetrics {
		samples := store.Recent(metric, a.windowSize)
		if len(samples) < zscoreMinSamples {
			continue
		}

		mean, stddev := meanAndStddev(samples)
		if stddev < 1e-10 {
			continue
		}

		latest := samples[len(samples)-1]
		z := (latest.Value - mean) / stddev
		absZ := math.Abs(z)
		if absZ <= a.threshold {
			continue
		}

		severity := types.Warn
		if absZ > 2*a.threshold {
			severity = types.Critical
		}

		alerts = append(alerts, types.Alert{
			Timestamp: latest.Timestamp,
			Severity:  severity,
			Metric:    metric,
			Value:     latest.Value,
			Message:   fmt.Sprintf("%s deviates %.2f standard deviations from its recent mean of %.2f", metric, z, mean),
			Labels:    latest.Labels,
			Hostname:  a.hostname,
		})
	}
	return alerts
}

// meanAndStddev computes the arithmetic mean and population standard
// deviation of a sample set's values.
func meanAndStddev(samples []types.MetricSample) (mean, stddev float64) {
	n := float64(len(samples))
	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	mean = sum / n

	var sqDiff float64
	for _, s := range samples {
		d := s.Value - mean
		sqDiff += d * d
	}
	stddev = math.Sqrt(sqDiff / n)
	return mean, stddev
}
