package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

func TestTrendAnalyzerDiskExhaustionCritical(t *testing.T) {
	store := storage.New(500)

	const n = 400
	const totalSeconds = 6 * 3600
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n-1)
		value := 50.0 + frac*10.0
		ts := base.Add(time.Duration(frac*float64(totalSeconds)) * time.Second)
		store.Insert(types.MetricSample{Timestamp: ts, Metric: types.DiskUsagePercent, Value: value})
	}

	a := NewTrendAnalyzer("host1", config.TrendAnalyzerConfig{WindowHours: 12})
	alerts := a.Analyze(store)

	require.Len(t, alerts, 1)
	assert.Equal(t, types.DiskUsagePercent, alerts[0].Metric)
	assert.Equal(t, types.Critical, alerts[0].Severity)
}

func TestTrendAnalyzerTooFewSamplesSkips(t *testing.T) {
	store := storage.New(100)
	for i := 0; i < 10; i++ {
		store.Insert(types.NewSample(types.DiskUsagePercent, float64(50+i)))
	}
	a := NewTrendAnalyzer("host1", config.TrendAnalyzerConfig{WindowHours: 12})
	assert.Empty(t, a.Analyze(store))
}

func TestTrendAnalyzerFlatSeriesSkips(t *testing.T) {
	store := storage.New(200)
	for i := 0; i < 100; i++ {
		store.Insert(types.NewSample(types.DiskUsagePercent, 50.0))
	}
	a := NewTrendAnalyzer("host1", config.TrendAnalyzerConfig{WindowHours: 12})
	assert.Empty(t, a.Analyze(store))
}

func TestTrendAnalyzerDecreasingSeriesSkips(t *testing.T) {
	store := storage.New(200)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		store.Insert(types.MetricSample{Timestamp: ts, Metric: types.DiskUsagePercent, Value: 90.0 - float64(i)*0.1})
	}
	a := NewTrendAnalyzer("host1", config.TrendAnalyzerConfig{WindowHours: 12})
	assert.Empty(t, a.Analyze(store))
}
