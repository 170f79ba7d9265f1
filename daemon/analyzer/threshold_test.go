package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

func TestThresholdAnalyzerCriticalCPU(t *testing.T) {
	store := storage.New(10)
	store.Insert(types.NewSample(types.CPUUsagePercent, 96.0))

	cfg := config.ThresholdAnalyzerConfig{
		CPU: config.ThresholdConfig{WarnPercent: 80, CriticalPercent: 95},
	}
	a := NewThresholdAnalyzer("host1", cfg)

	alerts := a.Analyze(store)
	require.Len(t, alerts, 1)
	assert.Equal(t, types.Critical, alerts[0].Severity)
	assert.Equal(t, types.CPUUsagePercent, alerts[0].Metric)
	assert.Equal(t, 96.0, alerts[0].Value)
	require.NotNil(t, alerts[0].Threshold)
	assert.Equal(t, 95.0, *alerts[0].Threshold)
}

func TestThresholdAnalyzerBelowWarnEmitsNothing(t *testing.T) {
	store := storage.New(10)
	store.Insert(types.NewSample(types.CPUUsagePercent, 40.0))

	a := NewThresholdAnalyzer("host1", config.ThresholdAnalyzerConfig{
		CPU: config.ThresholdConfig{WarnPercent: 80, CriticalPercent: 95},
	})
	assert.Empty(t, a.Analyze(store))
}

func TestThresholdAnalyzerWarnSeverity(t *testing.T) {
	store := storage.New(10)
	store.Insert(types.NewSample(types.MemUsagePercent, 87.0))

	a := NewThresholdAnalyzer("host1", config.ThresholdAnalyzerConfig{
		Memory: config.ThresholdConfig{WarnPercent: 85, CriticalPercent: 95},
	})
	alerts := a.Analyze(store)
	require.Len(t, alerts, 1)
	assert.Equal(t, types.Warn, alerts[0].Severity)
}

func TestThresholdAnalyzerNoSampleSkipsMetric(t *testing.T) {
	store := storage.New(10)
	a := NewThresholdAnalyzer("host1", config.ThresholdAnalyzerConfig{
		CPU: config.ThresholdConfig{WarnPercent: 80, CriticalPercent: 95},
	})
	assert.Empty(t, a.Analyze(store))
}
