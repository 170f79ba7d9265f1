package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

func TestZScoreAnalyzerSpike(t *testing.T) {
	store := storage.New(200)
	for i := 0; i < 100; i++ {
		store.Insert(types.NewSample(types.CPUUsagePercent, 10.0))
	}
	store.Insert(types.NewSample(types.CPUUsagePercent, 50.0))

	a := NewZScoreAnalyzer("host1", config.ZScoreAnalyzerConfig{WindowSize: 200, Threshold: 3.0})
	alerts := a.Analyze(store)

	require.Len(t, alerts, 1)
	assert.Equal(t, types.Critical, alerts[0].Severity)
	assert.Equal(t, types.CPUUsagePercent, alerts[0].Metric)
}

func TestZScoreAnalyzerInsufficientSamplesSkips(t *testing.T) {
	store := storage.New(200)
	for i := 0; i < 10; i++ {
		store.Insert(types.NewSample(types.CPUUsagePercent, 10.0))
	}
	a := NewZScoreAnalyzer("host1", config.ZScoreAnalyzerConfig{WindowSize: 200, Threshold: 3.0})
	assert.Empty(t, a.Analyze(store))
}

func TestZScoreAnalyzerZeroVarianceSkips(t *testing.T) {
	store := storage.New(200)
	for i := 0; i < 50; i++ {
		store.Insert(types.NewSample(types.CPUUsagePercent, 42.0))
	}
	a := NewZScoreAnalyzer("host1", config.ZScoreAnalyzerConfig{WindowSize: 200, Threshold: 3.0})
	assert.Empty(t, a.Analyze(store))
}
