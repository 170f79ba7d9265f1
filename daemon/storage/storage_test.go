package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

func sampleWithValue(v float64) types.MetricSample {
	return types.NewSample(types.CPUUsagePercent, v)
}

func TestInsertLengthAndLatest(t *testing.T) {
	s := New(5)
	for i := 1; i <= 3; i++ {
		s.Insert(sampleWithValue(float64(i)))
	}
	latest, ok := s.Latest(types.CPUUsagePercent)
	require.True(t, ok)
	assert.Equal(t, float64(3), latest.Value)

	recent := s.Recent(types.CPUUsagePercent, 10)
	require.Len(t, recent, 3)
	assert.Equal(t, []float64{1, 2, 3}, valuesOf(recent))
}

func TestRecentEndsWithLatest(t *testing.T) {
	s := New(10)
	for i := 1; i <= 7; i++ {
		s.Insert(sampleWithValue(float64(i)))
	}
	recent := s.Recent(types.CPUUsagePercent, 4)
	latest, _ := s.Latest(types.CPUUsagePercent)
	require.NotEmpty(t, recent)
	assert.Equal(t, latest.Value, recent[len(recent)-1].Value)
}

func TestRingBufferWrapAround(t *testing.T) {
	s := New(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		s.Insert(sampleWithValue(v))
	}
	recent := s.Recent(types.CPUUsagePercent, 3)
	assert.Equal(t, []float64{3, 4, 5}, valuesOf(recent))

	latest, ok := s.Latest(types.CPUUsagePercent)
	require.True(t, ok)
	assert.Equal(t, float64(5), latest.Value)
}

func TestRecentAtExactCapacityAfterWrap(t *testing.T) {
	s := New(3)
	for _, v := range []float64{1, 2, 3, 4, 5, 6, 7} {
		s.Insert(sampleWithValue(v))
	}
	recent := s.Recent(types.CPUUsagePercent, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, []float64{5, 6, 7}, valuesOf(recent))
}

func TestLatestAbsentWhenEmpty(t *testing.T) {
	s := New(5)
	_, ok := s.Latest(types.CPUUsagePercent)
	assert.False(t, ok)
	assert.Empty(t, s.Recent(types.CPUUsagePercent, 5))
}

func TestSnapshotCoversEveryMetric(t *testing.T) {
	s := New(5)
	s.Insert(types.NewSample(types.CPUUsagePercent, 10))
	s.Insert(types.NewSample(types.MemUsagePercent, 20))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 10.0, snap[types.CPUUsagePercent].Value)
	assert.Equal(t, 20.0, snap[types.MemUsagePercent].Value)
}

func valuesOf(samples []types.MetricSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}
