package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricIdStringBijection(t *testing.T) {
	for id := CPUUsagePercent; id < metricIdCount; id++ {
		s := id.String()
		require.NotEqual(t, "unknown", s, "metric id %d has no wire string", id)

		parsed, ok := ParseMetricId(s)
		require.True(t, ok, "round-trip parse failed for %q", s)
		assert.Equal(t, id, parsed)
	}
}

func TestMetricIdUnknownString(t *testing.T) {
	_, ok := ParseMetricId("bogus.metric")
	assert.False(t, ok)
	assert.Equal(t, "unknown", MetricId(9999).String())
}

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, Info < Warn)
	assert.True(t, Warn < Critical)
	assert.True(t, Critical < Emergency)
}

func TestSampleJSONRoundTrip(t *testing.T) {
	want := NewSample(DiskUsagePercent, 73.5, Label{Key: "mountpoint", Value: "/"}, Label{Key: "fstype", Value: "ext4"})
	want.Timestamp = want.Timestamp.Truncate(time.Millisecond)

	data, err := json.Marshal(want)
	require.NoError(t, err)

	var got MetricSample
	require.NoError(t, json.Unmarshal(data, &got))

	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, want.Metric, got.Metric)
	assert.Equal(t, want.Value, got.Value)
	assert.Equal(t, want.Labels, got.Labels)
}

func TestSampleLabelBound(t *testing.T) {
	s := NewSample(ProcFDCount, 1,
		Label{Key: "a", Value: "1"},
		Label{Key: "b", Value: "2"},
		Label{Key: "c", Value: "3"},
		Label{Key: "d", Value: "4"},
		Label{Key: "e", Value: "5"},
	)
	assert.Len(t, s.Labels, 4)
}

func TestAlertJSONRoundTrip(t *testing.T) {
	threshold := 95.0
	want := Alert{
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		Severity:  Critical,
		Metric:    CPUUsagePercent,
		Value:     96.0,
		Threshold: &threshold,
		Message:   "cpu usage critical",
		Hostname:  "box01",
	}

	data, err := json.Marshal(want)
	require.NoError(t, err)

	var got Alert
	require.NoError(t, json.Unmarshal(data, &got))

	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, want.Severity, got.Severity)
	assert.Equal(t, want.Metric, got.Metric)
	assert.Equal(t, want.Value, got.Value)
	require.NotNil(t, got.Threshold)
	assert.Equal(t, *want.Threshold, *got.Threshold)
	assert.Equal(t, want.Message, got.Message)
	assert.Equal(t, want.Hostname, got.Hostname)
}
