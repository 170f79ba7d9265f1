package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

func TestReadMemInfoHasRequiredFields(t *testing.T) {
	fields, err := readMemInfo()
	assert.NoError(t, err)
	assert.Greater(t, fields["MemTotal"], 0.0)
}

func TestMemoryCollectorFallsBackWithoutMemAvailable(t *testing.T) {
	fields := map[string]float64{
		"MemTotal": 1000,
		"MemFree":  200,
		"Buffers":  50,
		"Cached":   100,
	}
	assert.Equal(t, 350.0, availableBytes(fields))
}

func TestMemoryCollectorCollectsLiveHost(t *testing.T) {
	c := NewMemoryCollector(10)
	samples, err := c.Collect(nil)
	assert.NoError(t, err)
	assert.NotEmpty(t, samples)
	assert.Equal(t, types.MemUsagePercent, samples[0].Metric)
}
