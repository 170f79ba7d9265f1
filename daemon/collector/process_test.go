package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

func TestProcessCollectorDisabledTopNOnlyEmitsCount(t *testing.T) {
	c := NewProcessCollector(30, 0)
	samples, err := c.Collect(nil)
	assert.NoError(t, err)
	assert.Len(t, samples, 1)
	assert.Equal(t, types.ProcCount, samples[0].Metric) // sanity: proc.count present
}

func TestListPIDsFindsSelf(t *testing.T) {
	pids, err := listPIDs()
	assert.NoError(t, err)
	assert.NotEmpty(t, pids)
}
