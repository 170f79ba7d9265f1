package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

func TestConnectDisabledReturnsNil(t *testing.T) {
	p, err := Connect(config.NatsConfig{Enabled: false}, "host1", "1.0.0")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestNilPublisherMethodsAreNoOps(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() {
		p.TeeSample(types.NewSample(types.CPUUsagePercent, 1.0))
		p.FlushMetrics()
		p.PublishAlert(types.Alert{})
		p.PublishHeartbeat()
		p.PublishInventory()
		p.Close()
	})
}

func TestFirstModelNameParsesCPUInfo(t *testing.T) {
	cpuinfo := []byte("processor\t: 0\nmodel name\t: Example CPU @ 3.00GHz\ncache size\t: 8192 KB\n")
	assert.Equal(t, "Example CPU @ 3.00GHz", firstModelName(cpuinfo))
}

func TestFirstModelNameMissingReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", firstModelName([]byte("processor\t: 0\n")))
}
