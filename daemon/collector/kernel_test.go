package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadUptimeSecsPositive(t *testing.T) {
	uptime, err := readUptimeSecs()
	assert.NoError(t, err)
	assert.Greater(t, uptime, 0.0)
}
