package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFDCollectorReadsLiveProcFile(t *testing.T) {
	used, free, max, err := readFileNr()
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, max, used)
	_ = free
}
