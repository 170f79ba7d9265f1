package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsagePercentWithinBounds(t *testing.T) {
	prev := cpuStat{user: 100, idle: 900}
	cur := cpuStat{user: 200, idle: 1700}
	pct, ok := usagePercent(prev, cur)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, pct, 0.0)
	assert.LessOrEqual(t, pct, 100.0)
}

func TestUsagePercentNoBaselineWhenTotalUnchanged(t *testing.T) {
	s := cpuStat{user: 10, idle: 20}
	_, ok := usagePercent(s, s)
	assert.False(t, ok)
}

func TestDeltaPercentIowaitSteal(t *testing.T) {
	prev := cpuStat{user: 100, idle: 800, iowait: 50, steal: 10}
	cur := cpuStat{user: 150, idle: 850, iowait: 70, steal: 20}

	iowaitPct, ok := deltaPercent(prev.iowait, cur.iowait, prev.total(), cur.total())
	assert.True(t, ok)
	assert.InDelta(t, 100*float64(20)/float64(cur.total()-prev.total()), iowaitPct, 0.001)

	stealPct, ok := deltaPercent(prev.steal, cur.steal, prev.total(), cur.total())
	assert.True(t, ok)
	assert.InDelta(t, 100*float64(10)/float64(cur.total()-prev.total()), stealPct, 0.001)
}

func TestCounterResetTreatedAsNoMovement(t *testing.T) {
	assert.Equal(t, uint64(0), diff(500, 100))
}

func TestParseCPUStatLine(t *testing.T) {
	stat, err := parseCPUStatLine([]string{"cpu0", "100", "0", "50", "900", "10", "0", "0", "5"})
	assert.NoError(t, err)
	assert.Equal(t, uint64(100), stat.user)
	assert.Equal(t, uint64(900), stat.idle)
	assert.Equal(t, uint64(10), stat.iowait)
	assert.Equal(t, uint64(5), stat.steal)
}
