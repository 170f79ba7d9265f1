package collector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ecmoce/sysops-agent/daemon/logger"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// cpuStat holds the raw jiffie counters for one /proc/stat line
// (the aggregate "cpu" line or a single "cpuN" line).
type cpuStat struct {
	user, nice, system, idle, iowait, irq, softirq, steal uint64
}

func (s cpuStat) total() uint64 {
	return s.user + s.nice + s.system + s.idle + s.iowait + s.irq + s.softirq + s.steal
}

func (s cpuStat) idleTotal() uint64 {
	return s.idle + s.iowait
}

func parseCPUStatLine(fields []string) (cpuStat, error) {
	// fields[0] is the "cpu"/"cpuN" label; fields[1:] are jiffie counts.
	vals := make([]uint64, 8)
	for i := 0; i < len(vals); i++ {
		if i+1 >= len(fields) {
			break
		}
		v, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return cpuStat{}, fmt.Errorf("parse field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return cpuStat{
		user: vals[0], nice: vals[1], system: vals[2], idle: vals[3],
		iowait: vals[4], irq: vals[5], softirq: vals[6], steal: vals[7],
	}, nil
}

// CPUCollector computes CPU usage, iowait, steal and per-core
// breakdowns from successive snapshots of /proc/stat, plus load
// averages from /proc/loadavg.
//
// The per-core label assigns core=<i> using the zero-based position
// of each cpuN line as it appears in /proc/stat (aggregate line
// first, then cpu0, cpu1, ... in file order). iowait% and steal% are
// both computed as delta-over-delta-total, consistent with the
// overall usage percentage, rather than against a cumulative total.
type CPUCollector struct {
	interval int
	perCore  bool

	havePrev bool
	prevAggr cpuStat
	prevCore []cpuStat
}

// NewCPUCollector constructs a CPU collector with the given cadence.
func NewCPUCollector(intervalSeconds int, perCore bool) *CPUCollector {
	return &CPUCollector{interval: intervalSeconds, perCore: perCore}
}

func (c *CPUCollector) Name() string          { return "cpu" }
func (c *CPUCollector) IntervalSeconds() int  { return c.interval }

func (c *CPUCollector) Collect(ctx context.Context) ([]types.MetricSample, error) {
	aggr, cores, err := readProcStat()
	if err != nil {
		return nil, fmt.Errorf("cpu: read /proc/stat: %w", err)
	}

	var samples []types.MetricSample

	if c.havePrev {
		if s, ok := usagePercent(c.prevAggr, aggr); ok {
			samples = append(samples, types.NewSample(types.CPUUsagePercent, s))
		}
		if s, ok := deltaPercent(c.prevAggr.iowait, aggr.iowait, c.prevAggr.total(), aggr.total()); ok {
			samples = append(samples, types.NewSample(types.CPUIowaitPercent, s))
		}
		if s, ok := deltaPercent(c.prevAggr.steal, aggr.steal, c.prevAggr.total(), aggr.total()); ok {
			samples = append(samples, types.NewSample(types.CPUStealPercent, s))
		}

		if c.perCore && len(c.prevCore) == len(cores) {
			for i, cur := range cores {
				prev := c.prevCore[i]
				if s, ok := usagePercent(prev, cur); ok {
					samples = append(samples, types.NewSample(
						types.CPUUsagePerCore, s,
						types.Label{Key: "core", Value: strconv.Itoa(i)},
					))
				}
			}
		}
	} else {
		logger.Component("collector.cpu").Debug().Msg("first collection cycle, no baseline yet")
	}

	c.prevAggr = aggr
	c.prevCore = cores
	c.havePrev = true

	loads, err := readLoadAvg()
	if err != nil {
		logger.Component("collector.cpu").Warn().Err(err).Msg("failed to read /proc/loadavg")
	} else {
		samples = append(samples,
			types.NewSample(types.CPULoad1m, loads[0]),
			types.NewSample(types.CPULoad5m, loads[1]),
			types.NewSample(types.CPULoad15m, loads[2]),
		)
	}

	return samples, nil
}

// usagePercent returns 100 * (1 - Δidle/Δtotal), or false if Δtotal <= 0.
func usagePercent(prev, cur cpuStat) (float64, bool) {
	dTotal := diff(prev.total(), cur.total())
	dIdle := diff(prev.idleTotal(), cur.idleTotal())
	if dTotal == 0 {
		return 0, false
	}
	pct := 100 * (1 - float64(dIdle)/float64(dTotal))
	return clampPercent(pct), true
}

// deltaPercent returns 100 * Δfield/Δtotal, or false if Δtotal <= 0.
func deltaPercent(prevField, curField, prevTotal, curTotal uint64) (float64, bool) {
	dTotal := diff(prevTotal, curTotal)
	if dTotal == 0 {
		return 0, false
	}
	dField := diff(prevField, curField)
	return clampPercent(100 * float64(dField) / float64(dTotal)), true
}

func diff(prev, cur uint64) uint64 {
	if cur < prev {
		return 0 // counter reset; treat as no movement this interval
	}
	return cur - prev
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func readProcStat() (aggregate cpuStat, cores []cpuStat, err error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return cpuStat{}, nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	haveAggr := false
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[0] == "cpu" {
			stat, perr := parseCPUStatLine(fields)
			if perr != nil {
				continue // malformed line, skip
			}
			aggregate = stat
			haveAggr = true
			continue
		}
		if strings.HasPrefix(fields[0], "cpu") {
			stat, perr := parseCPUStatLine(fields)
			if perr != nil {
				continue
			}
			cores = append(cores, stat)
		}
	}
	if err := scanner.Err(); err != nil {
		return cpuStat{}, nil, err
	}
	if !haveAggr {
		return cpuStat{}, nil, fmt.Errorf("no aggregate cpu line found")
	}
	return aggregate, cores, nil
}

func readLoadAvg() ([3]float64, error) {
	var out [3]float64
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return out, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return out, fmt.Errorf("unexpected /proc/loadavg format")
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
