package collector

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

// FDCollector reads the kernel's global open-file-descriptor counters.
type FDCollector struct {
	interval int
}

func NewFDCollector(intervalSeconds int) *FDCollector {
	return &FDCollector{interval: intervalSeconds}
}

func (c *FDCollector) Name() string         { return "fd" }
func (c *FDCollector) IntervalSeconds() int { return c.interval }

func (c *FDCollector) Collect(ctx context.Context) ([]types.MetricSample, error) {
	used, _, max, err := readFileNr()
	if err != nil {
		return nil, fmt.Errorf("fd: read /proc/sys/fs/file-nr: %w", err)
	}
	if max == 0 {
		return nil, fmt.Errorf("fd: max file descriptors reported as 0")
	}
	pct := clampPercent(100 * float64(used) / float64(max))
	return []types.MetricSample{types.NewSample(types.FDSystemUsagePercent, pct)}, nil
}

// readFileNr parses /proc/sys/fs/file-nr, three whitespace-separated
// integers: allocated, free (historically unused, 0 on modern
// kernels), and max.
func readFileNr() (used, free, max uint64, err error) {
	data, err := os.ReadFile("/proc/sys/fs/file-nr")
	if err != nil {
		return 0, 0, 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return 0, 0, 0, fmt.Errorf("unexpected /proc/sys/fs/file-nr format")
	}
	used, err1 := strconv.ParseUint(fields[0], 10, 64)
	free, err2 := strconv.ParseUint(fields[1], 10, 64)
	max, err3 := strconv.ParseUint(fields[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, fmt.Errorf("malformed /proc/sys/fs/file-nr fields")
	}
	return used, free, max, nil
}
