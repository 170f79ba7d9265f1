package collector

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

// KernelCollector reads a couple of low-cost kernel-wide gauges that
// don't fit neatly under any other collector.
type KernelCollector struct {
	interval int
}

func NewKernelCollector(intervalSeconds int) *KernelCollector {
	return &KernelCollector{interval: intervalSeconds}
}

func (c *KernelCollector) Name() string         { return "kernel" }
func (c *KernelCollector) IntervalSeconds() int { return c.interval }

func (c *KernelCollector) Collect(ctx context.Context) ([]types.MetricSample, error) {
	var samples []types.MetricSample

	if entropy, err := readUintFile("/proc/sys/kernel/random/entropy_avail"); err == nil {
		samples = append(samples, types.NewSample(types.KernelEntropyAvailable, float64(entropy)))
	}

	if uptime, err := readUptimeSecs(); err == nil {
		samples = append(samples, types.NewSample(types.KernelUptimeSecs, uptime))
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("kernel: no metrics could be read")
	}
	return samples, nil
}

func readUintFile(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}

func readUptimeSecs() (float64, error) {
	data, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("unexpected /proc/uptime format")
	}
	return strconv.ParseFloat(fields[0], 64)
}
