package collector

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"context"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

// MemoryCollector reads /proc/meminfo for overall and swap usage.
type MemoryCollector struct {
	interval int
}

func NewMemoryCollector(intervalSeconds int) *MemoryCollector {
	return &MemoryCollector{interval: intervalSeconds}
}

func (c *MemoryCollector) Name() string         { return "memory" }
func (c *MemoryCollector) IntervalSeconds() int { return c.interval }

func (c *MemoryCollector) Collect(ctx context.Context) ([]types.MetricSample, error) {
	fields, err := readMemInfo()
	if err != nil {
		return nil, fmt.Errorf("memory: read /proc/meminfo: %w", err)
	}

	total, ok := fields["MemTotal"]
	if !ok || total == 0 {
		return nil, fmt.Errorf("memory: MemTotal missing or zero")
	}

	available := availableBytes(fields)

	usagePct := clampPercent(100 * (1 - available/total))

	samples := []types.MetricSample{
		types.NewSample(types.MemUsagePercent, usagePct),
		types.NewSample(types.MemAvailableBytes, available),
	}

	swapTotal := fields["SwapTotal"]
	if swapTotal > 0 {
		swapFree := fields["SwapFree"]
		swapUsedPct := clampPercent(100 * (1 - swapFree/swapTotal))
		samples = append(samples, types.NewSample(types.MemSwapUsagePercent, swapUsedPct))
	}

	return samples, nil
}

// availableBytes returns MemAvailable, falling back to
// MemFree + Buffers + Cached on kernels that do not report it.
func availableBytes(fields map[string]float64) float64 {
	if available, ok := fields["MemAvailable"]; ok {
		return available
	}
	return fields["MemFree"] + fields["Buffers"] + fields["Cached"]
}

// readMemInfo parses /proc/meminfo into a map of field name (without
// the trailing colon) to value in bytes. Values in the file are in
// kB; this converts to bytes.
func readMemInfo() (map[string]float64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		valueFields := strings.Fields(parts[1])
		if len(valueFields) == 0 {
			continue
		}
		kb, err := strconv.ParseFloat(valueFields[0], 64)
		if err != nil {
			continue // malformed line, skip
		}
		out[name] = kb * 1024
	}
	return out, scanner.Err()
}
