package collector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

type netStat struct {
	rxBytes, txBytes   uint64
	rxErrors, txErrors uint64
}

// NetworkCollector reads /proc/net/dev and derives per-interface
// throughput and error rates from successive snapshots.
type NetworkCollector struct {
	interval int
	exclude  map[string]bool

	havePrev bool
	prev     map[string]netStat
}

// NewNetworkCollector constructs a network collector. lo is always
// excluded in addition to anything in excludeInterfaces.
func NewNetworkCollector(intervalSeconds int, excludeInterfaces []string) *NetworkCollector {
	exclude := toSet(excludeInterfaces)
	exclude["lo"] = true
	return &NetworkCollector{interval: intervalSeconds, exclude: exclude, prev: make(map[string]netStat)}
}

func (c *NetworkCollector) Name() string         { return "network" }
func (c *NetworkCollector) IntervalSeconds() int { return c.interval }

func (c *NetworkCollector) Collect(ctx context.Context) ([]types.MetricSample, error) {
	cur, err := readNetDev()
	if err != nil {
		return nil, fmt.Errorf("network: read /proc/net/dev: %w", err)
	}

	dt := float64(c.interval)
	if dt <= 0 {
		dt = 1
	}

	var samples []types.MetricSample
	if c.havePrev {
		for iface, stat := range cur {
			if c.exclude[iface] {
				continue
			}
			prev, ok := c.prev[iface]
			if !ok {
				continue
			}
			label := types.Label{Key: "interface", Value: iface}
			samples = append(samples,
				types.NewSample(types.NetRxBytesRate, float64(diff(prev.rxBytes, stat.rxBytes))/dt, label),
				types.NewSample(types.NetTxBytesRate, float64(diff(prev.txBytes, stat.txBytes))/dt, label),
			)
			if dRxErr := diff(prev.rxErrors, stat.rxErrors); dRxErr > 0 {
				samples = append(samples, types.NewSample(types.NetRxErrorsRate, float64(dRxErr)/dt, label))
			}
			if dTxErr := diff(prev.txErrors, stat.txErrors); dTxErr > 0 {
				samples = append(samples, types.NewSample(types.NetTxErrorsRate, float64(dTxErr)/dt, label))
			}
		}
	}

	c.prev = cur
	c.havePrev = true
	return samples, nil
}

// readNetDev parses /proc/net/dev, keyed by interface name.
func readNetDev() (map[string]netStat, error) {
	f, err := os.Open("/proc/net/dev")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]netStat)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum <= 2 {
			continue // two header lines
		}
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		iface := strings.TrimSpace(parts[0])
		fields := strings.Fields(parts[1])
		if len(fields) < 16 {
			continue
		}
		rxBytes, err1 := strconv.ParseUint(fields[0], 10, 64)
		rxErrors, err2 := strconv.ParseUint(fields[2], 10, 64)
		txBytes, err3 := strconv.ParseUint(fields[8], 10, 64)
		txErrors, err4 := strconv.ParseUint(fields[10], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		out[iface] = netStat{rxBytes: rxBytes, txBytes: txBytes, rxErrors: rxErrors, txErrors: txErrors}
	}
	return out, scanner.Err()
}
