package collector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

// clkTck is the kernel clock tick rate used to convert jiffies to
// seconds; 100 on every Linux platform this agent targets.
const clkTck = 100

type procCPUPrev struct {
	jiffies uint64
}

// ProcessCollector counts running processes and, when topN > 0,
// tracks per-process RSS/CPU/FD usage for the top-N processes by RSS.
type ProcessCollector struct {
	interval int
	topN     int

	prevCPU map[int]procCPUPrev
}

func NewProcessCollector(intervalSeconds, topN int) *ProcessCollector {
	return &ProcessCollector{interval: intervalSeconds, topN: topN, prevCPU: make(map[int]procCPUPrev)}
}

func (c *ProcessCollector) Name() string         { return "process" }
func (c *ProcessCollector) IntervalSeconds() int { return c.interval }

func (c *ProcessCollector) Collect(ctx context.Context) ([]types.MetricSample, error) {
	pids, err := listPIDs()
	if err != nil {
		return nil, fmt.Errorf("process: list /proc: %w", err)
	}

	samples := []types.MetricSample{types.NewSample(types.ProcCount, float64(len(pids)))}

	if c.topN <= 0 {
		return samples, nil
	}

	type ranked struct {
		pid     int
		comm    string
		rss     uint64
		jiffies uint64
	}
	var procs []ranked
	for _, pid := range pids {
		comm, rss, jiffies, err := readProcessStatus(pid)
		if err != nil {
			continue // process likely exited; swallow per-process like a malformed procfs line
		}
		procs = append(procs, ranked{pid: pid, comm: comm, rss: rss, jiffies: jiffies})
	}

	// partial selection sort for the top-N by RSS; N is small (tens),
	// so this beats pulling in a sort.Slice closure allocation per call.
	n := c.topN
	if n > len(procs) {
		n = len(procs)
	}
	for i := 0; i < n; i++ {
		max := i
		for j := i + 1; j < len(procs); j++ {
			if procs[j].rss > procs[max].rss {
				max = j
			}
		}
		procs[i], procs[max] = procs[max], procs[i]
	}

	dt := float64(c.interval)
	if dt <= 0 {
		dt = 1
	}

	cur := make(map[int]procCPUPrev, n)
	for i := 0; i < n; i++ {
		p := procs[i]
		labels := []types.Label{
			{Key: "pid", Value: strconv.Itoa(p.pid)},
			{Key: "comm", Value: p.comm},
		}
		samples = append(samples, types.NewSample(types.ProcRSSBytes, float64(p.rss), labels...))

		cur[p.pid] = procCPUPrev{jiffies: p.jiffies}
		if prev, ok := c.prevCPU[p.pid]; ok {
			cpuPct := clampPercent(100 * float64(diff(prev.jiffies, p.jiffies)) / clkTck / dt)
			samples = append(samples, types.NewSample(types.ProcCPUPercent, cpuPct, labels...))
		}

		if fdCount, err := countOpenFDs(p.pid); err == nil {
			samples = append(samples, types.NewSample(types.ProcFDCount, float64(fdCount), labels...))
		}
	}
	c.prevCPU = cur

	return samples, nil
}

func listPIDs() ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// readProcessStatus reads a process's command name and RSS (bytes, from
// VmRSS) from /proc/<pid>/status and its utime+stime (jiffies) from
// /proc/<pid>/stat.
func readProcessStatus(pid int) (comm string, rssBytes uint64, jiffies uint64, err error) {
	statusPath := filepath.Join("/proc", strconv.Itoa(pid), "status")
	f, err := os.Open(statusPath)
	if err != nil {
		return "", 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "Name:"):
			comm = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
		case strings.HasPrefix(line, "VmRSS:"):
			fields := strings.Fields(strings.TrimPrefix(line, "VmRSS:"))
			if len(fields) > 0 {
				if kb, perr := strconv.ParseUint(fields[0], 10, 64); perr == nil {
					rssBytes = kb * 1024
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", 0, 0, err
	}

	statPath := filepath.Join("/proc", strconv.Itoa(pid), "stat")
	data, err := os.ReadFile(statPath)
	if err != nil {
		return "", 0, 0, err
	}
	// Fields after the ")" that closes the (comm) field are space
	// separated and positionally stable; utime is field 14, stime 15
	// (1-indexed from pid), so rest, which starts at field 3 (state),
	// holds them at indices 11 and 12.
	closeParen := strings.LastIndexByte(string(data), ')')
	if closeParen < 0 {
		return comm, rssBytes, 0, fmt.Errorf("malformed /proc/%d/stat", pid)
	}
	rest := strings.Fields(string(data)[closeParen+1:])
	if len(rest) < 14 {
		return comm, rssBytes, 0, fmt.Errorf("short /proc/%d/stat", pid)
	}
	utime, err1 := strconv.ParseUint(rest[11], 10, 64)
	stime, err2 := strconv.ParseUint(rest[12], 10, 64)
	if err1 != nil || err2 != nil {
		return comm, rssBytes, 0, fmt.Errorf("parse /proc/%d/stat cpu fields", pid)
	}

	return comm, rssBytes, utime + stime, nil
}

func countOpenFDs(pid int) (int, error) {
	entries, err := os.ReadDir(filepath.Join("/proc", strconv.Itoa(pid), "fd"))
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
