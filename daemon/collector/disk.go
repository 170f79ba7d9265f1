package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/ecmoce/sysops-agent/daemon/cache"
	"github.com/ecmoce/sysops-agent/daemon/logger"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

type diskIOPrev struct {
	readBytes  uint64
	writeBytes uint64
	ioTimeMs   uint64
}

// DiskCollector walks the mounted filesystems (via gopsutil's statfs
// wrapper), excluding configured fstypes and mount points, and emits
// usage/availability/inode percentages plus IO rate metrics derived
// from the kernel's per-device IO counters.
type DiskCollector struct {
	interval        int
	excludeFstypes  map[string]bool
	excludeMounts   map[string]bool
	statCache       *cache.Cache
	statCacheTTL    time.Duration
	prevIO          map[string]diskIOPrev
}

func NewDiskCollector(intervalSeconds int, excludeFstypes, excludeMounts []string, statCacheSeconds int) *DiskCollector {
	if statCacheSeconds <= 0 {
		statCacheSeconds = 5
	}
	return &DiskCollector{
		interval:       intervalSeconds,
		excludeFstypes: toSet(excludeFstypes),
		excludeMounts:  toSet(excludeMounts),
		statCache:      cache.New(time.Duration(statCacheSeconds) * time.Second, 256),
		statCacheTTL:   time.Duration(statCacheSeconds) * time.Second,
		prevIO:         make(map[string]diskIOPrev),
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func (c *DiskCollector) Name() string         { return "disk" }
func (c *DiskCollector) IntervalSeconds() int { return c.interval }

func (c *DiskCollector) Collect(ctx context.Context) ([]types.MetricSample, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("disk: list partitions: %w", err)
	}

	ioCounters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		logger.Component("collector.disk").Warn().Err(err).Msg("failed to read disk IO counters")
		ioCounters = nil
	}

	var samples []types.MetricSample
	for _, p := range partitions {
		if c.excludeFstypes[p.Fstype] || c.excludeMounts[p.Mountpoint] {
			continue
		}

		usage, err := c.usageFor(ctx, p.Mountpoint)
		if err != nil {
			logger.Component("collector.disk").Warn().Err(err).Str("mount", p.Mountpoint).Msg("statfs failed")
			continue
		}

		labels := []types.Label{
			{Key: "mountpoint", Value: p.Mountpoint},
			{Key: "fstype", Value: p.Fstype},
		}
		samples = append(samples,
			types.NewSample(types.DiskUsagePercent, usage.UsedPercent, labels...),
			types.NewSample(types.DiskAvailableBytes, float64(usage.Free), labels...),
		)
		if usage.InodesTotal > 0 {
			samples = append(samples, types.NewSample(types.DiskInodeUsagePercent, usage.InodesUsedPercent, labels...))
		}

		device := deviceName(p.Device)
		if ioCounters == nil {
			continue
		}
		cur, ok := ioCounters[device]
		if !ok {
			continue
		}
		if prev, ok := c.prevIO[device]; ok {
			dt := float64(c.interval)
			if dt <= 0 {
				dt = 1
			}
			readRate := float64(diff(prev.readBytes, cur.ReadBytes)) / dt
			writeRate := float64(diff(prev.writeBytes, cur.WriteBytes)) / dt
			ioTimePct := clampPercent(100 * float64(diff(prev.ioTimeMs, cur.IoTime)) / (dt * 1000))

			samples = append(samples,
				types.NewSample(types.DiskReadBytesRate, readRate, labels...),
				types.NewSample(types.DiskWriteBytesRate, writeRate, labels...),
				types.NewSample(types.DiskIOTimePercent, ioTimePct, labels...),
			)
		}
		c.prevIO[device] = diskIOPrev{readBytes: cur.ReadBytes, writeBytes: cur.WriteBytes, ioTimeMs: cur.IoTime}
	}

	return samples, nil
}

func (c *DiskCollector) usageFor(ctx context.Context, mountpoint string) (*disk.UsageStat, error) {
	if cached, ok := c.statCache.Get(mountpoint); ok {
		return cached.(*disk.UsageStat), nil
	}
	usage, err := disk.UsageWithContext(ctx, mountpoint)
	if err != nil {
		return nil, err
	}
	c.statCache.SetWithTTL(mountpoint, usage, c.statCacheTTL)
	return usage, nil
}

// deviceName maps a partition device path ("/dev/sda1") to the key
// gopsutil's IOCounters uses ("sda1").
func deviceName(devicePath string) string {
	return strings.TrimPrefix(devicePath, "/dev/")
}
