// Package collector implements the procfs/sysfs scrapers that turn
// raw kernel counters into typed metric samples on a fixed cadence.
package collector

import (
	"context"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

// Collector is a stateful, single-cadence metric source. The pipeline
// runtime invokes Collect every IntervalSeconds() wall-clock seconds
// and never calls it concurrently with itself, so a Collector is free
// to keep mutable previous-counter state between calls without
// locking.
type Collector interface {
	Name() string
	IntervalSeconds() int
	Collect(ctx context.Context) ([]types.MetricSample, error)
}
