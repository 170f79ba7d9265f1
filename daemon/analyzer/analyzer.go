// Package analyzer examines samples in the ring-buffer store and turns
// anomalies into alerts. Each analyzer is independent and stateless
// across calls except for whatever it caches internally; they read the
// store through Latest/Recent and never write to it.
package analyzer

import (
	"os"

	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// Analyzer inspects the store on every tick and returns zero or more
// alerts. Implementations must be safe to call repeatedly; they are
// not expected to be safe for concurrent use by multiple goroutines.
type Analyzer interface {
	Name() string
	Analyze(store *storage.Store) []types.Alert
}

func localHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
