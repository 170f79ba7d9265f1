// Package channel implements the outbound alert delivery channels:
// Discord and Slack chat webhooks, and a generic pass-through
// webhook. Each channel owns its own HTTP client (connection pool)
// and POSTs a channel-specific JSON body to a configured endpoint.
package channel

import (
	"net/http"
	"time"

	"github.com/ecmoce/sysops-agent/daemon/types"
)

// defaultTimeout bounds a single channel HTTP send. The alert manager
// performs no retries, so this is the only backstop against a hung
// endpoint.
const defaultTimeout = 10 * time.Second

// newHTTPClient builds the connection-pooled client each channel
// keeps for its own lifetime.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// severityFilter parses a channel's configured severity_filter list
// into a lookup; an empty filter accepts every severity.
type severityFilter struct {
	allowed map[types.Severity]bool
}

func newSeverityFilter(names []string) severityFilter {
	if len(names) == 0 {
		return severityFilter{}
	}
	allowed := make(map[types.Severity]bool, len(names))
	for _, name := range names {
		if sev, ok := types.ParseSeverity(name); ok {
			allowed[sev] = true
		}
	}
	return severityFilter{allowed: allowed}
}

func (f severityFilter) accepts(sev types.Severity) bool {
	if len(f.allowed) == 0 {
		return true
	}
	return f.allowed[sev]
}
