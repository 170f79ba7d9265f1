package channel

import (
	"context"
	"net/http"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

type webhookPayload struct {
	Hostname  string   `json:"hostname"`
	Metric    string   `json:"metric"`
	Value     float64  `json:"value"`
	Severity  string   `json:"severity"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Labels    []string `json:"labels,omitempty"`
}

// Webhook delivers an alert as a generic pass-through JSON POST,
// carrying arbitrary configured headers (authentication tokens,
// custom routing) rather than a chat-shaped payload.
type Webhook struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	filter   severityFilter
}

// NewWebhook builds a generic webhook channel from its configuration.
func NewWebhook(cfg config.ChannelConfig) *Webhook {
	return &Webhook{
		endpoint: cfg.Endpoint,
		headers:  cfg.Headers,
		client:   newHTTPClient(),
		filter:   newSeverityFilter(cfg.SeverityFilter),
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) AcceptsSeverity(sev types.Severity) bool { return w.filter.accepts(sev) }

func (w *Webhook) Send(ctx context.Context, alert types.Alert) error {
	var labels []string
	for _, l := range alert.Labels {
		labels = append(labels, l.Key+"="+l.Value)
	}

	payload := webhookPayload{
		Hostname:  alert.Hostname,
		Metric:    alert.Metric.String(),
		Value:     alert.Value,
		Severity:  alert.Severity.String(),
		Message:   alert.Message,
		Timestamp: alert.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Labels:    labels,
	}

	return postJSON(ctx, w.client, w.endpoint, payload, w.headers)
}
