package channel

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// slackColors maps severity to the attachment side-bar colour. Slack
// accepts either a hex string or one of "good"/"warning"/"danger";
// this uses the same hex palette as the Discord embeds for visual
// consistency across channels.
var slackColors = map[types.Severity]string{
	types.Info:      "#2ECC71",
	types.Warn:      "#F39C12",
	types.Critical:  "#E74C3C",
	types.Emergency: "#9B59B6",
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Fields []slackField `json:"fields"`
	Ts     int64        `json:"ts"`
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

// Slack delivers an alert as a Slack incoming-webhook message with a
// single colour-coded attachment.
type Slack struct {
	endpoint string
	channel  string
	client   *http.Client
	filter   severityFilter
}

// NewSlack builds a Slack channel from its configuration. The target
// Slack channel name, if any, is read from the "channel" header entry
// since the shared ChannelConfig shape has no dedicated field for it.
func NewSlack(cfg config.ChannelConfig) *Slack {
	return &Slack{
		endpoint: cfg.Endpoint,
		channel:  cfg.Headers["channel"],
		client:   newHTTPClient(),
		filter:   newSeverityFilter(cfg.SeverityFilter),
	}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) AcceptsSeverity(sev types.Severity) bool { return s.filter.accepts(sev) }

func (s *Slack) Send(ctx context.Context, alert types.Alert) error {
	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{{
			Color: slackColors[alert.Severity],
			Title: fmt.Sprintf("[%s] %s", severityTag(alert.Severity), alert.Message),
			Fields: []slackField{
				{Title: "Host", Value: alert.Hostname, Short: true},
				{Title: "Metric", Value: alert.Metric.String(), Short: true},
				{Title: "Value", Value: fmt.Sprintf("%.2f", alert.Value), Short: true},
			},
			Ts: alert.Timestamp.Unix(),
		}},
	}

	return postJSON(ctx, s.client, s.endpoint, payload, nil)
}
