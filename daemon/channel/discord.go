package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// discordColors maps severity to the embed color code specified in §6.
var discordColors = map[types.Severity]int{
	types.Info:      0x2ECC71,
	types.Warn:      0xF39C12,
	types.Critical:  0xE74C3C,
	types.Emergency: 0x9B59B6,
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Timestamp string         `json:"timestamp"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

// Discord delivers an alert as a Discord incoming-webhook message with
// a single colour-coded embed.
type Discord struct {
	endpoint string
	username string
	client   *http.Client
	filter   severityFilter
}

// NewDiscord builds a Discord channel from its configuration.
func NewDiscord(cfg config.ChannelConfig) *Discord {
	return &Discord{
		endpoint: cfg.Endpoint,
		username: "sysops-agent",
		client:   newHTTPClient(),
		filter:   newSeverityFilter(cfg.SeverityFilter),
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) AcceptsSeverity(sev types.Severity) bool { return d.filter.accepts(sev) }

func (d *Discord) Send(ctx context.Context, alert types.Alert) error {
	payload := discordPayload{
		Username: d.username,
		Embeds: []discordEmbed{{
			Title: fmt.Sprintf("[%s] %s", severityTag(alert.Severity), alert.Message),
			Color: discordColors[alert.Severity],
			Fields: []discordField{
				{Name: "Host", Value: alert.Hostname, Inline: true},
				{Name: "Metric", Value: alert.Metric.String(), Inline: true},
				{Name: "Value", Value: fmt.Sprintf("%.2f", alert.Value), Inline: true},
			},
			Timestamp: alert.Timestamp.UTC().Format(time.RFC3339),
		}},
	}

	return postJSON(ctx, d.client, d.endpoint, payload, nil)
}

func severityTag(sev types.Severity) string {
	switch sev {
	case types.Info:
		return "INFO"
	case types.Warn:
		return "WARN"
	case types.Critical:
		return "CRITICAL"
	case types.Emergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// postJSON marshals body, POSTs it to endpoint with the given extra
// headers, and reports a non-2xx status as an error.
func postJSON(ctx context.Context, client *http.Client, endpoint string, body interface{}, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("channel: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("channel: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("channel: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("channel: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
