package channel

import (
	"github.com/ecmoce/sysops-agent/daemon/alertmanager"
	"github.com/ecmoce/sysops-agent/daemon/config"
)

// BuildAll constructs every enabled channel from the decoded
// configuration, in the fixed order Discord, Slack, generic webhook.
func BuildAll(cfg config.ChannelsConfig) []alertmanager.Channel {
	var channels []alertmanager.Channel
	if cfg.Discord.Enabled {
		channels = append(channels, NewDiscord(cfg.Discord))
	}
	if cfg.Slack.Enabled {
		channels = append(channels, NewSlack(cfg.Slack))
	}
	if cfg.Webhook.Enabled {
		channels = append(channels, NewWebhook(cfg.Webhook))
	}
	return channels
}
