package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	"github.com/m-mizutani/dorameter/pkg/infra/slack"
)

// Slack holds notification configuration
type Slack struct {
	WebhookURL string `masq:"secret"`
	Label      string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL to post the summary to",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("DORAMETER_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-label",
			Usage:       "Team or service name shown in the Slack summary",
			Destination: &c.Label,
			Sources:     cli.EnvVars("DORAMETER_SLACK_LABEL"),
		},
	}
}

// Notifier returns nil when no webhook is configured
func (c *Slack) Notifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}
	return slack.NewNotifier(c.WebhookURL, nil)
}
