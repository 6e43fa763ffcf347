package slack

import (
	"context"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

var levelColors = map[string]string{
	"Elite":  "#2eb886",
	"High":   "#36a64f",
	"Medium": "#daa038",
	"Low":    "#a30200",
}

type notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier creates a notifier that posts to a Slack incoming webhook
func NewNotifier(webhookURL string, httpClient *http.Client) interfaces.Notifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &notifier{webhookURL: webhookURL, httpClient: httpClient}
}

// NotifyResult posts the overall level and one field per metric
func (n *notifier) NotifyResult(ctx context.Context, label string, result *model.DORAResult) error {
	msg := BuildMessage(label, result)
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.httpClient, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack message", goerr.V("label", label))
	}
	return nil
}

// BuildMessage renders a result as a webhook message
func BuildMessage(label string, result *model.DORAResult) *slack.WebhookMessage {
	period := result.MeasurementPeriod
	title := fmt.Sprintf("DORA metrics: %s", result.DORALevel.Level)
	if label != "" {
		title = fmt.Sprintf("DORA metrics for %s: %s", label, result.DORALevel.Level)
	}

	df := result.DeploymentFrequency
	lt := result.LeadTime
	cfr := result.ChangeFailureRate
	mttr := result.MTTR

	return &slack.WebhookMessage{
		Text: title,
		Attachments: []slack.Attachment{
			{
				Color:  levelColors[result.DORALevel.Level],
				Title:  title,
				Text:   result.DORALevel.Description,
				Footer: fmt.Sprintf("%s to %s (%d days)", period.StartDate.Format("2006-01-02"), period.EndDate.Format("2006-01-02"), period.Days),
				Fields: []slack.AttachmentField{
					{
						Title: "Deployment frequency",
						Value: fmt.Sprintf("%.2f/week (%d total) · %s", df.PerWeek, df.TotalDeployments, df.Level),
						Short: true,
					},
					{
						Title: "Lead time for changes",
						Value: fmt.Sprintf("%s median · %s", hours(lt.MedianHours), lt.Level),
						Short: true,
					},
					{
						Title: "Change failure rate",
						Value: fmt.Sprintf("%s · %s", percent(cfr.RatePercent), cfr.Level),
						Short: true,
					},
					{
						Title: "Time to restore",
						Value: fmt.Sprintf("%s median · %s", hours(mttr.MedianHours), mttr.Level),
						Short: true,
					},
				},
			},
		},
	}
}

func hours(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1fh", *v)
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v)
}
