package alert

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// SlackSink posts alerts to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	client     *http.Client
}

func NewSlackSink(webhookURL string, client *http.Client) *SlackSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SlackSink{
		webhookURL: webhookURL,
		client:     client,
	}
}

func (s *SlackSink) Send(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
