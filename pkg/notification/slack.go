package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/webdiner/webdiner/pkg/httpclient"
)

// SlackNotifier posts digests to an incoming webhook. Rate limits and
// server errors are retried twice.
type SlackNotifier struct {
	webhook string
	client  *httpclient.Client
}

func NewSlack(webhook string, timeout time.Duration) *SlackNotifier {
	return &SlackNotifier{webhook: webhook, client: httpclient.New(timeout).Retry(3, 250*time.Millisecond)}
}

func (s *SlackNotifier) Channel() string { return "slack" }

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color string `json:"color,omitempty"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

func (s *SlackNotifier) Broadcast(ctx context.Context, subject, body string) error {
	resp, err := s.client.PostJSON(ctx, s.webhook, slackPayload{
		Text:        subject,
		Attachments: []slackAttachment{{Color: "warning", Text: body}},
	})
	if err != nil {
		return fmt.Errorf("notification/slack: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("notification/slack: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
