package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// RunDigest summarises one batch of scheduled report executions.
type RunDigest struct {
	ReportsRun   int
	SuccessCount int
	ErrorCount   int
	Failures     []string
	FinishedAt   time.Time
}

type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type SlackNotifier struct {
	client  slackPoster
	channel string
}

// NewSlackNotifier returns nil when Slack is not configured; a nil notifier
// is safe to call.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	if token == "" || channel == "" {
		return nil
	}
	return &SlackNotifier{client: slack.New(token), channel: channel}
}

func (s *SlackNotifier) NotifyRun(ctx context.Context, d RunDigest) error {
	if s == nil || d.ReportsRun == 0 {
		return nil
	}

	fields := []slack.AttachmentField{
		{Title: "Reports", Value: strconv.Itoa(d.ReportsRun), Short: true},
		{Title: "Succeeded", Value: strconv.Itoa(d.SuccessCount), Short: true},
		{Title: "Failed", Value: strconv.Itoa(d.ErrorCount), Short: true},
	}
	if len(d.Failures) > 0 {
		fields = append(fields, slack.AttachmentField{
			Title: "Errors",
			Value: strings.Join(d.Failures, "\n"),
		})
	}

	finished := d.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	attachment := slack.Attachment{
		Color:  runColor(d),
		Title:  "Scheduled report run",
		Fields: fields,
		Footer: "DeliveryDesk Reports",
		Ts:     json.Number(strconv.FormatInt(finished.Unix(), 10)),
	}

	if _, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionAttachments(attachment)); err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}

func runColor(d RunDigest) string {
	switch {
	case d.ErrorCount == 0:
		return "#36a64f"
	case d.SuccessCount > 0:
		return "#ffcc00"
	default:
		return "#ff0000"
	}
}
