package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	terrors "github.com/taskline/taskline/internal/errors"
	"github.com/taskline/taskline/internal/model"
	"github.com/taskline/taskline/internal/retry"
)

// SlackSink mirrors notifications to a Slack channel. The durable
// notification row is the source of truth; Slack delivery is
// best-effort with bounded retries.
type SlackSink struct {
	client  *slack.Client
	channel string
	retry   retry.Config
	logger  zerolog.Logger
}

// NewSlackSink creates a Slack sink posting to the given channel ID.
func NewSlackSink(token, channel string, logger zerolog.Logger) *SlackSink {
	return &SlackSink{
		client:  slack.New(token),
		channel: channel,
		retry:   retry.DefaultConfig(),
		logger:  logger.With().Str("component", "notify.slack").Logger(),
	}
}

// Name implements Sink.
func (s *SlackSink) Name() string { return "slack" }

// Deliver implements Sink.
func (s *SlackSink) Deliver(ctx context.Context, n *model.Notification) error {
	text := fmt.Sprintf("[%s] %s", n.Type, n.Message)

	return retry.Do(ctx, s.retry, func(ctx context.Context) error {
		_, _, err := s.client.PostMessageContext(ctx, s.channel,
			slack.MsgOptionText(text, false),
		)
		if err != nil {
			if rateLimited, ok := err.(*slack.RateLimitedError); ok {
				return terrors.NewDeliveryError("slack", n.RecipientID, 429, rateLimited)
			}
			return terrors.NewDeliveryError("slack", n.RecipientID, 0, err)
		}
		return nil
	})
}
