// Package notify delivers workflow notifications by email (Resend), Slack
// or a simulated log-only channel.
package notify

import (
	"context"
	"fmt"
	"html"
	"net/mail"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/action"
	"github.com/sells-group/workflow-cli/internal/resilience"
	"github.com/sells-group/workflow-cli/pkg/resend"
)

var (
	_ action.EmailSender = (*Resend)(nil)
	_ action.EmailSender = (*Slack)(nil)
	_ action.EmailSender = (*Log)(nil)
)

// ErrNoRecipient is returned when a notification has nowhere to go.
var ErrNoRecipient = eris.New("notify: no recipient")

// Resend sends notifications as email.
type Resend struct {
	client resend.Client
	from   string
	policy resilience.Policy
}

// NewResend creates an email sender. An empty from uses the client default.
func NewResend(client resend.Client, from string, policy resilience.Policy) *Resend {
	return &Resend{client: client, from: from, policy: policy}
}

// Send delivers a plain-text notification with an HTML alternative.
func (r *Resend) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return "", ErrNoRecipient
	}
	if _, err := mail.ParseAddress(recipient); err != nil {
		return "", eris.Wrapf(err, "notify: invalid recipient %q", recipient)
	}
	req := resend.SendRequest{
		From:    r.from,
		To:      []string{recipient},
		Subject: subject,
		Text:    body,
		HTML:    renderHTML(subject, body),
	}
	resp, err := resilience.Call(ctx, r.policy, "send_email", func(ctx context.Context) (*resend.SendResponse, error) {
		return r.client.Send(ctx, req)
	})
	if err != nil {
		return "", eris.Wrapf(err, "notify: email %s", recipient)
	}
	zap.L().Info("notify: email sent", zap.String("to", recipient), zap.String("message_id", resp.ID))
	return resp.ID, nil
}

func renderHTML(subject, body string) string {
	return fmt.Sprintf(`<h2>%s</h2><pre style="font-family:sans-serif;white-space:pre-wrap">%s</pre>`,
		html.EscapeString(subject), html.EscapeString(body))
}

// SlackPoster is the part of *slack.Client used here.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts notifications to a channel chosen by recipient.
type Slack struct {
	api      SlackPoster
	channels map[string]string
	fallback string
}

// NewSlack creates a Slack sender. channels maps recipients (email
// addresses or role names) to channel ids; fallback receives the rest.
func NewSlack(api SlackPoster, channels map[string]string, fallback string) *Slack {
	norm := make(map[string]string, len(channels))
	for k, v := range channels {
		norm[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Slack{api: api, channels: norm, fallback: fallback}
}

// Send posts the notification and returns "channel/timestamp".
func (s *Slack) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	channel := s.channels[strings.ToLower(strings.TrimSpace(recipient))]
	if channel == "" {
		channel = s.fallback
	}
	if channel == "" {
		return "", eris.Wrapf(ErrNoRecipient, "no slack channel for %q", recipient)
	}
	text := fmt.Sprintf("*%s*\n_for %s_\n%s", subject, recipient, body)
	ch, ts, err := s.api.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		return "", eris.Wrapf(err, "notify: slack post to %s", channel)
	}
	return ch + "/" + ts, nil
}

// Log simulates delivery by logging the message. It always succeeds for a
// non-empty recipient.
type Log struct {
	sent atomic.Int64
}

// NewLog creates a simulated sender.
func NewLog() *Log { return &Log{} }

// Send logs the notification and returns a simulated message id.
func (l *Log) Send(_ context.Context, recipient, subject, body string) (string, error) {
	if strings.TrimSpace(recipient) == "" {
		return "", ErrNoRecipient
	}
	l.sent.Add(1)
	id := "simulated-" + uuid.NewString()
	preview := body
	if r := []rune(preview); len(r) > 100 {
		preview = string(r[:100]) + "..."
	}
	zap.L().Info("notify: simulated email",
		zap.String("to", recipient),
		zap.String("subject", subject),
		zap.String("preview", preview),
		zap.String("message_id", id),
	)
	return id, nil
}

// Sent returns the number of simulated deliveries.
func (l *Log) Sent() int64 { return l.sent.Load() }
