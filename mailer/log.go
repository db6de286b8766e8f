package mailer

import (
	"context"

	auth "github.com/mikempala/social-rest"
)

// LogNotifier writes notifications to the logger instead of sending them.
// Used when no mail provider is configured.
type LogNotifier struct {
	Logger auth.Logger
}

var _ auth.Notifier = LogNotifier{}

func (l LogNotifier) Send(ctx context.Context, n auth.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := l.Logger
	if logger == nil {
		logger = auth.NopLogger{}
	}
	logger.Info("email not sent, no mail provider configured",
		"to", n.To,
		"subject", n.Subject,
		"text", n.Text,
	)
	return nil
}
