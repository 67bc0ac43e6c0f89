package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the structured log. It is the
// default sink when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification",
		"kind", msg.Kind,
		"meeting_id", msg.MeetingID,
		"action_id", msg.ActionID,
		"recipient", msg.Recipient,
		"subject", msg.Subject)
	return nil
}
