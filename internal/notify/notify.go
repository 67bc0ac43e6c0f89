// Package notify delivers user-facing messages produced by the follow-up
// machinery. Delivery targets are pluggable; the Kafka notifier hands
// messages to downstream channel workers (mail, chat), the log notifier
// is the single-process fallback.
package notify

import (
	"context"
	"time"

	"notarius/pkg/domain"
)

// Message is one outbound notification.
type Message struct {
	MeetingID domain.MeetingID `json:"meetingId"`
	ActionID  domain.ActionID  `json:"actionId,omitempty"`
	Recipient string           `json:"recipient"`
	Kind      string           `json:"kind"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	SentAt    time.Time        `json:"sentAt"`
}

// Message kinds.
const (
	KindNudge      = "nudge"
	KindEscalation = "escalation"
	KindBrief      = "brief"
)

// Notifier sends a message to its recipient. Implementations must be safe
// for concurrent use.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
