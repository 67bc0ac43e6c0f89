// Package meeting holds the per-meeting artifacts the orchestration core
// reads and, during compliance deletion, removes: actions, decisions,
// briefs, and the meeting detail itself.
package meeting

import (
	"time"

	"notarius/pkg/domain"
)

// Detail is the meeting header record.
type Detail struct {
	ID        domain.MeetingID
	Title     string
	Organizer string
	StartedAt time.Time
	EndedAt   time.Time
}

// ActionStatus tracks an action item's follow-up state.
type ActionStatus string

const (
	ActionOpen         ActionStatus = "open"
	ActionAcknowledged ActionStatus = "acknowledged"
	ActionDone         ActionStatus = "done"
)

// Action is one follow-up item extracted from a meeting.
type Action struct {
	ID             domain.ActionID
	MeetingID      domain.MeetingID
	Title          string
	Assignee       string
	Status         ActionStatus
	DueAt          *time.Time
	CreatedAt      time.Time
	AcknowledgedAt *time.Time
}

// NeedsNudge reports whether the action still awaits acknowledgement.
func (a Action) NeedsNudge() bool {
	return a.Status == ActionOpen
}

// Decision is a finalized decision from the minutes.
type Decision struct {
	ID          domain.DecisionID
	MeetingID   domain.MeetingID
	Title       string
	FinalizedAt time.Time
}

// Brief is a distilled decision summary prepared for distribution.
type Brief struct {
	ID         domain.BriefID
	MeetingID  domain.MeetingID
	DecisionID domain.DecisionID
	Body       string
	CreatedAt  time.Time
}
