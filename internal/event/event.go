// Package event defines the domain events published during a meeting's
// lifecycle and the in-process bus that fans them out to reactive
// subsystems (nudging, auditing, briefing).
package event

import (
	"time"

	"notarius/internal/consent"
	"notarius/pkg/domain"
)

// Kind tags an event variant. The set is closed: subscribers switch on the
// concrete type, the kind exists for registration and logging.
type Kind string

const (
	KindConsentGranted    Kind = "meeting.consent"
	KindDecisionFinalized Kind = "decision.finalized"
	KindActionCreated     Kind = "action.created"
)

// Event is the closed interface over the meeting lifecycle variants.
// Events are immutable, created by domain logic, consumed by subscribers,
// and never persisted by the bus.
type Event interface {
	Kind() Kind
	Meeting() domain.MeetingID
	OccurredAt() time.Time
}

// ConsentGranted fires when a consent record is accepted for a meeting.
type ConsentGranted struct {
	MeetingID domain.MeetingID
	Consent   consent.Record
	At        time.Time
}

func (e ConsentGranted) Kind() Kind                { return KindConsentGranted }
func (e ConsentGranted) Meeting() domain.MeetingID { return e.MeetingID }
func (e ConsentGranted) OccurredAt() time.Time     { return e.At }

// DecisionFinalized fires when a decision is marked final in the minutes.
type DecisionFinalized struct {
	MeetingID  domain.MeetingID
	DecisionID domain.DecisionID
	Title      string
	At         time.Time
}

func (e DecisionFinalized) Kind() Kind                { return KindDecisionFinalized }
func (e DecisionFinalized) Meeting() domain.MeetingID { return e.MeetingID }
func (e DecisionFinalized) OccurredAt() time.Time     { return e.At }

// ActionCreated fires when an action item is extracted from a meeting.
type ActionCreated struct {
	MeetingID domain.MeetingID
	ActionID  domain.ActionID
	Assignee  string
	DueAt     *time.Time
	At        time.Time
}

func (e ActionCreated) Kind() Kind                { return KindActionCreated }
func (e ActionCreated) Meeting() domain.MeetingID { return e.MeetingID }
func (e ActionCreated) OccurredAt() time.Time     { return e.At }
