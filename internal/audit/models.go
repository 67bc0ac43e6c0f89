package audit

import (
	"encoding/json"
	"time"

	"notarius/pkg/domain"
)

// EventType classifies audit entries by the lifecycle event that produced them.
type EventType string

const (
	EventConsentGranted    EventType = "CONSENT_GRANTED"
	EventDecisionFinalized EventType = "DECISION_FINALIZED"
	EventActionCreated     EventType = "ACTION_CREATED"
	EventDeleteAll         EventType = "DELETE_ALL"
)

// PolicyLabel names the policy area an entry falls under. It drives
// retention and reporting, not behavior.
type PolicyLabel string

const (
	PolicyConsent   PolicyLabel = "consent"
	PolicyDecision  PolicyLabel = "decision"
	PolicyAction    PolicyLabel = "action"
	PolicyRetention PolicyLabel = "retention"
)

// Entry is a single append-only audit record. Entries are never updated
// or deleted; the DELETE_ALL entry that closes out a meeting is itself
// an append.
type Entry struct {
	ID         string           `json:"id"`
	MeetingID  domain.MeetingID `json:"meetingId"`
	Event      EventType        `json:"event"`
	Policy     PolicyLabel      `json:"policy"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}
