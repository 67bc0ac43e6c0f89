package domain

import (
	"strings"

	dErrors "notarius/pkg/domain-errors"
)

// Identifiers are opaque strings assigned by the meeting platform, not UUIDs:
// external providers deliver their own keys (e.g. "A-91" for an action item).
// Invariant: an ID is non-empty and carries no surrounding whitespace.
//
// Usage: construct via the Parse* functions at trust boundaries (webhook
// ingress, HTTP handlers); direct casting bypasses validation.

// MeetingID identifies a meeting across all subsystems.
type MeetingID string

// ActionID identifies an action item within a meeting.
type ActionID string

// DecisionID identifies a finalized decision within a meeting.
type DecisionID string

// BriefID identifies a generated decision brief.
type BriefID string

func parseID(s, what string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, what+" id cannot be empty")
	}
	return s, nil
}

// ParseMeetingID constructs a MeetingID from external input.
func ParseMeetingID(s string) (MeetingID, error) {
	v, err := parseID(s, "meeting")
	return MeetingID(v), err
}

// ParseActionID constructs an ActionID from external input.
func ParseActionID(s string) (ActionID, error) {
	v, err := parseID(s, "action")
	return ActionID(v), err
}

// ParseDecisionID constructs a DecisionID from external input.
func ParseDecisionID(s string) (DecisionID, error) {
	v, err := parseID(s, "decision")
	return DecisionID(v), err
}

func (id MeetingID) String() string  { return string(id) }
func (id ActionID) String() string   { return string(id) }
func (id DecisionID) String() string { return string(id) }
func (id BriefID) String() string    { return string(id) }

func (id MeetingID) IsZero() bool  { return id == "" }
func (id ActionID) IsZero() bool   { return id == "" }
func (id DecisionID) IsZero() bool { return id == "" }
func (id BriefID) IsZero() bool    { return id == "" }
