package meeting

import (
	"context"

	"notarius/internal/consent"
	"notarius/pkg/domain"
)

// Store interfaces consumed by the orchestration core. Implementations
// return sentinel.ErrNotFound for missing entities. The in-memory and
// postgres variants are interchangeable.

// MeetingStore resolves meeting headers.
type MeetingStore interface {
	GetMeetingDetail(ctx context.Context, id domain.MeetingID) (*Detail, error)
}

// ActionStore persists action items.
type ActionStore interface {
	Get(ctx context.Context, id domain.ActionID) (*Action, error)
	Put(ctx context.Context, action *Action) error
	SetStatus(ctx context.Context, id domain.ActionID, status ActionStatus) error
	ListByMeeting(ctx context.Context, meetingID domain.MeetingID) ([]Action, error)
	DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error)
	CountByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error)
}

// DecisionStore persists finalized decisions.
type DecisionStore interface {
	Put(ctx context.Context, decision *Decision) error
	DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error)
	CountByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error)
}

// BriefStore persists decision briefs.
type BriefStore interface {
	Put(ctx context.Context, brief *Brief) error
	DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error)
	CountByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error)
}

// ConsentStore holds at most one consent record per meeting. Replace swaps
// the record wholesale; records are never mutated in place.
type ConsentStore interface {
	Get(ctx context.Context, meetingID domain.MeetingID) (*consent.Record, error)
	Replace(ctx context.Context, record consent.Record) error
	DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) error
}
