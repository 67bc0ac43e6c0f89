package audit

import (
	"context"

	"notarius/pkg/domain"
)

// Store persists audit entries. Implementations must be append-only:
// no update or delete surface exists on purpose.
type Store interface {
	// Append records a single entry. The entry ID is assigned by the
	// caller before the append.
	Append(ctx context.Context, entry Entry) error

	// ListForMeeting returns every entry recorded for the meeting, in
	// ascending OccurredAt order.
	ListForMeeting(ctx context.Context, meetingID domain.MeetingID) ([]Entry, error)
}
