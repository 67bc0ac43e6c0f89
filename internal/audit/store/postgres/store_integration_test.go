//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notarius/internal/audit"
	"notarius/internal/audit/store/postgres"
	"notarius/pkg/testutil/containers"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id uuid PRIMARY KEY,
	meeting_id text NOT NULL,
	event text NOT NULL,
	policy text NOT NULL,
	payload jsonb,
	occurred_at timestamptz NOT NULL
);
`

func TestAppendAndListOrdering(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	pc.Exec(t, schema)

	ctx := context.Background()
	db, err := postgres.Open(ctx, pc.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := postgres.New(db)
	t0 := time.Now().UTC().Truncate(time.Millisecond)

	// Appended out of order on purpose; the trail reads back oldest first.
	newer := audit.Entry{
		ID:         uuid.NewString(),
		MeetingID:  "M-1",
		Event:      audit.EventActionCreated,
		Policy:     audit.PolicyAction,
		Payload:    []byte(`{"actionId":"A-91"}`),
		OccurredAt: t0.Add(time.Minute),
	}
	older := audit.Entry{
		ID:         uuid.NewString(),
		MeetingID:  "M-1",
		Event:      audit.EventConsentGranted,
		Policy:     audit.PolicyConsent,
		Payload:    []byte(`{"profile":"plus"}`),
		OccurredAt: t0,
	}
	other := audit.Entry{
		ID:         uuid.NewString(),
		MeetingID:  "M-2",
		Event:      audit.EventDeleteAll,
		Policy:     audit.PolicyRetention,
		Payload:    []byte(`{"reason":"test"}`),
		OccurredAt: t0,
	}
	require.NoError(t, store.Append(ctx, newer))
	require.NoError(t, store.Append(ctx, older))
	require.NoError(t, store.Append(ctx, other))

	trail, err := store.ListForMeeting(ctx, "M-1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, audit.EventConsentGranted, trail[0].Event)
	assert.Equal(t, audit.EventActionCreated, trail[1].Event)
	assert.JSONEq(t, `{"profile":"plus"}`, string(trail[0].Payload))

	trail, err = store.ListForMeeting(ctx, "M-404")
	require.NoError(t, err)
	assert.Empty(t, trail)
}
