package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notarius/internal/consent"
	"notarius/internal/meeting"
	"notarius/pkg/platform/sentinel"
	"notarius/pkg/testutil"
)

func TestActionLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	testutil.Given(t, "an open action", func(t *testing.T) {
		err := store.Put(ctx, &meeting.Action{
			ID:        "A-91",
			MeetingID: "M-1",
			Title:     "Skicka offerten",
			Assignee:  "anna@example.se",
			Status:    meeting.ActionOpen,
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	})

	testutil.When(t, "the assignee acknowledges it", func(t *testing.T) {
		require.NoError(t, store.SetStatus(ctx, "A-91", meeting.ActionAcknowledged))
	})

	testutil.Then(t, "the action carries an acknowledgement timestamp", func(t *testing.T) {
		action, err := store.Get(ctx, "A-91")
		require.NoError(t, err)
		assert.Equal(t, meeting.ActionAcknowledged, action.Status)
		require.NotNil(t, action.AcknowledgedAt)
		assert.False(t, action.NeedsNudge())
	})
}

func TestListByMeetingOrdersOldestFirst(t *testing.T) {
	store := New()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, &meeting.Action{ID: "A-2", MeetingID: "M-1", CreatedAt: t0.Add(time.Minute)}))
	require.NoError(t, store.Put(ctx, &meeting.Action{ID: "A-1", MeetingID: "M-1", CreatedAt: t0}))
	require.NoError(t, store.Put(ctx, &meeting.Action{ID: "A-3", MeetingID: "M-2", CreatedAt: t0}))

	actions, err := store.ListByMeeting(ctx, "M-1")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "A-1", actions[0].ID.String())
	assert.Equal(t, "A-2", actions[1].ID.String())
}

func TestDeleteByMeetingAcrossViews(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &meeting.Action{ID: "A-1", MeetingID: "M-1"}))
	require.NoError(t, store.Decisions().Put(ctx, &meeting.Decision{ID: "D-1", MeetingID: "M-1"}))
	require.NoError(t, store.Briefs().Put(ctx, &meeting.Brief{ID: "B-1", MeetingID: "M-1"}))
	record, err := consent.NewRecordFromProfile("M-1", consent.ProfileBas, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Consents().Replace(ctx, record))

	n, err := store.DeleteByMeeting(ctx, "M-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Decisions().DeleteByMeeting(ctx, "M-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Briefs().DeleteByMeeting(ctx, "M-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Consents().DeleteByMeeting(ctx, "M-1"))
	_, err = store.Consents().Get(ctx, "M-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := New()

	_, err := store.Get(context.Background(), "A-404")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.GetMeetingDetail(context.Background(), "M-404")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	err = store.SetStatus(context.Background(), "A-404", meeting.ActionDone)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
