package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notarius/internal/audit"
	auditmemory "notarius/internal/audit/store/memory"
	"notarius/internal/consent"
	"notarius/internal/event"
	"notarius/pkg/domain"
	dErrors "notarius/pkg/domain-errors"
)

type countPurger struct {
	n     int
	err   error
	calls int
}

func (p *countPurger) DeleteByMeeting(context.Context, domain.MeetingID) (int, error) {
	p.calls++
	return p.n, p.err
}

type consentPurger struct {
	err   error
	calls int
}

func (p *consentPurger) DeleteByMeeting(context.Context, domain.MeetingID) error {
	p.calls++
	return p.err
}

type fakeCanceler struct {
	err   error
	calls int
}

func (c *fakeCanceler) CancelForMeeting(context.Context, domain.MeetingID) error {
	c.calls++
	return c.err
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Entry) error { return errors.New("sink down") }

func (failingStore) ListForMeeting(context.Context, domain.MeetingID) ([]audit.Entry, error) {
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuditor(store audit.Store, opts ...audit.Option) (*audit.Auditor, *countPurger, *countPurger, *countPurger, *consentPurger) {
	actions := &countPurger{n: 2}
	decisions := &countPurger{n: 1}
	briefs := &countPurger{n: 1}
	consents := &consentPurger{}
	a := audit.New(store, actions, decisions, briefs, consents, discardLogger(), opts...)
	return a, actions, decisions, briefs, consents
}

func TestLifecycleEventsAppendEntries(t *testing.T) {
	store := auditmemory.New()
	auditor, _, _, _, _ := newAuditor(store)

	bus := event.NewBus(discardLogger())
	auditor.SubscribeAll(bus)

	meetingID := domain.MeetingID("mtg-audit-1")
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	record, err := consent.NewRecordFromProfile(meetingID, consent.ProfilePlus, t0)
	require.NoError(t, err)

	ctx := context.Background()
	bus.Publish(ctx, event.ConsentGranted{MeetingID: meetingID, Consent: record, At: t0})
	bus.Publish(ctx, event.DecisionFinalized{
		MeetingID:  meetingID,
		DecisionID: domain.DecisionID("dec-1"),
		Title:      "Adopt the Q2 budget",
		At:         t0.Add(time.Minute),
	})
	bus.Publish(ctx, event.ActionCreated{
		MeetingID: meetingID,
		ActionID:  domain.ActionID("A-91"),
		Assignee:  "anna@example.se",
		At:        t0.Add(2 * time.Minute),
	})

	trail, err := auditor.List(ctx, meetingID)
	require.NoError(t, err)
	require.Len(t, trail, 3)

	assert.Equal(t, audit.EventConsentGranted, trail[0].Event)
	assert.Equal(t, audit.PolicyConsent, trail[0].Policy)
	assert.Equal(t, audit.EventDecisionFinalized, trail[1].Event)
	assert.Equal(t, audit.EventActionCreated, trail[2].Event)

	var consentPayload struct {
		Profile       string `json:"profile"`
		RetentionDays int    `json:"retentionDays"`
	}
	require.NoError(t, json.Unmarshal(trail[0].Payload, &consentPayload))
	assert.Equal(t, "plus", consentPayload.Profile)
	assert.Equal(t, 90, consentPayload.RetentionDays)

	var actionPayload struct {
		ActionID string `json:"actionId"`
		Assignee string `json:"assignee"`
	}
	require.NoError(t, json.Unmarshal(trail[2].Payload, &actionPayload))
	assert.Equal(t, "A-91", actionPayload.ActionID)
	assert.Equal(t, "anna@example.se", actionPayload.Assignee)
}

func TestEventAppendIsBestEffort(t *testing.T) {
	auditor, _, _, _, _ := newAuditor(failingStore{})

	bus := event.NewBus(discardLogger())
	auditor.SubscribeAll(bus)

	// Publish must return normally even though every append fails.
	bus.Publish(context.Background(), event.ActionCreated{
		MeetingID: domain.MeetingID("mtg-1"),
		ActionID:  domain.ActionID("A-1"),
		At:        time.Now(),
	})
}

func TestDeleteAllPurgesAndRecordsTerminalEntry(t *testing.T) {
	store := auditmemory.New()
	auditor, actions, decisions, briefs, consents := newAuditor(store)

	meetingID := domain.MeetingID("mtg-purge")
	report, err := auditor.DeleteAll(context.Background(), meetingID, "data subject request")
	require.NoError(t, err)

	assert.Equal(t, &audit.DeleteReport{Actions: 2, Decisions: 1, Briefs: 1}, report)
	assert.Equal(t, 1, actions.calls)
	assert.Equal(t, 1, decisions.calls)
	assert.Equal(t, 1, briefs.calls)
	assert.Equal(t, 1, consents.calls)

	trail, err := auditor.List(context.Background(), meetingID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, audit.EventDeleteAll, trail[0].Event)
	assert.Equal(t, audit.PolicyRetention, trail[0].Policy)

	var payload struct {
		Reason  string             `json:"reason"`
		Deleted audit.DeleteReport `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(trail[0].Payload, &payload))
	assert.Equal(t, "data subject request", payload.Reason)
	assert.Equal(t, 2, payload.Deleted.Actions)
}

func TestDeleteAllCancelsPendingNudges(t *testing.T) {
	canceler := &fakeCanceler{}
	auditor, _, _, _, _ := newAuditor(auditmemory.New(), audit.WithNudgeCanceler(canceler))

	_, err := auditor.DeleteAll(context.Background(), domain.MeetingID("mtg-1"), "test")
	require.NoError(t, err)
	assert.Equal(t, 1, canceler.calls)
}

func TestDeleteAllToleratesCancelerFailure(t *testing.T) {
	canceler := &fakeCanceler{err: errors.New("queue gone")}
	auditor, actions, _, _, _ := newAuditor(auditmemory.New(), audit.WithNudgeCanceler(canceler))

	_, err := auditor.DeleteAll(context.Background(), domain.MeetingID("mtg-1"), "test")
	require.NoError(t, err, "nudge cancellation is best effort")
	assert.Equal(t, 1, actions.calls)
}

func TestDeleteAllStopsOnPurgeFailure(t *testing.T) {
	store := auditmemory.New()
	actions := &countPurger{err: errors.New("db offline")}
	auditor := audit.New(store, actions, &countPurger{}, &countPurger{}, &consentPurger{}, discardLogger())

	_, err := auditor.DeleteAll(context.Background(), domain.MeetingID("mtg-1"), "test")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Zero(t, store.Len(), "no terminal entry without a completed purge")
}

func TestDeleteAllFailsWhenTerminalAppendFails(t *testing.T) {
	auditor, _, _, _, _ := newAuditor(failingStore{})

	_, err := auditor.DeleteAll(context.Background(), domain.MeetingID("mtg-1"), "test")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
