package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"notarius/internal/event"
	"notarius/pkg/domain"
	domainerrors "notarius/pkg/domain-errors"
)

// CountedPurger removes a meeting's records of one kind and reports how
// many were deleted.
type CountedPurger interface {
	DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) (int, error)
}

// ConsentPurger removes a meeting's consent record.
type ConsentPurger interface {
	DeleteByMeeting(ctx context.Context, meetingID domain.MeetingID) error
}

// NudgeCanceler cancels any pending follow-up work for a meeting's actions.
type NudgeCanceler interface {
	CancelForMeeting(ctx context.Context, meetingID domain.MeetingID) error
}

// Auditor subscribes to lifecycle events and records them as audit
// entries. Appends triggered by events are best effort: a failing store
// must not block the event's publisher. The delete-all flow is the one
// exception, where the terminal entry's append failure is surfaced.
type Auditor struct {
	store    Store
	logger   *slog.Logger
	actions  CountedPurger
	decision CountedPurger
	briefs   CountedPurger
	consents ConsentPurger
	nudges   NudgeCanceler
	now      func() time.Time
}

type Option func(*Auditor)

// WithNudgeCanceler wires cancellation of pending nudges into DeleteAll.
func WithNudgeCanceler(canceler NudgeCanceler) Option {
	return func(a *Auditor) { a.nudges = canceler }
}

func New(store Store, actions, decisions, briefs CountedPurger, consents ConsentPurger, logger *slog.Logger, opts ...Option) *Auditor {
	a := &Auditor{
		store:    store,
		logger:   logger,
		actions:  actions,
		decision: decisions,
		briefs:   briefs,
		consents: consents,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SubscribeAll registers the auditor for every lifecycle event kind.
func (a *Auditor) SubscribeAll(bus *event.Bus) {
	bus.Subscribe(event.KindConsentGranted, "auditor", a.record)
	bus.Subscribe(event.KindDecisionFinalized, "auditor", a.record)
	bus.Subscribe(event.KindActionCreated, "auditor", a.record)
}

func (a *Auditor) record(ctx context.Context, evt event.Event) error {
	entry, err := entryFromEvent(evt)
	if err != nil {
		a.logger.Error("audit: cannot build entry", "kind", evt.Kind(), "error", err)
		return nil
	}
	if err := a.store.Append(ctx, entry); err != nil {
		// Best effort by contract: the publisher must not fail
		// because the audit sink is down.
		a.logger.Error("audit: append failed",
			"meeting_id", entry.MeetingID,
			"event", entry.Event,
			"error", err)
	}
	return nil
}

func entryFromEvent(evt event.Event) (Entry, error) {
	entry := Entry{
		ID:         uuid.NewString(),
		MeetingID:  evt.Meeting(),
		OccurredAt: evt.OccurredAt(),
	}
	switch e := evt.(type) {
	case event.ConsentGranted:
		entry.Event = EventConsentGranted
		entry.Policy = PolicyConsent
		payload, err := json.Marshal(map[string]any{
			"profile":       e.Consent.Profile,
			"scope":         e.Consent.Scope,
			"retentionDays": e.Consent.RetentionDays,
			"dataResidency": e.Consent.DataResidency,
		})
		if err != nil {
			return Entry{}, err
		}
		entry.Payload = payload
	case event.DecisionFinalized:
		entry.Event = EventDecisionFinalized
		entry.Policy = PolicyDecision
		payload, err := json.Marshal(map[string]any{
			"decisionId": e.DecisionID,
			"title":      e.Title,
		})
		if err != nil {
			return Entry{}, err
		}
		entry.Payload = payload
	case event.ActionCreated:
		entry.Event = EventActionCreated
		entry.Policy = PolicyAction
		payload, err := json.Marshal(map[string]any{
			"actionId": e.ActionID,
			"assignee": e.Assignee,
			"dueAt":    e.DueAt,
		})
		if err != nil {
			return Entry{}, err
		}
		entry.Payload = payload
	default:
		return Entry{}, fmt.Errorf("unhandled event kind %q", evt.Kind())
	}
	return entry, nil
}

// DeleteReport summarizes what a DeleteAll removed.
type DeleteReport struct {
	Actions   int `json:"actions"`
	Decisions int `json:"decisions"`
	Briefs    int `json:"briefs"`
}

// DeleteAll purges every domain record for a meeting and closes the
// trail with a DELETE_ALL entry. Domain deletions happen first so the
// terminal entry reflects what was actually removed. Unlike event
// appends, a failure to write the terminal entry is returned: the
// caller must not treat the purge as complete without it.
func (a *Auditor) DeleteAll(ctx context.Context, meetingID domain.MeetingID, reason string) (*DeleteReport, error) {
	if a.nudges != nil {
		if err := a.nudges.CancelForMeeting(ctx, meetingID); err != nil {
			a.logger.Warn("delete-all: nudge cancellation failed", "meeting_id", meetingID, "error", err)
		}
	}

	report := &DeleteReport{}
	var err error
	if report.Actions, err = a.actions.DeleteByMeeting(ctx, meetingID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "delete actions")
	}
	if report.Decisions, err = a.decision.DeleteByMeeting(ctx, meetingID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "delete decisions")
	}
	if report.Briefs, err = a.briefs.DeleteByMeeting(ctx, meetingID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "delete briefs")
	}
	if err := a.consents.DeleteByMeeting(ctx, meetingID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "delete consent")
	}

	payload, err := json.Marshal(map[string]any{
		"reason":  reason,
		"deleted": report,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "marshal delete-all payload")
	}
	terminal := Entry{
		ID:         uuid.NewString(),
		MeetingID:  meetingID,
		Event:      EventDeleteAll,
		Policy:     PolicyRetention,
		Payload:    payload,
		OccurredAt: a.now(),
	}
	if err := a.store.Append(ctx, terminal); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "append delete-all entry")
	}
	return report, nil
}

// List returns the audit trail for a meeting, oldest first.
func (a *Auditor) List(ctx context.Context, meetingID domain.MeetingID) ([]Entry, error) {
	return a.store.ListForMeeting(ctx, meetingID)
}
