// Package nudge turns lifecycle events into delayed follow-up work: nudges
// for unacknowledged actions, escalating reminders, and brief distribution
// for finalized decisions.
package nudge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"notarius/internal/consent"
	"notarius/internal/event"
	"notarius/internal/meeting"
	"notarius/internal/notify"
	"notarius/internal/queue"
	"notarius/internal/redact"
	"notarius/pkg/domain"
	domainerrors "notarius/pkg/domain-errors"
	"notarius/pkg/email"
	"notarius/pkg/platform/sentinel"
)

// Jobs is the slice of the queue surface the router needs.
type Jobs interface {
	Enqueue(ctx context.Context, queueName, jobName string, payload any, opts ...queue.EnqueueOption) (string, error)
	Cancel(ctx context.Context, queueName, key string) (int, error)
}

// ActionReader loads action items.
type ActionReader interface {
	Get(ctx context.Context, id domain.ActionID) (*meeting.Action, error)
	ListByMeeting(ctx context.Context, meetingID domain.MeetingID) ([]meeting.Action, error)
}

// MeetingReader resolves meeting headers for brief composition.
type MeetingReader interface {
	GetMeetingDetail(ctx context.Context, id domain.MeetingID) (*meeting.Detail, error)
}

// BriefWriter persists composed briefs.
type BriefWriter interface {
	Put(ctx context.Context, brief *meeting.Brief) error
}

// PolicyGate evaluates consent before any outward-facing step.
type PolicyGate interface {
	Evaluate(ctx context.Context, req consent.Request) (consent.Decision, error)
}

// Config tunes the follow-up schedule.
type Config struct {
	// Window is how long an action may sit unacknowledged before the
	// first nudge fires.
	Window time.Duration
	// EscalationSteps is the number of escalating reminders sent after
	// the first nudge.
	EscalationSteps int
	// EscalationInterval separates consecutive reminders.
	EscalationInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = 48 * time.Hour
	}
	if c.EscalationSteps < 0 {
		c.EscalationSteps = 0
	}
	if c.EscalationInterval <= 0 {
		c.EscalationInterval = 24 * time.Hour
	}
	return c
}

// Job names owned by this package.
const (
	JobNudgeAction     = "nudge-action"
	JobDistributeBrief = "distribute-brief"
)

// nudgePayload is the body of a nudge-action job. Tier counts up from 1:
// tier 1 is the initial nudge, higher tiers are escalations.
type nudgePayload struct {
	ActionID  string `json:"actionId"`
	MeetingID string `json:"meetingId"`
	Tier      int    `json:"tier"`
}

type briefPayload struct {
	MeetingID  string `json:"meetingId"`
	DecisionID string `json:"decisionId"`
	Title      string `json:"title"`
}

// Router reacts to lifecycle events by scheduling delayed jobs, and hosts
// the handlers those jobs run. Scheduling is supersede-based: at most one
// pending nudge exists per action, keyed by action ID.
type Router struct {
	jobs     Jobs
	actions  ActionReader
	meetings MeetingReader
	briefs   BriefWriter
	policy   PolicyGate
	notifier notify.Notifier
	redactor *redact.Pipeline
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

func NewRouter(jobs Jobs, actions ActionReader, meetings MeetingReader, briefs BriefWriter,
	policy PolicyGate, notifier notify.Notifier, redactor *redact.Pipeline,
	logger *slog.Logger, cfg Config) *Router {
	return &Router{
		jobs:     jobs,
		actions:  actions,
		meetings: meetings,
		briefs:   briefs,
		policy:   policy,
		notifier: notifier,
		redactor: redactor,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// Subscribe registers the router on the bus.
func (r *Router) Subscribe(bus *event.Bus) {
	bus.Subscribe(event.KindActionCreated, "nudge-router", r.onEvent)
	bus.Subscribe(event.KindDecisionFinalized, "nudge-router", r.onEvent)
}

// RegisterHandlers binds the router's job handlers on the queue.
func (r *Router) RegisterHandlers(q *queue.Queue) {
	q.Register(JobNudgeAction, r.HandleNudge)
	q.Register(JobDistributeBrief, r.HandleDistributeBrief)
}

func (r *Router) onEvent(ctx context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.ActionCreated:
		return r.scheduleNudge(ctx, evt)
	case event.DecisionFinalized:
		return r.scheduleBrief(ctx, evt)
	default:
		return nil
	}
}

// scheduleNudge arms the follow-up timer for a new action. Any pending
// nudge for the same action is superseded first, so re-extracting an
// action resets its window instead of doubling reminders.
func (r *Router) scheduleNudge(ctx context.Context, evt event.ActionCreated) error {
	key := evt.ActionID.String()
	if _, err := r.jobs.Cancel(ctx, queue.QueueNudging, key); err != nil {
		return fmt.Errorf("supersede nudge for %s: %w", key, err)
	}

	payload := nudgePayload{
		ActionID:  evt.ActionID.String(),
		MeetingID: evt.MeetingID.String(),
		Tier:      1,
	}
	_, err := r.jobs.Enqueue(ctx, queue.QueueNudging, JobNudgeAction, payload,
		queue.WithDelay(r.cfg.Window),
		queue.WithKey(key),
	)
	if err != nil {
		return fmt.Errorf("schedule nudge for %s: %w", key, err)
	}
	return nil
}

// scheduleBrief enqueues brief distribution for a finalized decision,
// gated on the meeting's consent covering document handling.
func (r *Router) scheduleBrief(ctx context.Context, evt event.DecisionFinalized) error {
	decision, err := r.policy.Evaluate(ctx, consent.Request{
		MeetingID: evt.MeetingID,
		DataClass: consent.ClassDocument,
		Operation: "brief.distribute",
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		r.logger.InfoContext(ctx, "brief distribution skipped",
			"meeting_id", evt.MeetingID,
			"decision_id", evt.DecisionID,
			"policy", decision.Policy,
			"reason", decision.Reason)
		return nil
	}

	payload := briefPayload{
		MeetingID:  evt.MeetingID.String(),
		DecisionID: evt.DecisionID.String(),
		Title:      evt.Title,
	}
	_, err = r.jobs.Enqueue(ctx, queue.QueueBriefing, JobDistributeBrief, payload)
	if err != nil {
		return fmt.Errorf("schedule brief for %s: %w", evt.DecisionID, err)
	}
	return nil
}

// HandleNudge fires one reminder tier. The action is re-read at execution
// time: an action acknowledged, completed, or deleted since scheduling
// makes the job a silent no-op.
func (r *Router) HandleNudge(ctx context.Context, job *queue.Job) error {
	var payload nudgePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Fatal(fmt.Errorf("decode nudge payload: %w", err))
	}
	actionID, err := domain.ParseActionID(payload.ActionID)
	if err != nil {
		return queue.Fatal(err)
	}

	action, err := r.actions.Get(ctx, actionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load action %s: %w", actionID, err)
	}
	if !action.NeedsNudge() {
		return nil
	}

	decision, err := r.policy.Evaluate(ctx, consent.Request{
		MeetingID: action.MeetingID,
		DataClass: consent.ClassAction,
		Operation: "action.nudge",
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		r.logger.InfoContext(ctx, "nudge skipped",
			"action_id", actionID,
			"policy", decision.Policy,
			"reason", decision.Reason)
		return nil
	}

	kind := notify.KindNudge
	subject := fmt.Sprintf("Reminder: action %s is still open", actionID)
	if payload.Tier > 1 {
		kind = notify.KindEscalation
		subject = fmt.Sprintf("Escalation %d: action %s is still open", payload.Tier-1, actionID)
	}
	firstName, _ := email.DeriveNameFromEmail(action.Assignee)
	msg := notify.Message{
		MeetingID: action.MeetingID,
		ActionID:  action.ID,
		Recipient: action.Assignee,
		Kind:      kind,
		Subject:   subject,
		Body:      fmt.Sprintf("Hi %s, the action %q is still waiting for you.", firstName, action.Title),
		SentAt:    r.now(),
	}
	if err := r.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s for %s: %w", kind, actionID, err)
	}

	if payload.Tier <= r.cfg.EscalationSteps {
		next := nudgePayload{ActionID: payload.ActionID, MeetingID: payload.MeetingID, Tier: payload.Tier + 1}
		_, err := r.jobs.Enqueue(ctx, queue.QueueNudging, JobNudgeAction, next,
			queue.WithDelay(r.cfg.EscalationInterval),
			queue.WithKey(payload.ActionID),
		)
		if err != nil {
			return fmt.Errorf("schedule escalation for %s: %w", actionID, err)
		}
	}
	return nil
}

// HandleDistributeBrief composes a brief for a finalized decision, stores
// it, and notifies the meeting organizer. Body text passes through the
// redaction pipeline before leaving the system.
func (r *Router) HandleDistributeBrief(ctx context.Context, job *queue.Job) error {
	var payload briefPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Fatal(fmt.Errorf("decode brief payload: %w", err))
	}
	meetingID, err := domain.ParseMeetingID(payload.MeetingID)
	if err != nil {
		return queue.Fatal(err)
	}
	decisionID, err := domain.ParseDecisionID(payload.DecisionID)
	if err != nil {
		return queue.Fatal(err)
	}

	detail, err := r.meetings.GetMeetingDetail(ctx, meetingID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load meeting %s: %w", meetingID, err)
	}

	body := fmt.Sprintf("Decision from %s: %s", detail.Title, payload.Title)
	body = r.redactor.RedactText(body)

	brief := &meeting.Brief{
		ID:         domain.BriefID(uuid.NewString()),
		MeetingID:  meetingID,
		DecisionID: decisionID,
		Body:       body,
		CreatedAt:  r.now(),
	}
	if err := r.briefs.Put(ctx, brief); err != nil {
		return fmt.Errorf("store brief for %s: %w", decisionID, err)
	}

	msg := notify.Message{
		MeetingID: meetingID,
		Recipient: detail.Organizer,
		Kind:      notify.KindBrief,
		Subject:   fmt.Sprintf("Decision brief: %s", payload.Title),
		Body:      body,
		SentAt:    r.now(),
	}
	if err := r.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("send brief for %s: %w", decisionID, err)
	}
	return nil
}

// Cancel withdraws any pending nudge for a single action. Used when an
// action is acknowledged or completed before its window elapses.
func (r *Router) Cancel(ctx context.Context, actionID domain.ActionID) error {
	if actionID.IsZero() {
		return domainerrors.New(domainerrors.CodeValidation, "action id is required")
	}
	_, err := r.jobs.Cancel(ctx, queue.QueueNudging, actionID.String())
	return err
}

// CancelForMeeting withdraws pending nudges for every action of a meeting.
// It backs the delete-all flow.
func (r *Router) CancelForMeeting(ctx context.Context, meetingID domain.MeetingID) error {
	actions, err := r.actions.ListByMeeting(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("list actions for %s: %w", meetingID, err)
	}
	for _, action := range actions {
		if _, err := r.jobs.Cancel(ctx, queue.QueueNudging, action.ID.String()); err != nil {
			return fmt.Errorf("cancel nudge for %s: %w", action.ID, err)
		}
	}
	return nil
}
