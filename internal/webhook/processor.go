package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"notarius/internal/consent"
	"notarius/internal/event"
	"notarius/internal/meeting"
	"notarius/pkg/domain"
	domainerrors "notarius/pkg/domain-errors"
)

const eventURLValidation = "endpoint.url_validation"

// envelope is the provider-agnostic wire shape.
type envelope struct {
	MeetingID  string          `json:"meetingId"`
	Event      string          `json:"event"`
	OccurredAt *time.Time      `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Publisher fans a lifecycle event out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e event.Event)
}

// ConsentWriter swaps the meeting's consent record.
type ConsentWriter interface {
	Replace(ctx context.Context, record consent.Record) error
}

// ActionWriter persists extracted action items.
type ActionWriter interface {
	Put(ctx context.Context, action *meeting.Action) error
}

// DecisionWriter persists finalized decisions.
type DecisionWriter interface {
	Put(ctx context.Context, decision *meeting.Decision) error
}

// Processor turns verified webhook bodies into stored records and bus
// events. Verification and secret lookup happen before Process is called.
type Processor struct {
	bus       Publisher
	consents  ConsentWriter
	actions   ActionWriter
	decisions DecisionWriter
	logger    *slog.Logger
	now       func() time.Time
}

func NewProcessor(bus Publisher, consents ConsentWriter, actions ActionWriter, decisions DecisionWriter, logger *slog.Logger) *Processor {
	return &Processor{
		bus:       bus,
		consents:  consents,
		actions:   actions,
		decisions: decisions,
		logger:    logger,
		now:       time.Now,
	}
}

// Process handles one verified webhook delivery. A non-nil challenge
// response must be echoed to the provider verbatim; otherwise the event
// was stored and published (or skipped as unknown).
func (p *Processor) Process(ctx context.Context, secret string, body []byte) (*ChallengeResponse, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "malformed webhook body")
	}

	if env.Event == eventURLValidation {
		var data struct {
			PlainToken string `json:"plainToken"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil || data.PlainToken == "" {
			return nil, domainerrors.New(domainerrors.CodeValidation, "url_validation without plainToken")
		}
		resp := answerChallenge(secret, data.PlainToken)
		return &resp, nil
	}

	meetingID, err := domain.ParseMeetingID(env.MeetingID)
	if err != nil {
		return nil, err
	}
	at := p.now()
	if env.OccurredAt != nil {
		at = *env.OccurredAt
	}

	switch env.Event {
	case string(event.KindConsentGranted):
		return nil, p.handleConsent(ctx, meetingID, env.Data, at)
	case string(event.KindDecisionFinalized):
		return nil, p.handleDecision(ctx, meetingID, env.Data, at)
	case string(event.KindActionCreated):
		return nil, p.handleAction(ctx, meetingID, env.Data, at)
	default:
		p.logger.InfoContext(ctx, "webhook event ignored", "event", env.Event, "meeting_id", meetingID)
		return nil, nil
	}
}

func (p *Processor) handleConsent(ctx context.Context, meetingID domain.MeetingID, data json.RawMessage, at time.Time) error {
	var payload struct {
		Profile string `json:"profile"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "malformed consent data")
	}
	profile, err := consent.ParseProfile(payload.Profile)
	if err != nil {
		return err
	}
	record, err := consent.NewRecordFromProfile(meetingID, profile, at)
	if err != nil {
		return err
	}
	if err := p.consents.Replace(ctx, record); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "store consent")
	}
	p.bus.Publish(ctx, event.ConsentGranted{MeetingID: meetingID, Consent: record, At: at})
	return nil
}

func (p *Processor) handleDecision(ctx context.Context, meetingID domain.MeetingID, data json.RawMessage, at time.Time) error {
	var payload struct {
		DecisionID string `json:"decisionId"`
		Title      string `json:"title"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "malformed decision data")
	}
	decisionID, err := domain.ParseDecisionID(payload.DecisionID)
	if err != nil {
		return err
	}
	decision := &meeting.Decision{
		ID:          decisionID,
		MeetingID:   meetingID,
		Title:       payload.Title,
		FinalizedAt: at,
	}
	if err := p.decisions.Put(ctx, decision); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "store decision")
	}
	p.bus.Publish(ctx, event.DecisionFinalized{MeetingID: meetingID, DecisionID: decisionID, Title: payload.Title, At: at})
	return nil
}

func (p *Processor) handleAction(ctx context.Context, meetingID domain.MeetingID, data json.RawMessage, at time.Time) error {
	var payload struct {
		ActionID string     `json:"actionId"`
		Title    string     `json:"title"`
		Assignee string     `json:"assignee"`
		DueAt    *time.Time `json:"dueAt"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "malformed action data")
	}
	actionID, err := domain.ParseActionID(payload.ActionID)
	if err != nil {
		return err
	}
	action := &meeting.Action{
		ID:        actionID,
		MeetingID: meetingID,
		Title:     payload.Title,
		Assignee:  payload.Assignee,
		Status:    meeting.ActionOpen,
		DueAt:     payload.DueAt,
		CreatedAt: at,
	}
	if err := p.actions.Put(ctx, action); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "store action")
	}
	p.bus.Publish(ctx, event.ActionCreated{
		MeetingID: meetingID,
		ActionID:  actionID,
		Assignee:  payload.Assignee,
		DueAt:     payload.DueAt,
		At:        at,
	})
	return nil
}
