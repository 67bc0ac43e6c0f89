package nudge

//go:generate mockgen -source=router.go -destination=mocks/mocks.go -package=mocks Jobs,ActionReader,MeetingReader,BriefWriter,PolicyGate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"notarius/internal/consent"
	"notarius/internal/event"
	"notarius/internal/meeting"
	"notarius/internal/notify"
	"notarius/internal/nudge/mocks"
	"notarius/internal/queue"
	"notarius/internal/redact"
	"notarius/pkg/domain"
	"notarius/pkg/platform/sentinel"
)

// captureNotifier records sent messages for assertions.
type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (c *captureNotifier) Send(_ context.Context, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureNotifier) messages() []notify.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Message(nil), c.sent...)
}

type RouterSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	jobs     *mocks.MockJobs
	actions  *mocks.MockActionReader
	meetings *mocks.MockMeetingReader
	briefs   *mocks.MockBriefWriter
	policy   *mocks.MockPolicyGate
	notifier *captureNotifier
	router   *Router
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.jobs = mocks.NewMockJobs(s.ctrl)
	s.actions = mocks.NewMockActionReader(s.ctrl)
	s.meetings = mocks.NewMockMeetingReader(s.ctrl)
	s.briefs = mocks.NewMockBriefWriter(s.ctrl)
	s.policy = mocks.NewMockPolicyGate(s.ctrl)
	s.notifier = &captureNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(
		s.jobs, s.actions, s.meetings, s.briefs, s.policy, s.notifier,
		redact.New(redact.DefaultRules()), logger,
		Config{Window: 48 * time.Hour, EscalationSteps: 2, EscalationInterval: 24 * time.Hour},
	)
}

func (s *RouterSuite) TearDownTest() {
	s.ctrl.Finish()
}

func allow() consent.Decision {
	return consent.Decision{Allowed: true, Policy: consent.PolicyOK}
}

func nudgeJob(payload nudgePayload) *queue.Job {
	raw, _ := json.Marshal(payload)
	return &queue.Job{ID: "job-1", Queue: queue.QueueNudging, Name: JobNudgeAction, Payload: raw}
}

func (s *RouterSuite) TestActionCreatedSupersedesThenSchedules() {
	gomock.InOrder(
		s.jobs.EXPECT().Cancel(gomock.Any(), queue.QueueNudging, "A-91").Return(0, nil),
		s.jobs.EXPECT().
			Enqueue(gomock.Any(), queue.QueueNudging, JobNudgeAction,
				nudgePayload{ActionID: "A-91", MeetingID: "M-1", Tier: 1},
				gomock.Any(), gomock.Any()).
			Return("job-1", nil),
	)

	err := s.router.onEvent(context.Background(), event.ActionCreated{
		MeetingID: "M-1",
		ActionID:  "A-91",
		Assignee:  "anna@example.com",
		At:        time.Now(),
	})
	s.Require().NoError(err)
}

func (s *RouterSuite) TestHandleNudgeSendsFirstReminderAndArmsEscalation() {
	action := &meeting.Action{
		ID:        "A-91",
		MeetingID: "M-1",
		Title:     "Skicka offerten",
		Assignee:  "anna@example.com",
		Status:    meeting.ActionOpen,
	}
	s.actions.EXPECT().Get(gomock.Any(), domain.ActionID("A-91")).Return(action, nil)
	s.policy.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(allow(), nil)
	s.jobs.EXPECT().
		Enqueue(gomock.Any(), queue.QueueNudging, JobNudgeAction,
			nudgePayload{ActionID: "A-91", MeetingID: "M-1", Tier: 2},
			gomock.Any(), gomock.Any()).
		Return("job-2", nil)

	err := s.router.HandleNudge(context.Background(), nudgeJob(nudgePayload{ActionID: "A-91", MeetingID: "M-1", Tier: 1}))
	s.Require().NoError(err)

	sent := s.notifier.messages()
	s.Require().Len(sent, 1)
	s.Equal(notify.KindNudge, sent[0].Kind)
	s.Equal("anna@example.com", sent[0].Recipient)
	s.Contains(sent[0].Body, "Hi Anna")
	s.Contains(sent[0].Body, "Skicka offerten")
}

func (s *RouterSuite) TestHandleNudgeLastTierDoesNotRearm() {
	action := &meeting.Action{ID: "A-91", MeetingID: "M-1", Assignee: "anna@example.com", Status: meeting.ActionOpen}
	s.actions.EXPECT().Get(gomock.Any(), domain.ActionID("A-91")).Return(action, nil)
	s.policy.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(allow(), nil)

	err := s.router.HandleNudge(context.Background(), nudgeJob(nudgePayload{ActionID: "A-91", MeetingID: "M-1", Tier: 3}))
	s.Require().NoError(err)

	sent := s.notifier.messages()
	s.Require().Len(sent, 1)
	s.Equal(notify.KindEscalation, sent[0].Kind)
}

func (s *RouterSuite) TestHandleNudgeAcknowledgedActionIsNoop() {
	action := &meeting.Action{ID: "A-91", MeetingID: "M-1", Status: meeting.ActionAcknowledged}
	s.actions.EXPECT().Get(gomock.Any(), domain.ActionID("A-91")).Return(action, nil)

	err := s.router.HandleNudge(context.Background(), nudgeJob(nudgePayload{ActionID: "A-91", MeetingID: "M-1", Tier: 1}))
	s.Require().NoError(err)
	s.Empty(s.notifier.messages())
}

func (s *RouterSuite) TestHandleNudgeDeletedActionIsNoop() {
	s.actions.EXPECT().Get(gomock.Any(), domain.ActionID("A-91")).Return(nil, sentinel.ErrNotFound)

	err := s.router.HandleNudge(context.Background(), nudgeJob(nudgePayload{ActionID: "A-91", MeetingID: "M-1", Tier: 1}))
	s.Require().NoError(err)
	s.Empty(s.notifier.messages())
}

func (s *RouterSuite) TestHandleNudgePolicyDenialSkipsSilently() {
	action := &meeting.Action{ID: "A-91", MeetingID: "M-1", Status: meeting.ActionOpen}
	s.actions.EXPECT().Get(gomock.Any(), domain.ActionID("A-91")).Return(action, nil)
	s.policy.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		Return(consent.Decision{Allowed: false, Policy: consent.PolicyScope, Reason: "scope chat not granted"}, nil)

	err := s.router.HandleNudge(context.Background(), nudgeJob(nudgePayload{ActionID: "A-91", MeetingID: "M-1", Tier: 1}))
	s.Require().NoError(err)
	s.Empty(s.notifier.messages())
}

func (s *RouterSuite) TestDecisionFinalizedGatedOnDocumentScope() {
	s.policy.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req consent.Request) (consent.Decision, error) {
			s.Equal(consent.ClassDocument, req.DataClass)
			return consent.Decision{Allowed: false, Policy: consent.PolicyScope}, nil
		})

	err := s.router.onEvent(context.Background(), event.DecisionFinalized{
		MeetingID:  "M-1",
		DecisionID: "D-7",
		Title:      "Byt leverantör",
		At:         time.Now(),
	})
	s.Require().NoError(err)
}

func (s *RouterSuite) TestDistributeBriefStoresRedactedBodyAndNotifiesOrganizer() {
	detail := &meeting.Detail{ID: "M-1", Title: "Styrelsemöte", Organizer: "ordf@example.com"}
	s.meetings.EXPECT().GetMeetingDetail(gomock.Any(), domain.MeetingID("M-1")).Return(detail, nil)

	var stored *meeting.Brief
	s.briefs.EXPECT().Put(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *meeting.Brief) error {
			stored = b
			return nil
		})

	payload, _ := json.Marshal(briefPayload{
		MeetingID:  "M-1",
		DecisionID: "D-7",
		Title:      "Kontakta Anna, 850412-1234, om avtalet",
	})
	job := &queue.Job{ID: "job-3", Queue: queue.QueueBriefing, Name: JobDistributeBrief, Payload: payload}

	err := s.router.HandleDistributeBrief(context.Background(), job)
	s.Require().NoError(err)

	s.Require().NotNil(stored)
	s.NotContains(stored.Body, "850412-1234")
	s.Contains(stored.Body, "[REDACTED-PNR]")

	sent := s.notifier.messages()
	s.Require().Len(sent, 1)
	s.Equal(notify.KindBrief, sent[0].Kind)
	s.Equal("ordf@example.com", sent[0].Recipient)
	s.Equal(stored.Body, sent[0].Body)
}

func (s *RouterSuite) TestCancelForMeetingCancelsEveryAction() {
	actions := []meeting.Action{
		{ID: "A-1", MeetingID: "M-1"},
		{ID: "A-2", MeetingID: "M-1"},
	}
	s.actions.EXPECT().ListByMeeting(gomock.Any(), domain.MeetingID("M-1")).Return(actions, nil)
	s.jobs.EXPECT().Cancel(gomock.Any(), queue.QueueNudging, "A-1").Return(1, nil)
	s.jobs.EXPECT().Cancel(gomock.Any(), queue.QueueNudging, "A-2").Return(0, nil)

	err := s.router.CancelForMeeting(context.Background(), "M-1")
	s.Require().NoError(err)
}

func (s *RouterSuite) TestCancelRejectsEmptyActionID() {
	err := s.router.Cancel(context.Background(), "")
	s.Require().Error(err)
}
