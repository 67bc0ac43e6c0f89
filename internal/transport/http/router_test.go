package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notarius/internal/audit"
	"notarius/internal/queue"
	"notarius/internal/webhook"
	"notarius/pkg/domain"
	"notarius/pkg/platform/secrets"
	"notarius/pkg/platform/sentinel"
	"notarius/pkg/testutil"
)

type fakeQueues struct {
	counts     map[string]queue.Counts
	dead       []queue.DeadLetterRecord
	retried    []string
	retryErr   error
	retriedJob *queue.Job
}

func (f *fakeQueues) Counts(_ context.Context, queueName string) (queue.Counts, error) {
	return f.counts[queueName], nil
}

func (f *fakeQueues) AggregateCounts(ctx context.Context, queueNames ...string) (queue.Counts, error) {
	var total queue.Counts
	for _, name := range queueNames {
		c, _ := f.Counts(ctx, name)
		total = total.Add(c)
	}
	return total, nil
}

func (f *fakeQueues) CountDeadLetter(_ context.Context) (int, error) {
	return len(f.dead), nil
}

func (f *fakeQueues) ListDeadLetter(_ context.Context, limit int) ([]queue.DeadLetterRecord, error) {
	if limit > 0 && limit < len(f.dead) {
		return f.dead[:limit], nil
	}
	return f.dead, nil
}

func (f *fakeQueues) RetryDeadLetter(_ context.Context, recordID string) (*queue.Job, error) {
	if f.retryErr != nil {
		return nil, f.retryErr
	}
	f.retried = append(f.retried, recordID)
	return f.retriedJob, nil
}

type fakeAuditor struct {
	entries []audit.Entry
	report  *audit.DeleteReport
	deleted []domain.MeetingID
}

func (f *fakeAuditor) List(_ context.Context, _ domain.MeetingID) ([]audit.Entry, error) {
	return f.entries, nil
}

func (f *fakeAuditor) DeleteAll(_ context.Context, meetingID domain.MeetingID, _ string) (*audit.DeleteReport, error) {
	f.deleted = append(f.deleted, meetingID)
	return f.report, nil
}

type fakeProcessor struct {
	challenge *webhook.ChallengeResponse
	err       error
	bodies    [][]byte
}

func (f *fakeProcessor) Process(_ context.Context, _ string, body []byte) (*webhook.ChallengeResponse, error) {
	f.bodies = append(f.bodies, body)
	return f.challenge, f.err
}

const operatorToken = "super-secret-operator-token"

func newTestRouter(t *testing.T, queues *fakeQueues, auditor *fakeAuditor, processor *fakeProcessor) http.Handler {
	t.Helper()
	hash, err := secrets.Hash(operatorToken)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(queues, auditor, processor,
		map[string]string{"zoom": "provider-secret"},
		hash, prometheus.NewRegistry(), logger)
	return h.Router()
}

func newTestServer(t *testing.T, queues *fakeQueues, auditor *fakeAuditor, processor *fakeProcessor) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(t, queues, auditor, processor))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := newTestRouter(t, &fakeQueues{}, &fakeAuditor{}, &fakeProcessor{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestQueueStats(t *testing.T) {
	queues := &fakeQueues{
		counts: map[string]queue.Counts{
			queue.QueueNudging:  {Waiting: 2, Delayed: 1},
			queue.QueueBriefing: {Active: 1, Completed: 5},
		},
		dead: []queue.DeadLetterRecord{
			{ID: "rec-1", OriginalQueue: queue.QueueNudging},
			{ID: "rec-2", OriginalQueue: queue.QueueBriefing},
		},
	}
	router := newTestRouter(t, queues, &fakeAuditor{}, &fakeProcessor{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/queues/stats"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	stats := testutil.UnmarshalResponse[StatsResponse](t, rr)
	assert.Equal(t, 2, stats.Total.Waiting)
	assert.Equal(t, 5, stats.Total.Completed)
	assert.Equal(t, 2, stats.DeadLetter)
	assert.Len(t, stats.Queues, len(queue.Queues))
}

func TestListDeadLetterRejectsBadLimit(t *testing.T) {
	router := newTestRouter(t, &fakeQueues{}, &fakeAuditor{}, &fakeProcessor{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/queues/dead-letter?limit=nope"))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestRetryDeadLetterRequiresOperatorToken(t *testing.T) {
	queues := &fakeQueues{retriedJob: &queue.Job{ID: "job-9", Queue: queue.QueueNudging}}
	srv := newTestServer(t, queues, &fakeAuditor{}, &fakeProcessor{})

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/queues/dead-letter/rec-1/retry", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, queues.retried)

	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/queues/dead-letter/rec-1/retry", nil)
	req.Header.Set("X-Operator-Token", operatorToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"rec-1"}, queues.retried)
}

func TestRetryDeadLetterNotFound(t *testing.T) {
	queues := &fakeQueues{retryErr: sentinel.ErrNotFound}
	srv := newTestServer(t, queues, &fakeAuditor{}, &fakeProcessor{})

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/queues/dead-letter/missing/retry", nil)
	req.Header.Set("X-Operator-Token", operatorToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuditTrail(t *testing.T) {
	auditor := &fakeAuditor{entries: []audit.Entry{
		{ID: "e1", MeetingID: "M-1", Event: audit.EventConsentGranted, Policy: audit.PolicyConsent, OccurredAt: time.Now()},
	}}
	srv := newTestServer(t, &fakeQueues{}, auditor, &fakeProcessor{})

	resp, err := http.Get(srv.URL + "/meetings/M-1/audit")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Entries []audit.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, audit.EventConsentGranted, body.Entries[0].Event)
}

func TestDeleteAllGuardedAndReported(t *testing.T) {
	auditor := &fakeAuditor{report: &audit.DeleteReport{Actions: 2, Decisions: 1, Briefs: 1}}
	router := newTestRouter(t, &fakeQueues{}, auditor, &fakeProcessor{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/meetings/M-1"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Empty(t, auditor.deleted)

	req := testutil.NewJSONRequest(t, http.MethodDelete, "/meetings/M-1",
		map[string]string{"reason": "gdpr erasure request"})
	req.Header.Set("X-Operator-Token", operatorToken)
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, []domain.MeetingID{"M-1"}, auditor.deleted)

	body := testutil.UnmarshalResponse[struct {
		Deleted audit.DeleteReport `json:"deleted"`
	}](t, rr)
	assert.Equal(t, 2, body.Deleted.Actions)
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookUnknownProvider(t *testing.T) {
	srv := newTestServer(t, &fakeQueues{}, &fakeAuditor{}, &fakeProcessor{})

	resp, err := http.Post(srv.URL+"/webhooks/teams", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	processor := &fakeProcessor{}
	srv := newTestServer(t, &fakeQueues{}, &fakeAuditor{}, processor)

	body := []byte(`{"meetingId":"M-1","event":"action.created","data":{"actionId":"A-91"}}`)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhooks/zoom", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", "deadbeef")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, processor.bodies)
}

func TestWebhookAcceptsSignedEvent(t *testing.T) {
	processor := &fakeProcessor{}
	srv := newTestServer(t, &fakeQueues{}, &fakeAuditor{}, processor)

	body := []byte(`{"meetingId":"M-1","event":"action.created","data":{"actionId":"A-91"}}`)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhooks/zoom", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("provider-secret", body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, processor.bodies, 1)
}

func TestWebhookChallengeEchoed(t *testing.T) {
	processor := &fakeProcessor{challenge: &webhook.ChallengeResponse{PlainToken: "abc", EncryptedToken: "ff00"}}
	srv := newTestServer(t, &fakeQueues{}, &fakeAuditor{}, processor)

	body := []byte(`{"event":"endpoint.url_validation","data":{"plainToken":"abc"}}`)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhooks/zoom", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("provider-secret", body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var challenge webhook.ChallengeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&challenge))
	assert.Equal(t, "abc", challenge.PlainToken)
}
