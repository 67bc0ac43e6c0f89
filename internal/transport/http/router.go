// Package http exposes the inspection and compliance surface: queue
// stats, dead-letter management, audit trails, delete-all, and webhook
// ingress.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notarius/internal/audit"
	"notarius/internal/queue"
	"notarius/internal/webhook"
	"notarius/pkg/domain"
	"notarius/pkg/platform/middleware/admin"
	"notarius/pkg/platform/middleware/metadata"
)

// QueueService is the slice of the queue surface the handlers need.
type QueueService interface {
	AggregateCounts(ctx context.Context, queueNames ...string) (queue.Counts, error)
	Counts(ctx context.Context, queueName string) (queue.Counts, error)
	CountDeadLetter(ctx context.Context) (int, error)
	ListDeadLetter(ctx context.Context, limit int) ([]queue.DeadLetterRecord, error)
	RetryDeadLetter(ctx context.Context, recordID string) (*queue.Job, error)
}

// AuditService reads audit trails and runs the delete-all flow.
type AuditService interface {
	List(ctx context.Context, meetingID domain.MeetingID) ([]audit.Entry, error)
	DeleteAll(ctx context.Context, meetingID domain.MeetingID, reason string) (*audit.DeleteReport, error)
}

// WebhookProcessor ingests verified provider callbacks.
type WebhookProcessor interface {
	Process(ctx context.Context, secret string, body []byte) (*webhook.ChallengeResponse, error)
}

// Handler is the thin HTTP layer over the orchestration services.
type Handler struct {
	queues    QueueService
	auditor   AuditService
	processor WebhookProcessor

	secrets   map[string]string
	verifiers map[string]webhook.Verifier

	operatorTokenHash string
	registry          *prometheus.Registry
	logger            *slog.Logger
}

// Option customizes the handler.
type Option func(*Handler)

// WithVerifier overrides the signature verifier for one provider. The
// default for every configured provider is HMAC-SHA256.
func WithVerifier(provider string, v webhook.Verifier) Option {
	return func(h *Handler) { h.verifiers[provider] = v }
}

func NewHandler(queues QueueService, auditor AuditService, processor WebhookProcessor,
	secrets map[string]string, operatorTokenHash string,
	registry *prometheus.Registry, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		queues:            queues,
		auditor:           auditor,
		processor:         processor,
		secrets:           secrets,
		verifiers:         make(map[string]webhook.Verifier),
		operatorTokenHash: operatorTokenHash,
		registry:          registry,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router wires all endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	if h.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/queues", func(r chi.Router) {
		r.Get("/stats", h.handleQueueStats)
		r.Get("/dead-letter", h.handleListDeadLetter)
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireOperatorToken(h.operatorTokenHash, h.logger))
			r.Post("/dead-letter/{recordID}/retry", h.handleRetryDeadLetter)
		})
	})

	r.Route("/meetings/{meetingID}", func(r chi.Router) {
		r.Get("/audit", h.handleAuditTrail)
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireOperatorToken(h.operatorTokenHash, h.logger))
			r.Delete("/", h.handleDeleteAll)
		})
	})

	r.Post("/webhooks/{provider}", h.handleWebhook)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
