package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	qmetrics "notarius/internal/queue/metrics"
	dErrors "notarius/pkg/domain-errors"
)

// Named queues carried by the orchestration core.
const (
	QueueMeetingProcessing = "meeting-processing"
	QueueBriefing          = "briefing"
	QueueNotifications     = "notifications"
	QueueNudging           = "nudging"
)

// Queues lists every named queue, in the order stats are aggregated.
var Queues = []string{QueueMeetingProcessing, QueueBriefing, QueueNotifications, QueueNudging}

// HandlerFunc executes one job. Returning nil acks the job. A plain error
// (or a CodeTransient/CodeTimeout coded error) schedules a backoff retry;
// wrap with Fatal to route straight to the dead-letter store.
type HandlerFunc func(ctx context.Context, job *Job) error

// Fatal marks err non-retryable: the worker skips remaining attempts and
// dead-letters the job immediately.
func Fatal(err error) error {
	return dErrors.Wrap(err, dErrors.CodeFatal, "non-retryable")
}

// Options tunes the queue front-end and worker harness.
type Options struct {
	Workers            int
	JobTimeout         time.Duration
	PollInterval       time.Duration
	BackoffBase        time.Duration
	BackoffCap         time.Duration
	DefaultMaxAttempts int
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 30 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 2 * time.Second
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = 10 * time.Minute
	}
	if o.DefaultMaxAttempts <= 0 {
		o.DefaultMaxAttempts = 3
	}
	return o
}

// Queue is the front-end over a Backend: it validates and enqueues jobs,
// runs the worker pools, and exposes the inspection surface.
type Queue struct {
	backend Backend
	logger  *slog.Logger
	metrics *qmetrics.Metrics
	opts    Options
	tracer  trace.Tracer
	now     func() time.Time

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// New creates a queue over the given backend. metrics may be nil.
func New(backend Backend, logger *slog.Logger, metrics *qmetrics.Metrics, opts Options) *Queue {
	return &Queue{
		backend:  backend,
		logger:   logger,
		metrics:  metrics,
		opts:     opts.withDefaults(),
		tracer:   otel.Tracer("notarius/queue"),
		now:      time.Now,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds a handler to a job name. Call before Run; jobs with no
// registered handler dead-letter on first claim.
func (q *Queue) Register(jobName string, h HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobName] = h
}

// EnqueueOption customizes one enqueue call.
type EnqueueOption func(*Job)

// WithDelay defers eligibility by d from enqueue time.
func WithDelay(d time.Duration) EnqueueOption {
	return func(j *Job) { j.Delay = d }
}

// WithMaxAttempts overrides the default attempt budget.
func WithMaxAttempts(n int) EnqueueOption {
	return func(j *Job) { j.MaxAttempts = n }
}

// WithKey attaches a supersede key (see Job.Key).
func WithKey(key string) EnqueueOption {
	return func(j *Job) { j.Key = key }
}

// Enqueue validates and stores a job, returning its ID. The payload is
// marshalled to JSON; a payload that cannot be marshalled is rejected with
// CodeValidation and never enters the queue.
func (q *Queue) Enqueue(ctx context.Context, queueName, jobName string, payload any, opts ...EnqueueOption) (string, error) {
	if queueName == "" || jobName == "" {
		return "", dErrors.New(dErrors.CodeValidation, "queue and job name are required")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "job payload is not serializable")
	}

	now := q.now()
	job := &Job{
		ID:          uuid.NewString(),
		Queue:       queueName,
		Name:        jobName,
		Payload:     raw,
		MaxAttempts: q.opts.DefaultMaxAttempts,
		State:       StateWaiting,
		EnqueuedAt:  now,
	}
	for _, opt := range opts {
		opt(job)
	}
	if job.MaxAttempts <= 0 {
		return "", dErrors.New(dErrors.CodeValidation, "max attempts must be positive")
	}
	if job.Delay < 0 {
		return "", dErrors.New(dErrors.CodeValidation, "delay cannot be negative")
	}
	job.EligibleAt = now.Add(job.Delay)

	if err := q.backend.Enqueue(ctx, job); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "enqueue failed")
	}
	if q.metrics != nil {
		q.metrics.IncEnqueued(queueName, jobName)
	}
	return job.ID, nil
}

// Cancel removes every waiting job on queueName that carries key.
func (q *Queue) Cancel(ctx context.Context, queueName, key string) (int, error) {
	return q.backend.CancelByKey(ctx, queueName, key)
}

// Counts reports the census of one named queue.
func (q *Queue) Counts(ctx context.Context, queueName string) (Counts, error) {
	return q.backend.Counts(ctx, queueName)
}

// AggregateCounts sums the census across the given queues.
func (q *Queue) AggregateCounts(ctx context.Context, queueNames ...string) (Counts, error) {
	var total Counts
	for _, name := range queueNames {
		c, err := q.backend.Counts(ctx, name)
		if err != nil {
			return Counts{}, err
		}
		total = total.Add(c)
	}
	return total, nil
}

// CountDeadLetter reports the dead-letter census across all queues.
func (q *Queue) CountDeadLetter(ctx context.Context) (int, error) {
	return q.backend.CountDeadLetter(ctx)
}

// ListDeadLetter returns up to limit records, failedAt descending.
func (q *Queue) ListDeadLetter(ctx context.Context, limit int) ([]DeadLetterRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return q.backend.ListDeadLetter(ctx, limit)
}

// RetryDeadLetter re-submits a retryable dead-letter record to its original
// queue with attempts reset to zero.
func (q *Queue) RetryDeadLetter(ctx context.Context, recordID string) (*Job, error) {
	return q.backend.RetryDeadLetter(ctx, recordID)
}
