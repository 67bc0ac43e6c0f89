package queue

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dErrors "notarius/pkg/domain-errors"
)

// Run starts the worker pools (Options.Workers per named queue) and blocks
// until ctx is cancelled. Handler failures never escape the loop: every
// failure is classified and routed to retry or dead-letter.
func (q *Queue) Run(ctx context.Context, queueNames ...string) error {
	if len(queueNames) == 0 {
		queueNames = Queues
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range queueNames {
		for i := 0; i < q.opts.Workers; i++ {
			g.Go(func() error {
				return q.workerLoop(ctx, name)
			})
		}
	}
	return g.Wait()
}

func (q *Queue) workerLoop(ctx context.Context, queueName string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := q.backend.ClaimNextEligible(ctx, queueName, q.now())
		if err != nil {
			q.logger.ErrorContext(ctx, "claim failed",
				"queue", queueName,
				"error", err,
			)
			if !q.sleep(ctx, q.opts.PollInterval) {
				return ctx.Err()
			}
			continue
		}
		if job == nil {
			if !q.sleep(ctx, q.opts.PollInterval) {
				return ctx.Err()
			}
			continue
		}

		q.process(ctx, job)
	}
}

// sleep blocks for d or until ctx is done; reports whether to keep running.
func (q *Queue) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (q *Queue) process(ctx context.Context, job *Job) {
	ctx, span := q.tracer.Start(ctx, "queue.process",
		trace.WithAttributes(
			attribute.String("queue.name", job.Queue),
			attribute.String("job.name", job.Name),
			attribute.String("job.id", job.ID),
			attribute.Int("job.attempt", job.Attempts+1),
		))
	defer span.End()

	start := q.now()
	err := q.invoke(ctx, job)
	elapsed := q.now().Sub(start)
	if q.metrics != nil {
		q.metrics.ObserveDuration(job.Queue, job.Name, elapsed.Seconds())
	}

	if err == nil {
		if ackErr := q.backend.Ack(ctx, job.Queue, job.ID); ackErr != nil {
			q.logger.ErrorContext(ctx, "ack failed",
				"queue", job.Queue, "job_id", job.ID, "error", ackErr)
		}
		if q.metrics != nil {
			q.metrics.IncProcessed(job.Queue, job.Name, "completed")
		}
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	attempt := job.Attempts + 1
	switch {
	case dErrors.HasCode(err, dErrors.CodeFatal) || dErrors.HasCode(err, dErrors.CodeValidation):
		q.deadLetter(ctx, job, err, false)
	case attempt >= job.MaxAttempts:
		q.deadLetter(ctx, job, err, true)
	default:
		delay := nextBackoff(q.opts.BackoffBase, q.opts.BackoffCap, attempt)
		if failErr := q.backend.FailWithBackoff(ctx, job.Queue, job.ID, q.now().Add(delay), err.Error()); failErr != nil {
			q.logger.ErrorContext(ctx, "retry scheduling failed",
				"queue", job.Queue, "job_id", job.ID, "error", failErr)
		}
		if q.metrics != nil {
			q.metrics.IncProcessed(job.Queue, job.Name, "retried")
		}
		q.logger.WarnContext(ctx, "job failed, retry scheduled",
			"queue", job.Queue,
			"job", job.Name,
			"job_id", job.ID,
			"attempt", attempt,
			"max_attempts", job.MaxAttempts,
			"retry_in", delay.String(),
			"error", err,
		)
	}
}

func (q *Queue) deadLetter(ctx context.Context, job *Job, cause error, canRetry bool) {
	if dlErr := q.backend.MoveToDeadLetter(ctx, job.Queue, job.ID, cause.Error(), canRetry); dlErr != nil {
		q.logger.ErrorContext(ctx, "dead-letter routing failed",
			"queue", job.Queue, "job_id", job.ID, "error", dlErr)
		return
	}
	if q.metrics != nil {
		q.metrics.IncProcessed(job.Queue, job.Name, "dead-letter")
		q.metrics.IncDeadLettered(job.Queue, job.Name)
	}
	q.logger.ErrorContext(ctx, "job moved to dead-letter",
		"queue", job.Queue,
		"job", job.Name,
		"job_id", job.ID,
		"attempts", job.Attempts+1,
		"can_retry", canRetry,
		"error", cause,
	)
}

// invoke runs the handler under the per-execution timeout. A timeout or a
// panic counts as a failed attempt like any other handler error. A handler
// already dispatched cannot be preempted; on timeout the goroutine is left
// to finish against its cancelled context.
func (q *Queue) invoke(parent context.Context, job *Job) error {
	q.mu.RLock()
	handler, ok := q.handlers[job.Name]
	q.mu.RUnlock()
	if !ok {
		return dErrors.Newf(dErrors.CodeFatal, "no handler registered for job %q", job.Name)
	}

	ctx, cancel := context.WithTimeout(parent, q.opts.JobTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- dErrors.Newf(dErrors.CodeTransient, "handler panic: %v", r)
			}
		}()
		done <- handler(ctx, job)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return dErrors.Newf(dErrors.CodeTimeout, "handler exceeded %s execution timeout", q.opts.JobTimeout)
		}
		return ctx.Err()
	}
}
