package queue

import (
	"context"
	"time"
)

// Backend is the durable storage contract behind the queue. The in-memory
// and redis implementations are interchangeable; the worker harness and
// every subscriber stay backend-agnostic.
//
// Implementations return sentinel.ErrNotFound for unknown job or record IDs
// and sentinel.ErrInvalidState for operations against the wrong lifecycle
// state (e.g. retrying a dead-letter record with CanRetry=false).
type Backend interface {
	// Enqueue stores a waiting job. The job's ID, EligibleAt, and State are
	// already populated by the queue front-end.
	Enqueue(ctx context.Context, job *Job) error

	// ClaimNextEligible atomically moves the next eligible job (FIFO among
	// jobs whose EligibleAt has elapsed) to active and returns it. Returns
	// (nil, nil) when no job is eligible.
	ClaimNextEligible(ctx context.Context, queueName string, now time.Time) (*Job, error)

	// Ack marks an active job completed and drops it from the active set.
	Ack(ctx context.Context, queueName, jobID string) error

	// FailWithBackoff records a failed attempt: attempts is incremented and
	// the job returns to waiting, eligible at nextEligibleAt.
	FailWithBackoff(ctx context.Context, queueName, jobID string, nextEligibleAt time.Time, reason string) error

	// MoveToDeadLetter records the final failed attempt and routes the job
	// to the dead-letter store. The job is no longer scheduled.
	MoveToDeadLetter(ctx context.Context, queueName, jobID, reason string, canRetry bool) error

	// CancelByKey removes every waiting job carrying the supersede key from
	// future eligibility. Active jobs are not preempted. Returns the number
	// of jobs removed.
	CancelByKey(ctx context.Context, queueName, key string) (int, error)

	// Counts reports the queue's census. Stalled counts active jobs whose
	// claim is older than the backend's stall threshold.
	Counts(ctx context.Context, queueName string) (Counts, error)

	// CountDeadLetter reports the number of records in the dead-letter
	// store across all queues.
	CountDeadLetter(ctx context.Context) (int, error)

	// ListDeadLetter returns up to limit records ordered by FailedAt
	// descending.
	ListDeadLetter(ctx context.Context, limit int) ([]DeadLetterRecord, error)

	// RetryDeadLetter re-submits a CanRetry record to its original queue
	// with attempts reset to zero, removes the record, and returns the new
	// job.
	RetryDeadLetter(ctx context.Context, recordID string) (*Job, error)
}
