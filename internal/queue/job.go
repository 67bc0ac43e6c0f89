// Package queue implements the durable, delay-aware job queue that carries
// all deferred side effects: nudges, briefings, notifications. Jobs retry
// with jittered exponential backoff and land in a dead-letter store when
// their attempt budget is exhausted.
package queue

import (
	"encoding/json"
	"time"
)

// State is a job's lifecycle position. Transitions are one-directional
// except waiting -> active -> waiting on retry.
type State string

const (
	StateWaiting    State = "waiting"
	StateActive     State = "active"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateDeadLetter State = "dead-letter"
)

// Job is one unit of deferred work. Owned by the queue; handlers treat it as
// read-only.
type Job struct {
	ID      string          `json:"id"`
	Queue   string          `json:"queue"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`

	// Key is an optional supersede key. Enqueuing with a key does not
	// deduplicate by itself, but CancelByKey removes every waiting job that
	// carries it, which lets callers enforce at-most-one-outstanding
	// semantics per domain entity.
	Key string `json:"key,omitempty"`

	Delay       time.Duration `json:"delay"`
	EligibleAt  time.Time     `json:"eligible_at"`
	Attempts    int           `json:"attempts"`
	MaxAttempts int           `json:"max_attempts"`
	State       State         `json:"state"`
	EnqueuedAt  time.Time     `json:"enqueued_at"`
	LastError   string        `json:"last_error,omitempty"`
}

// Counts is a point-in-time census of one named queue.
type Counts struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Delayed   int `json:"delayed"`
	Stalled   int `json:"stalled"`
}

// Add returns the element-wise sum, used to aggregate across queues.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Waiting:   c.Waiting + o.Waiting,
		Active:    c.Active + o.Active,
		Completed: c.Completed + o.Completed,
		Failed:    c.Failed + o.Failed,
		Delayed:   c.Delayed + o.Delayed,
		Stalled:   c.Stalled + o.Stalled,
	}
}

// DeadLetterRecord preserves full diagnostic context for a job that
// exhausted its attempts or failed fatally. Created only by the queue's
// failure path.
type DeadLetterRecord struct {
	ID              string          `json:"id"`
	OriginalJobID   string          `json:"original_job_id"`
	OriginalQueue   string          `json:"original_queue"`
	OriginalName    string          `json:"original_name"`
	OriginalPayload json.RawMessage `json:"original_payload"`
	FailureReason   string          `json:"failure_reason"`
	FailedAt        time.Time       `json:"failed_at"`
	RetryCount      int             `json:"retry_count"`

	// CanRetry is false when the final failure was fatal (non-retryable by
	// the handler's own declaration); such records cannot be re-submitted.
	CanRetry bool `json:"can_retry"`
}
