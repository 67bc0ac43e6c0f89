// Package memory provides the in-memory queue backend used in tests and in
// deployments without a redis instance. Delay-awareness, supersede keys,
// and dead-letter routing behave identically to the redis backend; only
// durability across process restarts is lost.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"notarius/internal/queue"
	"notarius/pkg/platform/sentinel"
)

const defaultStallThreshold = time.Minute

type storedJob struct {
	job       queue.Job
	seq       uint64
	claimedAt time.Time
}

type queueState struct {
	waiting   map[string]*storedJob
	active    map[string]*storedJob
	completed int
	failed    int
}

type deadEntry struct {
	record queue.DeadLetterRecord
	job    queue.Job
}

// Backend keeps all queue state under one mutex. Claim contention is not a
// concern at the worker counts this process runs.
type Backend struct {
	mu         sync.Mutex
	seq        uint64
	stallAfter time.Duration
	queues     map[string]*queueState
	dead       []deadEntry
	now        func() time.Time
}

// New creates an empty backend. stallAfter bounds how long a claim may hold
// before the job counts as stalled; zero selects the default.
func New(stallAfter time.Duration) *Backend {
	if stallAfter <= 0 {
		stallAfter = defaultStallThreshold
	}
	return &Backend{
		stallAfter: stallAfter,
		queues:     make(map[string]*queueState),
		now:        time.Now,
	}
}

func (b *Backend) state(queueName string) *queueState {
	qs, ok := b.queues[queueName]
	if !ok {
		qs = &queueState{
			waiting: make(map[string]*storedJob),
			active:  make(map[string]*storedJob),
		}
		b.queues[queueName] = qs
	}
	return qs
}

func (b *Backend) Enqueue(_ context.Context, job *queue.Job) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	b.state(job.Queue).waiting[job.ID] = &storedJob{job: *job, seq: b.seq}
	return nil
}

func (b *Backend) ClaimNextEligible(_ context.Context, queueName string, now time.Time) (*queue.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	qs := b.state(queueName)
	var next *storedJob
	for _, sj := range qs.waiting {
		if sj.job.EligibleAt.After(now) {
			continue
		}
		if next == nil || sj.seq < next.seq {
			next = sj
		}
	}
	if next == nil {
		return nil, nil
	}

	delete(qs.waiting, next.job.ID)
	next.job.State = queue.StateActive
	next.claimedAt = now
	qs.active[next.job.ID] = next

	claimed := next.job
	return &claimed, nil
}

func (b *Backend) Ack(_ context.Context, queueName, jobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	qs := b.state(queueName)
	if _, ok := qs.active[jobID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(qs.active, jobID)
	qs.completed++
	return nil
}

func (b *Backend) FailWithBackoff(_ context.Context, queueName, jobID string, nextEligibleAt time.Time, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	qs := b.state(queueName)
	sj, ok := qs.active[jobID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(qs.active, jobID)
	qs.failed++

	sj.job.Attempts++
	sj.job.State = queue.StateWaiting
	sj.job.EligibleAt = nextEligibleAt
	sj.job.LastError = reason
	b.seq++
	sj.seq = b.seq
	qs.waiting[jobID] = sj
	return nil
}

func (b *Backend) MoveToDeadLetter(_ context.Context, queueName, jobID, reason string, canRetry bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	qs := b.state(queueName)
	sj, ok := qs.active[jobID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(qs.active, jobID)
	qs.failed++

	sj.job.Attempts++
	sj.job.State = queue.StateDeadLetter
	sj.job.LastError = reason

	b.dead = append(b.dead, deadEntry{
		record: queue.DeadLetterRecord{
			ID:              uuid.NewString(),
			OriginalJobID:   sj.job.ID,
			OriginalQueue:   sj.job.Queue,
			OriginalName:    sj.job.Name,
			OriginalPayload: sj.job.Payload,
			FailureReason:   reason,
			FailedAt:        b.now(),
			RetryCount:      sj.job.Attempts,
			CanRetry:        canRetry,
		},
		job: sj.job,
	})
	return nil
}

func (b *Backend) CancelByKey(_ context.Context, queueName, key string) (int, error) {
	if key == "" {
		return 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	qs := b.state(queueName)
	removed := 0
	for id, sj := range qs.waiting {
		if sj.job.Key == key {
			delete(qs.waiting, id)
			removed++
		}
	}
	return removed, nil
}

func (b *Backend) Counts(_ context.Context, queueName string) (queue.Counts, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	qs := b.state(queueName)
	counts := queue.Counts{
		Active:    len(qs.active),
		Completed: qs.completed,
		Failed:    qs.failed,
	}
	for _, sj := range qs.waiting {
		if sj.job.EligibleAt.After(now) {
			counts.Delayed++
		} else {
			counts.Waiting++
		}
	}
	for _, sj := range qs.active {
		if now.Sub(sj.claimedAt) > b.stallAfter {
			counts.Stalled++
		}
	}
	return counts, nil
}

func (b *Backend) CountDeadLetter(_ context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dead), nil
}

func (b *Backend) ListDeadLetter(_ context.Context, limit int) ([]queue.DeadLetterRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := make([]queue.DeadLetterRecord, 0, len(b.dead))
	for _, entry := range b.dead {
		records = append(records, entry.record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].FailedAt.After(records[j].FailedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (b *Backend) RetryDeadLetter(_ context.Context, recordID string) (*queue.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := -1
	for i, entry := range b.dead {
		if entry.record.ID == recordID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, sentinel.ErrNotFound
	}
	entry := b.dead[idx]
	if !entry.record.CanRetry {
		return nil, sentinel.ErrInvalidState
	}

	job := entry.job
	job.ID = uuid.NewString()
	job.Attempts = 0
	job.State = queue.StateWaiting
	job.LastError = ""
	now := b.now()
	job.EnqueuedAt = now
	job.EligibleAt = now

	b.dead = append(b.dead[:idx], b.dead[idx+1:]...)
	b.seq++
	b.state(job.Queue).waiting[job.ID] = &storedJob{job: job, seq: b.seq}

	resubmitted := job
	return &resubmitted, nil
}
