// Package redisq implements the queue backend on redis. Scheduled jobs live
// in a per-queue sorted set scored by eligibility time with a per-queue
// enqueue sequence folded into the low digits, so delay, FIFO ordering among
// eligible jobs (including same-millisecond ties), and cancellation are all
// plain sorted-set operations. Claiming is a single Lua script to keep the
// waiting->active transition atomic across competing workers.
package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"notarius/internal/queue"
	"notarius/pkg/platform/sentinel"
)

const (
	keyPrefix             = "notarius:queue"
	defaultStallThreshold = time.Minute

	// scoreScale shifts eligibility milliseconds left to make room for an
	// enqueue sequence in the low digits. Jobs sharing an eligibility
	// millisecond then claim in enqueue order; the sequence wraps at
	// scoreScale, so ordering within one millisecond holds for up to a
	// thousand enqueues.
	scoreScale = 1000
)

// claimScript pops the lowest-scored eligible member from the scheduled set
// (ARGV[1] is the scaled eligibility bound) and parks it in the active set,
// scored by claim time in plain milliseconds (ARGV[2]).
var claimScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)
if #ids == 0 then
  return false
end
local id = ids[1]
redis.call('ZREM', KEYS[1], id)
redis.call('ZADD', KEYS[2], ARGV[2], id)
return id
`)

// Backend implements queue.Backend on a redis client.
type Backend struct {
	rdb        redis.Cmdable
	stallAfter time.Duration
}

// New creates a redis queue backend. stallAfter bounds how long a claim may
// hold before the job counts as stalled; zero selects the default.
func New(rdb redis.Cmdable, stallAfter time.Duration) *Backend {
	if stallAfter <= 0 {
		stallAfter = defaultStallThreshold
	}
	return &Backend{rdb: rdb, stallAfter: stallAfter}
}

func scheduledKey(q string) string { return fmt.Sprintf("%s:%s:scheduled", keyPrefix, q) }
func activeKey(q string) string    { return fmt.Sprintf("%s:%s:active", keyPrefix, q) }
func jobKey(q, id string) string   { return fmt.Sprintf("%s:%s:job:%s", keyPrefix, q, id) }
func completedKey(q string) string { return fmt.Sprintf("%s:%s:completed", keyPrefix, q) }
func failedKey(q string) string    { return fmt.Sprintf("%s:%s:failed", keyPrefix, q) }

func keyIndexKey(q, k string) string { return fmt.Sprintf("%s:%s:key:%s", keyPrefix, q, k) }
func seqKey(q string) string         { return fmt.Sprintf("%s:%s:seq", keyPrefix, q) }

func deadSetKey() string             { return keyPrefix + ":dead" }
func deadRecordKey(id string) string { return keyPrefix + ":dead:rec:" + id }

func scheduleScore(eligibleAt time.Time, seq int64) float64 {
	return float64(eligibleAt.UnixMilli()*scoreScale + seq%scoreScale)
}

// eligibilityBound is the highest scaled score eligible at now: every
// sequence slot of the current millisecond is included.
func eligibilityBound(now time.Time) int64 {
	return now.UnixMilli()*scoreScale + scoreScale - 1
}

func (b *Backend) nextSeq(ctx context.Context, queueName string) (int64, error) {
	seq, err := b.rdb.Incr(ctx, seqKey(queueName)).Result()
	if err != nil {
		return 0, fmt.Errorf("enqueue sequence: %w", err)
	}
	return seq, nil
}

// deadEnvelope stores the record together with the original job so a retry
// can reconstruct it without a second lookup.
type deadEnvelope struct {
	Record queue.DeadLetterRecord `json:"record"`
	Job    queue.Job              `json:"job"`
}

func (b *Backend) Enqueue(ctx context.Context, job *queue.Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	seq, err := b.nextSeq(ctx, job.Queue)
	if err != nil {
		return err
	}

	pipe := b.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(job.Queue, job.ID), raw, 0)
	pipe.ZAdd(ctx, scheduledKey(job.Queue), redis.Z{
		Score:  scheduleScore(job.EligibleAt, seq),
		Member: job.ID,
	})
	if job.Key != "" {
		pipe.SAdd(ctx, keyIndexKey(job.Queue, job.Key), job.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

func (b *Backend) ClaimNextEligible(ctx context.Context, queueName string, now time.Time) (*queue.Job, error) {
	res, err := claimScript.Run(ctx, b.rdb,
		[]string{scheduledKey(queueName), activeKey(queueName)},
		eligibilityBound(now), now.UnixMilli(),
	).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	jobID, ok := res.(string)
	if !ok || jobID == "" {
		return nil, nil
	}

	job, err := b.loadJob(ctx, queueName, jobID)
	if err != nil {
		return nil, err
	}
	job.State = queue.StateActive
	if err := b.storeJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (b *Backend) Ack(ctx context.Context, queueName, jobID string) error {
	job, err := b.loadJob(ctx, queueName, jobID)
	if err != nil {
		return err
	}

	pipe := b.rdb.TxPipeline()
	pipe.ZRem(ctx, activeKey(queueName), jobID)
	pipe.Del(ctx, jobKey(queueName, jobID))
	pipe.Incr(ctx, completedKey(queueName))
	if job.Key != "" {
		pipe.SRem(ctx, keyIndexKey(queueName, job.Key), jobID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (b *Backend) FailWithBackoff(ctx context.Context, queueName, jobID string, nextEligibleAt time.Time, reason string) error {
	job, err := b.loadJob(ctx, queueName, jobID)
	if err != nil {
		return err
	}
	job.Attempts++
	job.State = queue.StateWaiting
	job.EligibleAt = nextEligibleAt
	job.LastError = reason

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	// A fresh sequence puts the requeued job behind jobs already waiting at
	// the same eligibility instant.
	seq, err := b.nextSeq(ctx, queueName)
	if err != nil {
		return err
	}

	pipe := b.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(queueName, jobID), raw, 0)
	pipe.ZRem(ctx, activeKey(queueName), jobID)
	pipe.ZAdd(ctx, scheduledKey(queueName), redis.Z{
		Score:  scheduleScore(nextEligibleAt, seq),
		Member: jobID,
	})
	pipe.Incr(ctx, failedKey(queueName))
	_, err = pipe.Exec(ctx)
	return err
}

func (b *Backend) MoveToDeadLetter(ctx context.Context, queueName, jobID, reason string, canRetry bool) error {
	job, err := b.loadJob(ctx, queueName, jobID)
	if err != nil {
		return err
	}
	job.Attempts++
	job.State = queue.StateDeadLetter
	job.LastError = reason

	failedAt := time.Now()
	envelope := deadEnvelope{
		Record: queue.DeadLetterRecord{
			ID:              uuid.NewString(),
			OriginalJobID:   job.ID,
			OriginalQueue:   job.Queue,
			OriginalName:    job.Name,
			OriginalPayload: job.Payload,
			FailureReason:   reason,
			FailedAt:        failedAt,
			RetryCount:      job.Attempts,
			CanRetry:        canRetry,
		},
		Job: *job,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal dead-letter record: %w", err)
	}

	pipe := b.rdb.TxPipeline()
	pipe.Set(ctx, deadRecordKey(envelope.Record.ID), raw, 0)
	pipe.ZAdd(ctx, deadSetKey(), redis.Z{
		Score:  float64(failedAt.UnixMilli()),
		Member: envelope.Record.ID,
	})
	pipe.ZRem(ctx, activeKey(queueName), jobID)
	pipe.Del(ctx, jobKey(queueName, jobID))
	pipe.Incr(ctx, failedKey(queueName))
	if job.Key != "" {
		pipe.SRem(ctx, keyIndexKey(queueName, job.Key), jobID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (b *Backend) CancelByKey(ctx context.Context, queueName, key string) (int, error) {
	if key == "" {
		return 0, nil
	}

	ids, err := b.rdb.SMembers(ctx, keyIndexKey(queueName, key)).Result()
	if err != nil {
		return 0, fmt.Errorf("cancel lookup: %w", err)
	}

	removed := 0
	for _, id := range ids {
		// Only waiting jobs are cancellable; an active claim stays put and
		// resolves through the handler's own re-check.
		n, err := b.rdb.ZRem(ctx, scheduledKey(queueName), id).Result()
		if err != nil {
			return removed, err
		}
		if n == 0 {
			continue
		}
		pipe := b.rdb.TxPipeline()
		pipe.Del(ctx, jobKey(queueName, id))
		pipe.SRem(ctx, keyIndexKey(queueName, key), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (b *Backend) Counts(ctx context.Context, queueName string) (queue.Counts, error) {
	now := time.Now()
	// The scheduled set is scaled; the active set holds plain claim-time
	// milliseconds.
	eligible := strconv.FormatInt(eligibilityBound(now), 10)
	stallCutoff := strconv.FormatInt(now.Add(-b.stallAfter).UnixMilli(), 10)

	pipe := b.rdb.Pipeline()
	waiting := pipe.ZCount(ctx, scheduledKey(queueName), "-inf", eligible)
	delayed := pipe.ZCount(ctx, scheduledKey(queueName), "("+eligible, "+inf")
	active := pipe.ZCard(ctx, activeKey(queueName))
	stalled := pipe.ZCount(ctx, activeKey(queueName), "-inf", stallCutoff)
	completed := pipe.Get(ctx, completedKey(queueName))
	failed := pipe.Get(ctx, failedKey(queueName))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return queue.Counts{}, fmt.Errorf("counts: %w", err)
	}

	counts := queue.Counts{
		Waiting: int(waiting.Val()),
		Delayed: int(delayed.Val()),
		Active:  int(active.Val()),
		Stalled: int(stalled.Val()),
	}
	if v, err := completed.Int(); err == nil {
		counts.Completed = v
	}
	if v, err := failed.Int(); err == nil {
		counts.Failed = v
	}
	return counts, nil
}

func (b *Backend) CountDeadLetter(ctx context.Context) (int, error) {
	n, err := b.rdb.ZCard(ctx, deadSetKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("dead-letter count: %w", err)
	}
	return int(n), nil
}

func (b *Backend) ListDeadLetter(ctx context.Context, limit int) ([]queue.DeadLetterRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := b.rdb.ZRevRange(ctx, deadSetKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("dead-letter range: %w", err)
	}

	records := make([]queue.DeadLetterRecord, 0, len(ids))
	for _, id := range ids {
		raw, err := b.rdb.Get(ctx, deadRecordKey(id)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var envelope deadEnvelope
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
			return nil, fmt.Errorf("unmarshal dead-letter record: %w", err)
		}
		records = append(records, envelope.Record)
	}
	return records, nil
}

func (b *Backend) RetryDeadLetter(ctx context.Context, recordID string) (*queue.Job, error) {
	raw, err := b.rdb.Get(ctx, deadRecordKey(recordID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var envelope deadEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal dead-letter record: %w", err)
	}
	if !envelope.Record.CanRetry {
		return nil, sentinel.ErrInvalidState
	}

	job := envelope.Job
	job.ID = uuid.NewString()
	job.Attempts = 0
	job.State = queue.StateWaiting
	job.LastError = ""
	now := time.Now()
	job.EnqueuedAt = now
	job.EligibleAt = now

	if err := b.Enqueue(ctx, &job); err != nil {
		return nil, err
	}

	pipe := b.rdb.TxPipeline()
	pipe.ZRem(ctx, deadSetKey(), recordID)
	pipe.Del(ctx, deadRecordKey(recordID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &job, nil
}

func (b *Backend) loadJob(ctx context.Context, queueName, jobID string) (*queue.Job, error) {
	raw, err := b.rdb.Get(ctx, jobKey(queueName, jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	var job queue.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

func (b *Backend) storeJob(ctx context.Context, job *queue.Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return b.rdb.Set(ctx, jobKey(job.Queue, job.ID), raw, 0).Err()
}
