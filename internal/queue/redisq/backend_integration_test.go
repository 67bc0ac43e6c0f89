//go:build integration

package redisq_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notarius/internal/queue"
	"notarius/internal/queue/redisq"
	"notarius/pkg/platform/sentinel"
	"notarius/pkg/testutil/containers"
)

func newBackend(t *testing.T) *redisq.Backend {
	t.Helper()
	rc := containers.NewRedisContainer(t)
	require.NoError(t, rc.FlushAll(context.Background()))
	return redisq.New(rc.Client, time.Minute)
}

func enqueue(t *testing.T, b *redisq.Backend, job queue.Job) {
	t.Helper()
	require.NoError(t, b.Enqueue(context.Background(), &job))
}

func TestClaimAckRoundTrip(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	now := time.Now()

	enqueue(t, b, queue.Job{ID: "j1", Queue: "nudging", Name: "nudge-action",
		Payload: []byte(`{"actionId":"A-91"}`), MaxAttempts: 3, EligibleAt: now})

	job, err := b.ClaimNextEligible(ctx, "nudging", now)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, queue.StateActive, job.State)
	assert.JSONEq(t, `{"actionId":"A-91"}`, string(job.Payload))

	require.NoError(t, b.Ack(ctx, "nudging", "j1"))

	counts, err := b.Counts(ctx, "nudging")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Completed)
	assert.Zero(t, counts.Active)
}

func TestDelayedJobInvisibleUntilEligible(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	now := time.Now()

	enqueue(t, b, queue.Job{ID: "later", Queue: "nudging", EligibleAt: now.Add(time.Hour)})

	job, err := b.ClaimNextEligible(ctx, "nudging", now)
	require.NoError(t, err)
	assert.Nil(t, job)

	counts, err := b.Counts(ctx, "nudging")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Delayed)
	assert.Zero(t, counts.Waiting)

	job, err = b.ClaimNextEligible(ctx, "nudging", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "later", job.ID)
}

func TestSameMillisecondJobsClaimInEnqueueOrder(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	now := time.Now()

	// IDs chosen so lexicographic order disagrees with enqueue order.
	for _, id := range []string{"j-c", "j-a", "j-b"} {
		enqueue(t, b, queue.Job{ID: id, Queue: "nudging", EligibleAt: now})
	}

	var claimed []string
	for range 3 {
		job, err := b.ClaimNextEligible(ctx, "nudging", now)
		require.NoError(t, err)
		require.NotNil(t, job)
		claimed = append(claimed, job.ID)
	}
	assert.Equal(t, []string{"j-c", "j-a", "j-b"}, claimed)
}

func TestCancelByKeySparesActiveClaim(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	now := time.Now()

	enqueue(t, b, queue.Job{ID: "active", Queue: "nudging", Key: "A-91", EligibleAt: now})
	enqueue(t, b, queue.Job{ID: "pending", Queue: "nudging", Key: "A-91", EligibleAt: now.Add(time.Hour)})

	claimed, err := b.ClaimNextEligible(ctx, "nudging", now)
	require.NoError(t, err)
	require.Equal(t, "active", claimed.ID)

	removed, err := b.CancelByKey(ctx, "nudging", "A-91")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	counts, err := b.Counts(ctx, "nudging")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Active)
	assert.Zero(t, counts.Delayed)
}

func TestDeadLetterFlow(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	now := time.Now()

	enqueue(t, b, queue.Job{ID: "doomed", Queue: "nudging", Name: "nudge-action",
		Payload: []byte(`{"actionId":"A-91"}`), MaxAttempts: 2, EligibleAt: now})

	claimed, err := b.ClaimNextEligible(ctx, "nudging", now)
	require.NoError(t, err)
	require.NoError(t, b.FailWithBackoff(ctx, "nudging", claimed.ID, now, "first failure"))

	claimed, err = b.ClaimNextEligible(ctx, "nudging", now.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, 1, claimed.Attempts)
	require.NoError(t, b.MoveToDeadLetter(ctx, "nudging", claimed.ID, "exhausted", true))

	records, err := b.ListDeadLetter(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	n, err := b.CountDeadLetter(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "doomed", records[0].OriginalJobID)
	assert.Equal(t, 2, records[0].RetryCount)
	assert.True(t, records[0].CanRetry)

	job, err := b.RetryDeadLetter(ctx, records[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "doomed", job.ID)
	assert.Zero(t, job.Attempts)

	records, err = b.ListDeadLetter(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = b.RetryDeadLetter(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
