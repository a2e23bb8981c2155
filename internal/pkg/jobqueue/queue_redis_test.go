package jobqueue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnqueueMailingListSync_Redis round-trips a sync job through Redis.
func TestEnqueueMailingListSync_Redis(t *testing.T) {
	host, port, password := resolveTestRedis(t)
	configureTestCache(host, port, password)
	resetJobQueueRedis(t)
	t.Cleanup(func() { resetJobQueueRedis(t) })

	ctx := context.Background()
	q := NewQueue(1)

	job, err := q.EnqueueMailingListSubscribe(42, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, JobTypeMailingListSync, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)

	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	dequeued, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, dequeued)
	assert.Equal(t, job.ID, dequeued.ID)

	payload, err := MailingListSyncJobPayloadFromMap(dequeued.Payload)
	require.NoError(t, err)
	assert.Equal(t, MailingListActionSubscribe, payload.Action)
	assert.Equal(t, "user@example.com", payload.Email)
	assert.Equal(t, uint(42), payload.UserID)

	processing, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), processing)
}
