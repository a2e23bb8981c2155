package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/internal/pkg/mailinglist"
)

// fakeSyncer simulates the mailing-list controller for worker tests.
type fakeSyncer struct {
	mu           sync.Mutex
	subscribes   []string
	unsubscribes []string
	returnErr    error
}

func (f *fakeSyncer) Subscribe(email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes = append(f.subscribes, email)
	return f.returnErr
}

func (f *fakeSyncer) Unsubscribe(email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes = append(f.unsubscribes, email)
	return f.returnErr
}

// captureOutcomes swaps the counter hook for the duration of a test.
func captureOutcomes(t *testing.T) *[]string {
	t.Helper()
	var (
		mu       sync.Mutex
		outcomes []string
	)
	orig := recordSyncOutcome
	recordSyncOutcome = func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, outcome)
	}
	t.Cleanup(func() { recordSyncOutcome = orig })
	return &outcomes
}

func withFakeSyncer(t *testing.T, s Syncer) {
	t.Helper()
	SetMailingListSyncer(s)
	t.Cleanup(func() { SetMailingListSyncer(nil) })
}

func syncJob(action, email string) *Job {
	payload := MailingListSyncJobPayload{Action: action, Email: email, UserID: 7}
	return &Job{
		ID:         "test-sync-job",
		Type:       JobTypeMailingListSync,
		Status:     JobStatusPending,
		Payload:    payload.ToMap(),
		MaxRetries: DefaultMaxRetries,
	}
}

func TestProcessMailingListSyncJob_Subscribe(t *testing.T) {
	outcomes := captureOutcomes(t)
	fake := &fakeSyncer{}
	withFakeSyncer(t, fake)

	q := &Queue{}
	err := q.processMailingListSyncJob(context.Background(), syncJob(MailingListActionSubscribe, "new@example.com"))
	require.NoError(t, err)

	assert.Equal(t, []string{"new@example.com"}, fake.subscribes)
	assert.Empty(t, fake.unsubscribes)
	assert.Equal(t, []string{models.SyncOutcomeSubscribed}, *outcomes)
}

func TestProcessMailingListSyncJob_Unsubscribe(t *testing.T) {
	outcomes := captureOutcomes(t)
	fake := &fakeSyncer{}
	withFakeSyncer(t, fake)

	q := &Queue{}
	err := q.processMailingListSyncJob(context.Background(), syncJob(MailingListActionUnsubscribe, "gone@example.com"))
	require.NoError(t, err)

	assert.Equal(t, []string{"gone@example.com"}, fake.unsubscribes)
	assert.Equal(t, []string{models.SyncOutcomeUnsubscribed}, *outcomes)
}

func TestProcessMailingListSyncJob_DisabledIntegrationCompletesWithoutRetry(t *testing.T) {
	outcomes := captureOutcomes(t)
	fake := &fakeSyncer{returnErr: mailinglist.ErrNotConfigured}
	withFakeSyncer(t, fake)

	q := &Queue{}
	err := q.processMailingListSyncJob(context.Background(), syncJob(MailingListActionSubscribe, "a@b.com"))

	// The skip must complete the job, otherwise deployments without the
	// integration would retry every sync job to exhaustion.
	require.NoError(t, err)
	assert.Equal(t, []string{models.SyncOutcomeSkipped}, *outcomes)
}

func TestProcessMailingListSyncJob_ContactMissingCompletes(t *testing.T) {
	outcomes := captureOutcomes(t)
	fake := &fakeSyncer{returnErr: &mailinglist.APIError{
		Code:    "2103",
		Message: "Contact does not exist.",
		Status:  "error",
	}}
	withFakeSyncer(t, fake)

	q := &Queue{}
	err := q.processMailingListSyncJob(context.Background(), syncJob(MailingListActionUnsubscribe, "erased@example.com"))
	require.NoError(t, err, "a vendor-side erased contact is not retryable")
	assert.Equal(t, []string{models.SyncOutcomeMissing}, *outcomes)
}

func TestProcessMailingListSyncJob_TransportErrorPropagates(t *testing.T) {
	outcomes := captureOutcomes(t)
	transportErr := errors.New("dial tcp: connection refused")
	fake := &fakeSyncer{returnErr: transportErr}
	withFakeSyncer(t, fake)

	q := &Queue{}
	err := q.processMailingListSyncJob(context.Background(), syncJob(MailingListActionSubscribe, "a@b.com"))
	require.ErrorIs(t, err, transportErr, "transport errors go back to the queue for retry")
	assert.Equal(t, []string{models.SyncOutcomeFailed}, *outcomes)
}

func TestProcessMailingListSyncJob_BadPayload(t *testing.T) {
	captureOutcomes(t)
	withFakeSyncer(t, &fakeSyncer{})

	q := &Queue{}

	t.Run("unknown action", func(t *testing.T) {
		err := q.processMailingListSyncJob(context.Background(), syncJob("resubscribe", "a@b.com"))
		assert.Error(t, err)
	})

	t.Run("missing email", func(t *testing.T) {
		err := q.processMailingListSyncJob(context.Background(), syncJob(MailingListActionSubscribe, ""))
		assert.Error(t, err)
	})
}
