package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/internal/pkg/mailinglist"
	metrics "github.com/ManuelReschke/PixelVault/internal/pkg/metrics/counter"
)

// Syncer is the mailing-list operation set the worker drives.
// *mailinglist.Controller satisfies it in production.
type Syncer interface {
	Subscribe(email string) error
	Unsubscribe(email string) error
}

var (
	syncerMu sync.RWMutex
	syncer   Syncer
)

// SetMailingListSyncer overrides the controller used by the sync worker.
// Mainly for tests; passing nil restores the env-configured default.
func SetMailingListSyncer(s Syncer) {
	syncerMu.Lock()
	defer syncerMu.Unlock()
	syncer = s
}

func getMailingListSyncer() Syncer {
	syncerMu.RLock()
	if syncer != nil {
		defer syncerMu.RUnlock()
		return syncer
	}
	syncerMu.RUnlock()

	syncerMu.Lock()
	defer syncerMu.Unlock()
	if syncer == nil {
		syncer = mailinglist.NewControllerFromEnv()
	}
	return syncer
}

// recordSyncOutcome bumps the Redis outcome counter; failures only cost
// observability, never the job result.
var recordSyncOutcome = func(outcome string) {
	if err := metrics.AddSyncOutcome(outcome); err != nil {
		log.Debugf("[MailingListJob] Failed to record outcome %s: %v", outcome, err)
	}
}

// EnqueueMailingListSubscribe enqueues an async subscribe for a user's email
func (q *Queue) EnqueueMailingListSubscribe(userID uint, email string) (*Job, error) {
	payload := MailingListSyncJobPayload{
		Action: MailingListActionSubscribe,
		Email:  email,
		UserID: userID,
	}
	return q.EnqueueJob(JobTypeMailingListSync, payload.ToMap())
}

// EnqueueMailingListUnsubscribe enqueues an async unsubscribe for an email
func (q *Queue) EnqueueMailingListUnsubscribe(userID uint, email string) (*Job, error) {
	payload := MailingListSyncJobPayload{
		Action: MailingListActionUnsubscribe,
		Email:  email,
		UserID: userID,
	}
	return q.EnqueueJob(JobTypeMailingListSync, payload.ToMap())
}

// processMailingListSyncJob drives one subscribe/unsubscribe against the
// external campaign list. The controller itself never retries; returning an
// error here hands the job to the queue's retry-with-backoff instead.
func (q *Queue) processMailingListSyncJob(_ context.Context, job *Job) error {
	payload, perr := MailingListSyncJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse mailing list sync payload: %w", perr)
	}
	if payload.Email == "" {
		return fmt.Errorf("mailing list sync job %s has no email", job.ID)
	}

	s := getMailingListSyncer()

	var actErr error
	var successOutcome string
	switch payload.Action {
	case MailingListActionSubscribe:
		actErr = s.Subscribe(payload.Email)
		successOutcome = models.SyncOutcomeSubscribed
	case MailingListActionUnsubscribe:
		actErr = s.Unsubscribe(payload.Email)
		successOutcome = models.SyncOutcomeUnsubscribed
	default:
		return fmt.Errorf("unknown mailing list action: %s", payload.Action)
	}

	switch {
	case actErr == nil:
		recordSyncOutcome(successOutcome)
		return nil
	case errors.Is(actErr, mailinglist.ErrNotConfigured):
		// Intentional skip, not a failure. Completing the job keeps the
		// queue quiet on deployments without the integration.
		log.Debugf("[MailingListJob] Skipped %s for user %d, integration disabled", payload.Action, payload.UserID)
		recordSyncOutcome(models.SyncOutcomeSkipped)
		return nil
	case mailinglist.IsContactMissing(actErr):
		// The contact erased their data vendor-side; retrying cannot bring
		// the record back, so the job completes.
		recordSyncOutcome(models.SyncOutcomeMissing)
		return nil
	default:
		recordSyncOutcome(models.SyncOutcomeFailed)
		return actErr
	}
}
