package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/internal/pkg/entitlements"
)

// Service provides provider-neutral subscription synchronization: webhook
// paths push normalized subscription state into the local mirror, the API
// reads the mirror through the classifier.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// CurrentSubscription returns the user's subscription mirror, or nil when
// the user never purchased anything (a defined state, not an error).
func (s *Service) CurrentSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}
	sub, err := s.repo.GetSubscriptionByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// PlanActionForUser loads the user's subscription mirror and classifies it
// into the single next step the product should offer.
func (s *Service) PlanActionForUser(ctx context.Context, userID uint) (PlanAction, *models.Subscription, error) {
	sub, err := s.CurrentSubscription(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	return PlanActionFor(sub), sub, nil
}

// ResolvePlan matches a subscription's product ID against the active catalog.
func (s *Service) ResolvePlan(ctx context.Context, productID string) (*models.Plan, error) {
	_ = ctx
	plans, err := s.repo.ListActivePlans()
	if err != nil {
		return nil, err
	}
	return PlanMatching(plans, productID), nil
}

// SyncSubscription upserts provider subscription data into the local mirror
// and reconciles the user's effective plan tier.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.Subscription, string, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if in.UserID == 0 || provider == "" || strings.TrimSpace(in.ProviderSubscriptionID) == "" {
		return nil, "", errors.New("user_id, provider and provider_subscription_id are required")
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.BillingStatusActive
	}
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		productID = models.FreePlanProductID
	}

	var storageBytes int64
	if plan, err := s.ResolvePlan(ctx, productID); err != nil {
		return nil, "", err
	} else if plan != nil {
		storageBytes = plan.StorageBytes
	}

	sub := &models.Subscription{
		UserID:                 in.UserID,
		ProductID:              productID,
		PaymentProvider:        provider,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
		ProviderCustomerID:     strings.TrimSpace(in.ProviderCustomerID),
		Status:                 status,
		ExpiryTime:             in.ExpiryTime,
		StorageBytes:           storageBytes,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
		RawPayloadJSON:         in.RawPayloadJSON,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, "", err
	}

	effectivePlan, err := s.ReconcileUserPlan(ctx, in.UserID)
	if err != nil {
		return sub, "", err
	}
	return sub, effectivePlan, nil
}

// ReconcileUserPlan computes and writes the effective plan tier for a user
// from their subscription mirror. An expired, free or non-entitling
// subscription falls back to the free tier.
func (s *Service) ReconcileUserPlan(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", errors.New("user_id is required")
	}

	sub, err := s.CurrentSubscription(ctx, userID)
	if err != nil {
		return "", err
	}

	best := string(entitlements.PlanFree)
	if sub != nil && !sub.IsFreePlan() && isEntitlingStatus(sub.Status) && PlanActionFor(sub) != PlanActionBuy {
		plan, perr := s.ResolvePlan(ctx, sub.ProductID)
		if perr != nil {
			return "", perr
		}
		if plan != nil {
			best = normalizePlan(plan.InternalPlan)
		} else {
			// Paid but unknown product; grant the base paid tier rather
			// than locking the customer out of what they bought.
			best = string(entitlements.PlanPremium)
		}
	}

	us, err := s.repo.GetOrCreateUserSettings(userID)
	if err != nil {
		return "", err
	}
	if normalizePlan(us.Plan) == best {
		return best, nil
	}
	us.Plan = best
	if err := s.repo.SaveUserSettings(us); err != nil {
		return "", err
	}
	return best, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
