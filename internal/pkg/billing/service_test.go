package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/internal/pkg/entitlements"
)

type fakeRepo struct {
	plans    []models.Plan
	subs     map[uint]*models.Subscription
	settings map[uint]*models.UserSettings
	events   map[string]*models.WebhookEvent

	savedSettings int
	nextEventID   uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		subs:     map[uint]*models.Subscription{},
		settings: map[uint]*models.UserSettings{},
		events:   map[string]*models.WebhookEvent{},
	}
}

func (r *fakeRepo) ListActivePlans() ([]models.Plan, error) {
	return r.plans, nil
}

func (r *fakeRepo) UpsertSubscription(sub *models.Subscription) error {
	if existing, ok := r.subs[sub.UserID]; ok {
		sub.ID = existing.ID
	} else if sub.ID == 0 {
		sub.ID = uint(len(r.subs) + 1)
	}
	copied := *sub
	r.subs[sub.UserID] = &copied
	return nil
}

func (r *fakeRepo) GetSubscriptionByUserID(userID uint) (*models.Subscription, error) {
	sub, ok := r.subs[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeRepo) GetOrCreateUserSettings(userID uint) (*models.UserSettings, error) {
	if us, ok := r.settings[userID]; ok {
		copied := *us
		return &copied, nil
	}
	us := &models.UserSettings{UserID: userID, Plan: string(entitlements.PlanFree)}
	r.settings[userID] = us
	copied := *us
	return &copied, nil
}

func (r *fakeRepo) SaveUserSettings(us *models.UserSettings) error {
	copied := *us
	r.settings[us.UserID] = &copied
	r.savedSettings++
	return nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		copied := *stored
		return false, &copied, nil
	}
	r.nextEventID++
	event.ID = r.nextEventID
	copied := *event
	r.events[key] = &copied
	result := *event
	return true, &result, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, event := range r.events {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func premiumPlan() models.Plan {
	return models.Plan{
		ID:           1,
		Name:         "Premium",
		InternalPlan: string(entitlements.PlanPremium),
		StorageBytes: 100 << 30,
		Period:       models.BillingPeriodMonth,
		StripeID:     "price_premium_month",
		IsActive:     true,
	}
}

func TestCurrentSubscriptionNeverPurchased(t *testing.T) {
	svc := NewService(newFakeRepo())

	sub, err := svc.CurrentSubscription(context.Background(), 7)
	if err != nil {
		t.Fatalf("CurrentSubscription: %v", err)
	}
	if sub != nil {
		t.Fatalf("expected nil subscription for fresh user, got %+v", sub)
	}

	action, _, err := svc.PlanActionForUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("PlanActionForUser: %v", err)
	}
	if action != PlanActionBuy {
		t.Fatalf("fresh user action = %q, want %q", action, PlanActionBuy)
	}
}

func TestSyncSubscriptionUpgradesPlan(t *testing.T) {
	repo := newFakeRepo()
	repo.plans = []models.Plan{premiumPlan()}
	svc := NewService(repo)

	sub, plan, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		UserID:                 7,
		Provider:               models.PaymentProviderStripe,
		ProductID:              "price_premium_month",
		ProviderSubscriptionID: "sub_123",
		ProviderCustomerID:     "cus_123",
		Status:                 models.BillingStatusActive,
		ExpiryTime:             time.Now().Add(30 * 24 * time.Hour).UnixMicro(),
	})
	if err != nil {
		t.Fatalf("SyncSubscription: %v", err)
	}
	if plan != string(entitlements.PlanPremium) {
		t.Fatalf("effective plan = %q, want %q", plan, entitlements.PlanPremium)
	}
	if sub.StorageBytes != 100<<30 {
		t.Fatalf("storage = %d, want plan storage", sub.StorageBytes)
	}
	if got := repo.settings[7].Plan; got != string(entitlements.PlanPremium) {
		t.Fatalf("persisted settings plan = %q", got)
	}
}

func TestSyncSubscriptionExpiredFallsBackToFree(t *testing.T) {
	repo := newFakeRepo()
	repo.plans = []models.Plan{premiumPlan()}
	repo.settings[7] = &models.UserSettings{UserID: 7, Plan: string(entitlements.PlanPremium)}
	svc := NewService(repo)

	_, plan, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		UserID:                 7,
		Provider:               models.PaymentProviderStripe,
		ProductID:              "price_premium_month",
		ProviderSubscriptionID: "sub_123",
		Status:                 models.BillingStatusActive,
		ExpiryTime:             time.Now().Add(-time.Hour).UnixMicro(),
	})
	if err != nil {
		t.Fatalf("SyncSubscription: %v", err)
	}
	if plan != string(entitlements.PlanFree) {
		t.Fatalf("effective plan = %q, want free", plan)
	}
}

func TestSyncSubscriptionUnknownPaidProductGrantsBaseTier(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, plan, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		UserID:                 9,
		Provider:               models.PaymentProviderStripe,
		ProductID:              "price_retired_legacy",
		ProviderSubscriptionID: "sub_456",
		Status:                 models.BillingStatusActive,
		ExpiryTime:             time.Now().Add(time.Hour).UnixMicro(),
	})
	if err != nil {
		t.Fatalf("SyncSubscription: %v", err)
	}
	if plan != string(entitlements.PlanPremium) {
		t.Fatalf("unknown paid product plan = %q, want base paid tier", plan)
	}
}

func TestSyncSubscriptionEmptyProductMeansFree(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	sub, plan, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{
		UserID:                 3,
		Provider:               models.PaymentProviderStripe,
		ProviderSubscriptionID: "sub_789",
		Status:                 models.BillingStatusCanceled,
	})
	if err != nil {
		t.Fatalf("SyncSubscription: %v", err)
	}
	if sub.ProductID != models.FreePlanProductID {
		t.Fatalf("product = %q, want free sentinel", sub.ProductID)
	}
	if plan != string(entitlements.PlanFree) {
		t.Fatalf("plan = %q, want free", plan)
	}
}

func TestSyncSubscriptionValidation(t *testing.T) {
	svc := NewService(newFakeRepo())
	if _, _, err := svc.SyncSubscription(context.Background(), NormalizedSubscription{}); err == nil {
		t.Fatal("expected validation error for empty input")
	}
}

func TestReconcileUserPlanSkipsRedundantSave(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	if _, err := svc.ReconcileUserPlan(context.Background(), 4); err != nil {
		t.Fatalf("ReconcileUserPlan: %v", err)
	}
	if repo.savedSettings != 0 {
		t.Fatalf("expected no settings write when plan unchanged, got %d", repo.savedSettings)
	}
}

func TestRecordWebhookEventDeduplicates(t *testing.T) {
	svc := NewService(newFakeRepo())
	in := WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_1",
		EventType:       "customer.subscription.updated",
		PayloadJSON:     `{"id":"evt_1"}`,
		SignatureValid:  true,
	}

	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("RecordWebhookEvent: %v", err)
	}
	if !created {
		t.Fatal("first delivery should create the event")
	}

	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("RecordWebhookEvent replay: %v", err)
	}
	if created {
		t.Fatal("replay must not create a second event")
	}
	if first.ID != second.ID {
		t.Fatalf("replay returned different row: %d vs %d", first.ID, second.ID)
	}
}

func TestRecordWebhookEventHashesMissingEventID(t *testing.T) {
	svc := NewService(newFakeRepo())

	created, event, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    "stripe",
		PayloadJSON: `{"type":"ping"}`,
	})
	if err != nil {
		t.Fatalf("RecordWebhookEvent: %v", err)
	}
	if !created {
		t.Fatal("expected event to be created")
	}
	if len(event.ProviderEventID) == 0 || event.ProviderEventID[:5] != "hash:" {
		t.Fatalf("event id %q should be derived from payload hash", event.ProviderEventID)
	}

	created, _, err = svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    "stripe",
		PayloadJSON: `{"type":"ping"}`,
	})
	if err != nil {
		t.Fatalf("RecordWebhookEvent replay: %v", err)
	}
	if created {
		t.Fatal("identical payload without event id must dedupe via hash")
	}
}

func TestMarkWebhookProcessedStoresError(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, event, err := svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: "evt_2",
		PayloadJSON:     `{}`,
	})
	if err != nil {
		t.Fatalf("RecordWebhookEvent: %v", err)
	}

	if err := svc.MarkWebhookProcessed(context.Background(), event.ID, errors.New("boom")); err != nil {
		t.Fatalf("MarkWebhookProcessed: %v", err)
	}

	stored := repo.events["stripe/evt_2"]
	if stored.ProcessedAt == nil {
		t.Fatal("processed_at not set")
	}
	if stored.ProcessingError != "boom" {
		t.Fatalf("processing_error = %q", stored.ProcessingError)
	}
}
