package billing

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ManuelReschke/PixelVault/app/models"
)

const testWebhookSecret = "whsec_test_secret"

func signedSubscriptionEvent(t *testing.T, eventType string, sub map[string]interface{}) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(sub)
	if err != nil {
		t.Fatalf("marshal subscription: %v", err)
	}
	event := map[string]interface{}{
		"id":   "evt_test_1",
		"type": eventType,
		"data": map[string]interface{}{
			"object": json.RawMessage(raw),
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return payload, signed.Header
}

func TestParseStripeEventRejectsBadSignature(t *testing.T) {
	payload, _ := signedSubscriptionEvent(t, "customer.subscription.updated", map[string]interface{}{"id": "sub_1"})

	if _, err := ParseStripeEvent(payload, "", testWebhookSecret); err == nil {
		t.Fatal("expected error for missing signature header")
	}
	if _, err := ParseStripeEvent(payload, "t=1,v1=deadbeef", testWebhookSecret); err == nil {
		t.Fatal("expected error for forged signature")
	}
}

func TestParseStripeEventAcceptsValidSignature(t *testing.T) {
	payload, sig := signedSubscriptionEvent(t, "customer.subscription.updated", map[string]interface{}{"id": "sub_1"})

	event, err := ParseStripeEvent(payload, sig, testWebhookSecret)
	if err != nil {
		t.Fatalf("ParseStripeEvent: %v", err)
	}
	if event.ID != "evt_test_1" {
		t.Fatalf("event id = %q", event.ID)
	}
	if !IsStripeSubscriptionEvent(event.Type) {
		t.Fatalf("event type %q should be a subscription event", event.Type)
	}
}

func TestNormalizeStripeSubscription(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	payload, sig := signedSubscriptionEvent(t, "customer.subscription.updated", map[string]interface{}{
		"id":                   "sub_42",
		"customer":             "cus_42",
		"status":               "active",
		"cancel_at_period_end": true,
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"current_period_end": periodEnd,
					"price":              map[string]interface{}{"id": "price_premium_month"},
				},
			},
		},
		"metadata": map[string]string{"user_id": "7"},
	})

	event, err := ParseStripeEvent(payload, sig, testWebhookSecret)
	if err != nil {
		t.Fatalf("ParseStripeEvent: %v", err)
	}
	got, err := NormalizeStripeSubscription(event)
	if err != nil {
		t.Fatalf("NormalizeStripeSubscription: %v", err)
	}

	if got.UserID != 7 {
		t.Fatalf("user id = %d", got.UserID)
	}
	if got.Provider != models.PaymentProviderStripe {
		t.Fatalf("provider = %q", got.Provider)
	}
	if got.ProductID != "price_premium_month" {
		t.Fatalf("product = %q", got.ProductID)
	}
	if got.ProviderSubscriptionID != "sub_42" || got.ProviderCustomerID != "cus_42" {
		t.Fatalf("provider ids = %q/%q", got.ProviderSubscriptionID, got.ProviderCustomerID)
	}
	if got.ExpiryTime != periodEnd*1_000_000 {
		t.Fatalf("expiry = %d, want %d", got.ExpiryTime, periodEnd*1_000_000)
	}
	if !got.CancelAtPeriodEnd {
		t.Fatal("cancel_at_period_end lost")
	}
	if got.RawPayloadJSON == "" {
		t.Fatal("raw payload not preserved")
	}
}

func TestNormalizeStripeSubscriptionDeleted(t *testing.T) {
	endedAt := time.Now().Unix()
	payload, sig := signedSubscriptionEvent(t, "customer.subscription.deleted", map[string]interface{}{
		"id":       "sub_42",
		"customer": "cus_42",
		"status":   "canceled",
		"ended_at": endedAt,
		"metadata": map[string]string{"user_id": "7"},
	})

	event, err := ParseStripeEvent(payload, sig, testWebhookSecret)
	if err != nil {
		t.Fatalf("ParseStripeEvent: %v", err)
	}
	got, err := NormalizeStripeSubscription(event)
	if err != nil {
		t.Fatalf("NormalizeStripeSubscription: %v", err)
	}
	if got.Status != models.BillingStatusCanceled {
		t.Fatalf("status = %q, want canceled", got.Status)
	}
	if got.ExpiryTime != endedAt*1_000_000 {
		t.Fatalf("expiry = %d, want ended_at", got.ExpiryTime)
	}
}

func TestNormalizeStripeSubscriptionRejectsOtherEvents(t *testing.T) {
	payload, sig := signedSubscriptionEvent(t, "invoice.paid", map[string]interface{}{"id": "in_1"})

	event, err := ParseStripeEvent(payload, sig, testWebhookSecret)
	if err != nil {
		t.Fatalf("ParseStripeEvent: %v", err)
	}
	if _, err := NormalizeStripeSubscription(event); !errors.Is(err, ErrNotSubscriptionEvent) {
		t.Fatalf("err = %v, want ErrNotSubscriptionEvent", err)
	}
}

func TestNormalizeStripeSubscriptionRequiresUserMetadata(t *testing.T) {
	payload, sig := signedSubscriptionEvent(t, "customer.subscription.created", map[string]interface{}{
		"id":     "sub_42",
		"status": "active",
	})

	event, err := ParseStripeEvent(payload, sig, testWebhookSecret)
	if err != nil {
		t.Fatalf("ParseStripeEvent: %v", err)
	}
	if _, err := NormalizeStripeSubscription(event); err == nil {
		t.Fatal("expected error when metadata has no user_id")
	}
}
