package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ManuelReschke/PixelVault/app/models"
)

// ErrNotSubscriptionEvent marks Stripe events outside the subscription
// lifecycle; the webhook handler acknowledges them without syncing.
var ErrNotSubscriptionEvent = errors.New("billing: not a subscription event")

// ParseStripeEvent verifies the Stripe-Signature header against the webhook
// secret and returns the decoded event. Signature verification is the only
// authentication on the webhook endpoint.
func ParseStripeEvent(payload []byte, sigHeader, secret string) (*stripe.Event, error) {
	if strings.TrimSpace(sigHeader) == "" {
		return nil, errors.New("missing Stripe-Signature header")
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// IsStripeSubscriptionEvent reports whether the event carries a subscription
// object we mirror locally.
func IsStripeSubscriptionEvent(eventType stripe.EventType) bool {
	switch eventType {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		return true
	default:
		return false
	}
}

// stripeSubscription mirrors the fields we consume from the raw event
// payload. Decoding the raw JSON keeps us independent from SDK struct
// reshuffles between Stripe API versions.
type stripeSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	EndedAt           int64  `json:"ended_at"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID      string `json:"id"`
				Product string `json:"product"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

// NormalizeStripeSubscription maps a customer.subscription.* event onto the
// provider-neutral sync input. The owning user is resolved from the user_id
// the checkout flow writes into the subscription metadata.
func NormalizeStripeSubscription(event *stripe.Event) (NormalizedSubscription, error) {
	if !IsStripeSubscriptionEvent(event.Type) {
		return NormalizedSubscription{}, ErrNotSubscriptionEvent
	}

	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return NormalizedSubscription{}, fmt.Errorf("decode subscription payload: %w", err)
	}
	if sub.ID == "" {
		return NormalizedSubscription{}, errors.New("subscription payload has no id")
	}

	userID, err := stripeUserID(sub.Metadata)
	if err != nil {
		return NormalizedSubscription{}, err
	}

	productID := ""
	periodEnd := sub.CurrentPeriodEnd
	for _, item := range sub.Items.Data {
		if productID == "" && item.Price.ID != "" {
			productID = item.Price.ID
		}
		// Newer API versions carry the period end per item instead of on
		// the subscription object.
		if item.CurrentPeriodEnd > periodEnd {
			periodEnd = item.CurrentPeriodEnd
		}
	}

	status := strings.ToLower(sub.Status)
	if event.Type == "customer.subscription.deleted" {
		status = models.BillingStatusCanceled
		if sub.EndedAt > 0 && (periodEnd == 0 || sub.EndedAt < periodEnd) {
			periodEnd = sub.EndedAt
		}
	}

	return NormalizedSubscription{
		UserID:                 userID,
		Provider:               models.PaymentProviderStripe,
		ProductID:              productID,
		ProviderSubscriptionID: sub.ID,
		ProviderCustomerID:     sub.Customer,
		Status:                 status,
		ExpiryTime:             periodEnd * 1_000_000,
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
		RawPayloadJSON:         string(event.Data.Raw),
	}, nil
}

func stripeUserID(metadata map[string]string) (uint, error) {
	raw := strings.TrimSpace(metadata["user_id"])
	if raw == "" {
		return 0, errors.New("subscription metadata has no user_id")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("subscription metadata user_id %q is not a valid user id", raw)
	}
	return uint(id), nil
}
