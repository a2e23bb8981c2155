package billing

import (
	"time"

	"github.com/ManuelReschke/PixelVault/app/models"
)

// PlanAction is the single next step the product offers a user for their
// current subscription state.
type PlanAction string

const (
	// PlanActionBuy: no usable paid subscription, offer the catalog.
	PlanActionBuy PlanAction = "buy"
	// PlanActionUpdate: active Stripe subscription, plan changes are self-serve.
	PlanActionUpdate PlanAction = "update"
	// PlanActionCancelOnMobile: the subscription is owned by a mobile store
	// account; it must be cancelled there before anything can change here.
	PlanActionCancelOnMobile PlanAction = "cancel_on_mobile"
	// PlanActionContactSupport: bespoke or legacy provider, manual handling.
	PlanActionContactSupport PlanAction = "contact_support"
)

// PlanActionFor decides what a user can do with their subscription. A nil
// subscription is a valid input (account never purchased anything).
func PlanActionFor(sub *models.Subscription) PlanAction {
	// Read the clock exactly once; every comparison below sees the same now.
	return planActionAt(sub, time.Now().UnixMicro())
}

// planActionAt is the clock-free core. The order of the checks is
// deliberate: expiry wins over the provider dispatch, so an expired store
// subscription falls through to the buy flow instead of the cancel hint.
func planActionAt(sub *models.Subscription, nowMicros int64) PlanAction {
	if sub == nil {
		return PlanActionBuy
	}
	if sub.ProductID == models.FreePlanProductID {
		return PlanActionBuy
	}
	if sub.ExpiryTime < nowMicros {
		return PlanActionBuy
	}

	switch sub.PaymentProvider {
	case models.PaymentProviderStripe:
		return PlanActionUpdate
	case models.PaymentProviderAppStore, models.PaymentProviderPlayStore:
		return PlanActionCancelOnMobile
	default:
		return PlanActionContactSupport
	}
}
