package models

import "time"

// Payment providers a subscription can originate from. The empty string is
// reserved for accounts that never purchased (free plan only).
const (
	PaymentProviderStripe    = "stripe"
	PaymentProviderAppStore  = "appstore"
	PaymentProviderPlayStore = "playstore"
	PaymentProviderPayPal    = "paypal"
	PaymentProviderBitPay    = "bitpay"
)

// FreePlanProductID is the sentinel product identifier for the free tier.
// A subscription carrying it is never treated as an active paid one.
const FreePlanProductID = "free"

const (
	BillingPeriodMonth = "month"
	BillingPeriodYear  = "year"
)

const (
	BillingStatusActive     = "active"
	BillingStatusTrialing   = "trialing"
	BillingStatusPastDue    = "past_due"
	BillingStatusCanceled   = "canceled"
	BillingStatusIncomplete = "incomplete"
	BillingStatusExpired    = "expired"
	BillingStatusPaused     = "paused"
)

// Subscription mirrors the provider-side subscription for a user. It is only
// written by webhook/reconcile paths; readers treat it as a snapshot.
// ExpiryTime is a microsecond epoch so store receipts and Stripe periods land
// in the same unit.
type Subscription struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	UserID                 uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	ProductID              string    `gorm:"type:varchar(191);not null;default:'free';index" json:"product_id"`
	PaymentProvider        string    `gorm:"type:varchar(20);not null;default:'';index:idx_subscriptions_provider_status,priority:1" json:"payment_provider"`
	ProviderSubscriptionID string    `gorm:"type:varchar(191);not null;default:'';index" json:"provider_subscription_id"`
	ProviderCustomerID     string    `gorm:"type:varchar(191);not null;default:'';index" json:"provider_customer_id"`
	Status                 string    `gorm:"type:varchar(32);not null;default:'active';index:idx_subscriptions_provider_status,priority:2" json:"status"`
	ExpiryTime             int64     `gorm:"not null;default:0;index" json:"expiry_time"`
	StorageBytes           int64     `gorm:"not null;default:0" json:"storage_bytes"`
	CancelAtPeriodEnd      bool      `gorm:"default:false" json:"cancel_at_period_end"`
	RawPayloadJSON         string    `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsFreePlan reports whether the mirrored product is the free tier sentinel.
func (s *Subscription) IsFreePlan() bool {
	return s.ProductID == FreePlanProductID
}

// IsExpiredAt compares the expiry against a microsecond-epoch instant.
func (s *Subscription) IsExpiredAt(nowMicros int64) bool {
	return s.ExpiryTime < nowMicros
}

// ExpiresAt returns the expiry as wall-clock time.
func (s *Subscription) ExpiresAt() time.Time {
	return time.UnixMicro(s.ExpiryTime)
}
