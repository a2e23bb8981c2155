package billing

// NormalizedSubscription is the provider-agnostic shape used by the billing
// service when syncing external subscription state into the local mirror.
// ExpiryTime carries the current period end as a microsecond epoch.
type NormalizedSubscription struct {
	UserID                 uint
	Provider               string
	ProductID              string
	ProviderSubscriptionID string
	ProviderCustomerID     string
	Status                 string
	ExpiryTime             int64
	CancelAtPeriodEnd      bool
	RawPayloadJSON         string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
