package models

import "time"

// Plan is an immutable catalog entry offered for purchase. Each row carries
// one product identifier per payment provider; a subscription's ProductID is
// matched against all three columns when resolving its plan.
type Plan struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	InternalPlan string    `gorm:"type:varchar(50);not null;default:'free';index" json:"internal_plan"`
	StorageBytes int64     `gorm:"not null;default:0" json:"storage_bytes"`
	Price        string    `gorm:"type:varchar(32);not null;default:''" json:"price"`
	Period       string    `gorm:"type:varchar(16);not null;default:'month'" json:"period"`
	StripeID     string    `gorm:"type:varchar(191);not null;default:'';index" json:"stripe_id"`
	IOSID        string    `gorm:"type:varchar(191);not null;default:'';index" json:"ios_id"`
	AndroidID    string    `gorm:"type:varchar(191);not null;default:'';index" json:"android_id"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	SortOrder    int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MatchesProductID reports whether any of the per-provider identifiers equals
// the given product ID. The free sentinel never matches a catalog entry.
func (p *Plan) MatchesProductID(productID string) bool {
	if productID == "" || productID == FreePlanProductID {
		return false
	}
	return p.StripeID == productID || p.IOSID == productID || p.AndroidID == productID
}
