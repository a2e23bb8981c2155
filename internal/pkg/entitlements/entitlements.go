package entitlements

import (
	"strings"

	"github.com/ManuelReschke/PixelVault/app/models"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPremium    Plan = "premium"
	PlanPremiumMax Plan = "premium_max"
)

const (
	quotaFree       = int64(2) << 30   // 2 GiB
	quotaPremium    = int64(200) << 30 // 200 GiB
	quotaPremiumMax = int64(2) << 40   // 2 TiB
)

// StorageQuota returns the storage allowance in bytes for a given plan tier.
func StorageQuota(plan Plan) int64 {
	switch plan {
	case PlanPremiumMax:
		return quotaPremiumMax
	case PlanPremium:
		return quotaPremium
	default:
		return quotaFree
	}
}

// EffectiveQuota combines the plan tier default with the quota granted on the
// active subscription. A paid subscription may carry a catalog quota larger
// than the tier default (e.g. promo plans); the larger value wins.
func EffectiveQuota(us *models.UserSettings, sub *models.Subscription) int64 {
	plan := PlanFree
	if us != nil && us.Plan != "" {
		plan = Plan(strings.ToLower(us.Plan))
	}
	quota := StorageQuota(plan)

	if sub != nil && sub.StorageBytes > quota {
		quota = sub.StorageBytes
	}
	return quota
}
