package billing

import (
	"strings"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/internal/pkg/entitlements"
)

func normalizePlan(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(entitlements.PlanPremium):
		return string(entitlements.PlanPremium)
	case string(entitlements.PlanPremiumMax):
		return string(entitlements.PlanPremiumMax)
	default:
		return string(entitlements.PlanFree)
	}
}

func planRank(plan string) int {
	switch normalizePlan(plan) {
	case string(entitlements.PlanPremiumMax):
		return 2
	case string(entitlements.PlanPremium):
		return 1
	default:
		return 0
	}
}

func normalizePeriod(period string) string {
	p := strings.ToLower(strings.TrimSpace(period))
	switch p {
	case models.BillingPeriodMonth, models.BillingPeriodYear:
		return p
	default:
		return "unknown"
	}
}

func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing", "past_due":
		return true
	default:
		return false
	}
}

// PlanMatching resolves a subscription's product identifier against the
// catalog. Every plan carries one product ID per payment provider and all of
// them are checked; first match wins, nil when nothing matches (unknown or
// free product).
func PlanMatching(plans []models.Plan, productID string) *models.Plan {
	for i := range plans {
		if plans[i].MatchesProductID(productID) {
			return &plans[i]
		}
	}
	return nil
}
