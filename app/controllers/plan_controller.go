package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/app/repository"
	"github.com/ManuelReschke/PixelVault/internal/pkg/billing"
	"github.com/ManuelReschke/PixelVault/internal/pkg/database"
	"github.com/ManuelReschke/PixelVault/internal/pkg/usercontext"
)

// HandleListPlans returns the public plan catalog.
func HandleListPlans(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetPlanRepository()
	plans, err := repo.GetActive()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plans")
	}

	out := make([]fiber.Map, 0, len(plans))
	for _, plan := range plans {
		out = append(out, fiber.Map{
			"id":            plan.ID,
			"name":          plan.Name,
			"plan":          plan.InternalPlan,
			"storage_bytes": plan.StorageBytes,
			"price":         plan.Price,
			"period":        plan.Period,
			"stripe_id":     plan.StripeID,
			"ios_id":        plan.IOSID,
			"android_id":    plan.AndroidID,
		})
	}
	return c.JSON(fiber.Map{"plans": out})
}

// HandleGetSubscription returns the user's subscription mirror together with
// the single next step the product should offer for it.
func HandleGetSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	action, sub, err := svc.PlanActionForUser(c.Context(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load subscription")
	}

	return c.JSON(subscriptionJSON(sub, action))
}

// subscriptionJSON renders the mirror row plus the classifier verdict. A nil
// subscription (never purchased) still carries the verdict.
func subscriptionJSON(sub *models.Subscription, action billing.PlanAction) fiber.Map {
	out := fiber.Map{
		"plan_action":  string(action),
		"subscription": nil,
	}
	if sub == nil {
		return out
	}
	var expiresAt interface{}
	if sub.ExpiryTime > 0 {
		expiresAt = time.UnixMicro(sub.ExpiryTime).UTC().Format(time.RFC3339)
	}
	out["subscription"] = fiber.Map{
		"product_id":           sub.ProductID,
		"payment_provider":     sub.PaymentProvider,
		"status":               sub.Status,
		"storage_bytes":        sub.StorageBytes,
		"expiry_time":          sub.ExpiryTime,
		"expires_at":           expiresAt,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
	}
	return out
}
