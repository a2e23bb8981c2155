package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/PixelVault/internal/pkg/billing"
	"github.com/ManuelReschke/PixelVault/internal/pkg/database"
	"github.com/ManuelReschke/PixelVault/internal/pkg/env"
)

// HandleStripeWebhook receives Stripe subscription lifecycle events and
// mirrors them into the local subscription table. Signature verification is
// the authentication; deliveries are deduplicated on the event ID so Stripe
// retries and replays stay idempotent.
func HandleStripeWebhook(c *fiber.Ctx) error {
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret == "" {
		log.Errorf("[StripeWebhook] STRIPE_WEBHOOK_SECRET is not configured")
		return jsonError(c, fiber.StatusServiceUnavailable, "not_configured", "Webhook is not configured")
	}

	payload := c.Body()
	event, err := billing.ParseStripeEvent(payload, c.Get("Stripe-Signature"), secret)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Invalid Stripe signature")
	}

	svc := billing.NewServiceFromDB(database.GetDB())

	created, stored, err := svc.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to record event")
	}
	if !created && stored.ProcessedAt != nil {
		// Replay of an already handled delivery.
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	if !billing.IsStripeSubscriptionEvent(event.Type) {
		// Acknowledged but ignored; only the subscription lifecycle is mirrored.
		if err := svc.MarkWebhookProcessed(c.Context(), stored.ID, nil); err != nil {
			log.Warnf("[StripeWebhook] Failed to mark event %s processed: %v", event.ID, err)
		}
		return c.JSON(fiber.Map{"received": true, "ignored": true})
	}

	processErr := processStripeSubscriptionEvent(c, svc, event)
	if err := svc.MarkWebhookProcessed(c.Context(), stored.ID, processErr); err != nil {
		log.Warnf("[StripeWebhook] Failed to mark event %s processed: %v", event.ID, err)
	}
	if processErr != nil {
		log.Errorf("[StripeWebhook] Processing event %s (%s) failed: %v", event.ID, event.Type, processErr)
		// Non-2xx makes Stripe retry the delivery.
		return jsonError(c, fiber.StatusInternalServerError, "processing_failed", "Failed to process event")
	}

	return c.JSON(fiber.Map{"received": true})
}

func processStripeSubscriptionEvent(c *fiber.Ctx, svc *billing.Service, event *stripe.Event) error {
	normalized, err := billing.NormalizeStripeSubscription(event)
	if err != nil {
		if errors.Is(err, billing.ErrNotSubscriptionEvent) {
			return nil
		}
		return err
	}
	_, _, err = svc.SyncSubscription(c.Context(), normalized)
	return err
}
