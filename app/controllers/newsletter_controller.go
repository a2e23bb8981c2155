package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/app/repository"
	"github.com/ManuelReschke/PixelVault/internal/pkg/env"
	"github.com/ManuelReschke/PixelVault/internal/pkg/security"
	"github.com/ManuelReschke/PixelVault/internal/pkg/usercontext"
)

// HandleNewsletterSubscribe re-subscribes the authenticated user to the
// mailing list. Subscribing an address that is already on the list is a
// silent no-op on the vendor side.
func HandleNewsletterSubscribe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}
	if !models.GetAppSettings().IsNewsletterEnabled() {
		return jsonError(c, fiber.StatusForbidden, "newsletter_disabled", "Newsletter is currently disabled")
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	enqueueMailingListSubscribe(user.ID, user.Email)

	return c.JSON(fiber.Map{"message": "Subscription queued"})
}

// HandleNewsletterUnsubscribe is the public one-click unsubscribe target
// linked from every campaign mail. The HMAC token is the only
// authentication; no session or API key is required.
func HandleNewsletterUnsubscribe(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Unsubscribe token missing")
	}

	secret := env.GetEnv("LINK_TOKEN_SECRET", "")
	claims, err := security.VerifyLinkToken(token, security.PurposeNewsletterUnsubscribe, secret)
	if err != nil {
		return jsonError(c, fiber.StatusForbidden, "invalid_token", "Unsubscribe link is invalid or expired")
	}

	enqueueMailingListUnsubscribe(claims.UserID, claims.Email)

	return c.JSON(fiber.Map{"message": "You have been unsubscribed", "email": claims.Email})
}

// NewsletterUnsubscribeURL builds the signed one-click unsubscribe link for
// an address, for embedding into outgoing mail.
func NewsletterUnsubscribeURL(userID uint, email string) (string, error) {
	secret := env.GetEnv("LINK_TOKEN_SECRET", "")
	token, err := security.GenerateLinkToken(email, security.PurposeNewsletterUnsubscribe, userID, 90*24*time.Hour, secret)
	if err != nil {
		return "", err
	}
	appURL := strings.TrimRight(env.GetEnv("APP_URL", "http://localhost:4000"), "/")
	return appURL + "/api/v1/newsletter/unsubscribe?token=" + token, nil
}
