package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/PixelVault/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// PostAuthRegister creates a new inactive account.
func (s *APIServer) PostAuthRegister(c *fiber.Ctx) error {
	return controllers.HandleRegister(c)
}

// GetAuthActivate activates an account via the mailed token.
func (s *APIServer) GetAuthActivate(c *fiber.Ctx) error {
	return controllers.HandleActivate(c)
}

// PostAuthLogin verifies credentials and issues an API key.
func (s *APIServer) PostAuthLogin(c *fiber.Ctx) error {
	return controllers.HandleLogin(c)
}

// GetPlans returns the public plan catalog.
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	return controllers.HandleListPlans(c)
}

// GetUserProfile returns account information for the authenticated user (API key).
// Security is enforced via API key middleware attached in the router.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// GetUserSubscription returns the subscription mirror plus the plan action verdict.
func (s *APIServer) GetUserSubscription(c *fiber.Ctx) error {
	return controllers.HandleGetSubscription(c)
}

// PostUserEmailChange starts an email change; the new address must confirm.
func (s *APIServer) PostUserEmailChange(c *fiber.Ctx) error {
	return controllers.HandleRequestEmailChange(c)
}

// GetUserEmailConfirm completes an email change via the mailed token.
func (s *APIServer) GetUserEmailConfirm(c *fiber.Ctx) error {
	return controllers.HandleConfirmEmailChange(c)
}

// DeleteUser soft-deletes the authenticated account.
func (s *APIServer) DeleteUser(c *fiber.Ctx) error {
	return controllers.HandleDeleteAccount(c)
}

// PostNewsletterSubscribe re-subscribes the authenticated user.
func (s *APIServer) PostNewsletterSubscribe(c *fiber.Ctx) error {
	return controllers.HandleNewsletterSubscribe(c)
}

// GetNewsletterUnsubscribe is the public one-click unsubscribe target.
func (s *APIServer) GetNewsletterUnsubscribe(c *fiber.Ctx) error {
	return controllers.HandleNewsletterUnsubscribe(c)
}

// PostStripeWebhook receives Stripe subscription lifecycle events.
func (s *APIServer) PostStripeWebhook(c *fiber.Ctx) error {
	return controllers.HandleStripeWebhook(c)
}

// GetAdminSettings returns the live application settings.
func (s *APIServer) GetAdminSettings(c *fiber.Ctx) error {
	return controllers.HandleAdminGetSettings(c)
}

// PutAdminSettings persists new application settings.
func (s *APIServer) PutAdminSettings(c *fiber.Ctx) error {
	return controllers.HandleAdminUpdateSettings(c)
}

// GetAdminStats returns registration and mailing-list sync statistics.
func (s *APIServer) GetAdminStats(c *fiber.Ctx) error {
	return controllers.HandleAdminStats(c)
}
