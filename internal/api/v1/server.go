package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// Pong is the health ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists every operation of the v1 API. The route paths are
// the single source of truth in public/docs/api/v1/openapi.yml; a test keeps
// both in sync.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error

	PostAuthRegister(c *fiber.Ctx) error
	GetAuthActivate(c *fiber.Ctx) error
	PostAuthLogin(c *fiber.Ctx) error

	GetPlans(c *fiber.Ctx) error

	GetUserProfile(c *fiber.Ctx) error
	GetUserSubscription(c *fiber.Ctx) error
	PostUserEmailChange(c *fiber.Ctx) error
	GetUserEmailConfirm(c *fiber.Ctx) error
	DeleteUser(c *fiber.Ctx) error

	PostNewsletterSubscribe(c *fiber.Ctx) error
	GetNewsletterUnsubscribe(c *fiber.Ctx) error

	PostStripeWebhook(c *fiber.Ctx) error

	GetAdminSettings(c *fiber.Ctx) error
	PutAdminSettings(c *fiber.Ctx) error
	GetAdminStats(c *fiber.Ctx) error
}

// RegisterHandlers wires the v1 operations onto the router. Operations on
// account-owned resources go through the API key middleware; token-link and
// webhook endpoints carry their own authentication. Admin operations stack
// the extra middlewares on top of the key auth.
func RegisterHandlers(router fiber.Router, si ServerInterface, apiKeyAuth fiber.Handler, adminOnly ...fiber.Handler) {
	router.Get("/ping", si.GetPing)

	router.Post("/auth/register", si.PostAuthRegister)
	router.Get("/auth/activate", si.GetAuthActivate)
	router.Post("/auth/login", si.PostAuthLogin)

	router.Get("/plans", si.GetPlans)

	router.Get("/user/email/confirm", si.GetUserEmailConfirm)
	router.Get("/newsletter/unsubscribe", si.GetNewsletterUnsubscribe)

	router.Post("/webhooks/stripe", si.PostStripeWebhook)

	protected := router.Group("", apiKeyAuth)
	protected.Get("/user/profile", si.GetUserProfile)
	protected.Get("/user/subscription", si.GetUserSubscription)
	protected.Post("/user/email", si.PostUserEmailChange)
	protected.Delete("/user", si.DeleteUser)
	protected.Post("/newsletter/subscribe", si.PostNewsletterSubscribe)

	admin := protected.Group("/admin")
	for _, h := range adminOnly {
		admin.Use(h)
	}
	admin.Get("/settings", si.GetAdminSettings)
	admin.Put("/settings", si.PutAdminSettings)
	admin.Get("/stats", si.GetAdminStats)
}
