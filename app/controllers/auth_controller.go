package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/app/repository"
	"github.com/ManuelReschke/PixelVault/internal/pkg/database"
	"github.com/ManuelReschke/PixelVault/internal/pkg/env"
	"github.com/ManuelReschke/PixelVault/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/PixelVault/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PixelVault/internal/pkg/mail"
)

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an inactive account and mails the activation link.
func HandleRegister(c *fiber.Ctx) error {
	if !models.GetAppSettings().IsRegistrationEnabled() {
		return jsonError(c, fiber.StatusForbidden, "registration_disabled", "Registration is currently disabled")
	}

	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	// Captcha verification is only enforced when a secret is configured so
	// local setups work without an hCaptcha account.
	if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
		valid, err := hcaptcha.Verify(req.CaptchaToken)
		if err != nil || !valid {
			if err != nil {
				log.Warnf("[Auth] hCaptcha validation error: %v", err)
			}
			return jsonError(c, fiber.StatusBadRequest, "captcha_failed", "Captcha validation failed. Please try again.")
		}
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	user.IPv4, user.IPv6 = GetClientIP(c)
	if err := user.GenerateActivationToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to prepare activation")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(user.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "An account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check email")
	}

	if err := repo.Create(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create account")
	}

	go sendActivationMail(user.Email, user.Name, user.ActivationToken)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      user.ID,
		"email":   user.Email,
		"status":  user.Status,
		"message": "Account created. Please check your inbox for the activation link.",
	})
}

// HandleActivate activates an account via the mailed token and enqueues the
// mailing-list subscription for the fresh address.
func HandleActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Activation token missing")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "invalid_token", "Unknown activation token")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}

	if user.IsActive() {
		return c.JSON(fiber.Map{"message": "Account is already active"})
	}
	if !user.IsActivationTokenValid(token) {
		return jsonError(c, fiber.StatusGone, "token_expired", "Activation token expired, please register again")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	user.ActivationSentAt = nil
	if err := repo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to activate account")
	}

	enqueueMailingListSubscribe(user.ID, user.Email)

	return c.JSON(fiber.Map{"message": "Account activated"})
}

// HandleLogin verifies credentials and issues a fresh API key. Issuing
// replaces any previous key; clients store the returned secret, the server
// only keeps its hash.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil || !user.CheckPassword(req.Password) {
		// notice: in production you should not inform the user
		// with detailed messages about login failures
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "Email or password is wrong")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "inactive_account", "Account is not activated")
	}

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}

	apiKey, err := settings.IssueAPIKey()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to issue API key")
	}
	if err := db.Save(settings).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store API key")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("[Auth] Failed to update last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"api_key":        apiKey,
		"api_key_prefix": settings.APIKeyPrefix,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Name,
			"email":    user.Email,
			"plan":     settings.Plan,
		},
	})
}

func sendActivationMail(to, username, token string) {
	appURL := strings.TrimRight(env.GetEnv("APP_URL", "http://localhost:4000"), "/")
	link := fmt.Sprintf("%s/api/v1/auth/activate?token=%s", appURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>welcome to PixelVault! Please confirm your email address:</p>"+
			"<p><a href=\"%s\">Activate account</a></p>"+
			"<p>The link is valid for 48 hours.</p>", username, link)
	if err := mail.SendMail(to, "PixelVault - Activate your account", body); err != nil {
		log.Errorf("[Auth] Failed to send activation mail to %s: %v", to, err)
	}
}

// enqueueMailingListSubscribe hands the subscribe to the job queue; campaign
// list sync must never block or fail an account operation.
func enqueueMailingListSubscribe(userID uint, email string) {
	if !models.GetAppSettings().IsNewsletterEnabled() {
		return
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueMailingListSubscribe(userID, email); err != nil {
		log.Errorf("[Auth] Failed to enqueue mailing list subscribe for user %d: %v", userID, err)
	}
}

func enqueueMailingListUnsubscribe(userID uint, email string) {
	if !models.GetAppSettings().IsNewsletterEnabled() {
		return
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueMailingListUnsubscribe(userID, email); err != nil {
		log.Errorf("[Auth] Failed to enqueue mailing list unsubscribe for user %d: %v", userID, err)
	}
}
