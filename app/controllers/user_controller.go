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
	"github.com/ManuelReschke/PixelVault/internal/pkg/billing"
	"github.com/ManuelReschke/PixelVault/internal/pkg/database"
	"github.com/ManuelReschke/PixelVault/internal/pkg/entitlements"
	"github.com/ManuelReschke/PixelVault/internal/pkg/env"
	"github.com/ManuelReschke/PixelVault/internal/pkg/mail"
	"github.com/ManuelReschke/PixelVault/internal/pkg/usercontext"
)

type emailChangeRequest struct {
	NewEmail string `json:"new_email"`
	Password string `json:"password"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// HandleGetUserAccount returns account information for the authenticated user.
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	db := database.GetDB()
	if db == nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Database unavailable")
	}
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}

	svc := billing.NewServiceFromDB(db)
	action, sub, err := svc.PlanActionForUser(c.Context(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load subscription")
	}

	plan := entitlements.Plan(settings.Plan)
	if plan == "" {
		plan = entitlements.PlanFree
	}

	response := fiber.Map{
		"id":                   account.ID,
		"username":             account.Name,
		"email":                account.Email,
		"status":               account.Status,
		"plan":                 string(plan),
		"is_admin":             account.Role == models.ROLE_ADMIN,
		"created_at":           account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":        formatTimePtr(account.LastLoginAt),
		"api_key_last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
		"pending_email":        nil,
		"limits": fiber.Map{
			"storage_quota_bytes": entitlements.EffectiveQuota(settings, sub),
		},
		"subscription": subscriptionJSON(sub, action),
	}
	if account.HasPendingEmailChange() {
		response["pending_email"] = account.PendingEmail
	}

	return c.JSON(response)
}

// HandleRequestEmailChange stores the new address as pending and mails a
// confirmation token to it. The address only becomes effective on confirm.
func HandleRequestEmailChange(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var req emailChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	newEmail := strings.TrimSpace(strings.ToLower(req.NewEmail))
	if newEmail == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "new_email is required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}
	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusForbidden, "invalid_credentials", "Password is wrong")
	}
	if strings.EqualFold(user.Email, newEmail) {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "New email equals the current address")
	}
	if _, err := repo.GetByEmail(newEmail); err == nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "An account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check email")
	}

	user.PendingEmail = newEmail
	if err := user.GenerateEmailChangeToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to prepare email change")
	}
	if err := repo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store email change")
	}

	go sendEmailChangeMail(newEmail, user.Name, user.EmailChangeToken)

	return c.JSON(fiber.Map{"message": "Confirmation mail sent to the new address"})
}

// HandleConfirmEmailChange switches the account to the pending address and
// re-syncs the mailing list: the old address is unsubscribed, the new one
// subscribed.
func HandleConfirmEmailChange(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Confirmation token missing")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmailChangeToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "invalid_token", "Unknown confirmation token")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}
	if !user.IsEmailChangeTokenValid(token) || !user.HasPendingEmailChange() {
		return jsonError(c, fiber.StatusGone, "token_expired", "Confirmation token expired, please request the change again")
	}

	oldEmail := user.Email
	user.Email = user.PendingEmail
	user.ClearEmailChangeRequest()
	if err := repo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update email")
	}

	enqueueMailingListUnsubscribe(user.ID, oldEmail)
	enqueueMailingListSubscribe(user.ID, user.Email)

	return c.JSON(fiber.Map{"message": "Email address updated", "email": user.Email})
}

// HandleDeleteAccount soft-deletes the account, revokes the API key and
// unsubscribes the address from the mailing list.
func HandleDeleteAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var req deleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}
	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusForbidden, "invalid_credentials", "Password is wrong")
	}

	db := database.GetDB()
	if settings, serr := models.GetOrCreateUserSettings(db, user.ID); serr == nil && settings.HasActiveAPIKey() {
		settings.RevokeAPIKey()
		if err := db.Save(settings).Error; err != nil {
			log.Warnf("[User] Failed to revoke API key for user %d: %v", user.ID, err)
		}
	}

	if err := repo.Delete(user.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete account")
	}

	enqueueMailingListUnsubscribe(user.ID, user.Email)

	return c.JSON(fiber.Map{"message": "Account deleted"})
}

func sendEmailChangeMail(to, username, token string) {
	appURL := strings.TrimRight(env.GetEnv("APP_URL", "http://localhost:4000"), "/")
	link := fmt.Sprintf("%s/api/v1/user/email/confirm?token=%s", appURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>please confirm your new email address:</p>"+
			"<p><a href=\"%s\">Confirm email change</a></p>"+
			"<p>The link is valid for 24 hours. If you did not request this change, ignore this mail.</p>",
		username, link)
	if err := mail.SendMail(to, "PixelVault - Confirm your new email address", body); err != nil {
		log.Errorf("[User] Failed to send email change mail to %s: %v", to, err)
	}
}
