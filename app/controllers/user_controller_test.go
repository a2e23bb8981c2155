package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unauthenticated requests must be rejected before any repository access.
func TestUserHandlersRequireAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/user/profile", HandleGetUserAccount)
	app.Get("/user/subscription", HandleGetSubscription)
	app.Post("/user/email", HandleRequestEmailChange)
	app.Delete("/user", HandleDeleteAccount)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/user/profile"},
		{http.MethodGet, "/user/subscription"},
		{http.MethodPost, "/user/email"},
		{http.MethodDelete, "/user"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestHandleConfirmEmailChangeRequiresToken(t *testing.T) {
	app := fiber.New()
	app.Get("/user/email/confirm", HandleConfirmEmailChange)

	req := httptest.NewRequest(http.MethodGet, "/user/email/confirm", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
