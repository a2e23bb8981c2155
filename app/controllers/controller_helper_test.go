package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2024, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name     string
		headers  map[string]string
		wantIPv4 string
		wantIPv6 string
	}{
		{
			name:     "cloudflare ipv4",
			headers:  map[string]string{"CF-Connecting-IP": "203.0.113.7"},
			wantIPv4: "203.0.113.7",
		},
		{
			name:     "cloudflare ipv6",
			headers:  map[string]string{"CF-Connecting-IP": "2001:db8::1"},
			wantIPv6: "2001:db8::1",
		},
		{
			name:     "forwarded list takes first of each family",
			headers:  map[string]string{"X-Forwarded-For": "198.51.100.2, 2001:db8::2, 198.51.100.3"},
			wantIPv4: "198.51.100.2",
			wantIPv6: "2001:db8::2",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				ipv4, ipv6 := GetClientIP(c)
				return c.JSON(fiber.Map{"ipv4": ipv4, "ipv6": ipv6})
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)

			var got struct {
				IPv4 string `json:"ipv4"`
				IPv6 string `json:"ipv6"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tc.wantIPv4, got.IPv4)
			assert.Equal(t, tc.wantIPv6, got.IPv6)
		})
	}
}
