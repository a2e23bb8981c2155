package mailinglist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultZohoTokenURL = "https://accounts.zoho.com/oauth/v2/token"

	// Error code Zoho Campaigns returns when the contact record was erased
	// on their side (e.g. the customer picked "Erase my data" when
	// unsubscribing). See isContactMissing.
	zohoCodeContactMissing = "2103"
)

// Credentials is the long-lived credential set used to mint short-lived
// access tokens for the campaign API.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// APIError is a structured error response from the campaign API. The body
// shape is shared by all v1.1 JSON endpoints:
//
//	{ "code":"2103",
//	  "message":"Contact does not exist.",
//	  "version":"1.1",
//	  "uri":"/api/v1.1/json/listunsubscribe",
//	  "status":"error"}
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
	URI     string `json:"uri"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zoho: %s (code %s)", e.Message, e.Code)
}

type zohoTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error"`
}

// Client talks to the Zoho Campaigns HTTP API. It owns the refresh-token to
// access-token exchange; callers hold on to the token it returns and pass it
// back in on the next request so a mint is only needed when the cached token
// is missing or expired.
type Client struct {
	TokenURL   string
	HTTPClient *http.Client
}

// NewClient creates a campaign API client with the production token endpoint.
func NewClient() *Client {
	return &Client{
		TokenURL: defaultZohoTokenURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// DoRequest performs an authenticated request against the campaign API.
//
// If accessToken is empty a fresh one is minted from the refresh token first.
// When the API rejects the request because the token expired, the client
// mints once and retries once. The freshest known access token is returned in
// every case - including failures - so the caller can cache it.
func (c *Client) DoRequest(ctx context.Context, method, rawURL, accessToken string, creds Credentials) (string, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		minted, err := c.mintAccessToken(ctx, creds)
		if err != nil {
			return "", err
		}
		token = minted
	}

	err := c.doOnce(ctx, method, rawURL, token)
	if err == nil {
		return token, nil
	}

	// An expired or revoked token is worth exactly one mint-and-retry;
	// anything else is passed through as-is.
	if !isAuthFailure(err) {
		return token, err
	}

	minted, mintErr := c.mintAccessToken(ctx, creds)
	if mintErr != nil {
		return token, mintErr
	}
	return minted, c.doOnce(ctx, method, rawURL, minted)
}

func (c *Client) doOnce(ctx context.Context, method, rawURL, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	// The API reports errors in the body with status "error"; the HTTP
	// status alone is not reliable, some error bodies come back as 200.
	var apiErr APIError
	if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Status == "error" {
		return &apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("zoho: request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) mintAccessToken(ctx context.Context, creds Credentials) (string, error) {
	if strings.TrimSpace(creds.RefreshToken) == "" {
		return "", errors.New("zoho: refresh token is not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("refresh_token", creds.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("zoho: token exchange failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out zohoTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("zoho: token exchange returned invalid JSON: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("zoho: token exchange failed: %s", out.Error)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("zoho: token exchange returned empty access_token")
	}
	return out.AccessToken, nil
}

// isAuthFailure reports whether the API rejected the request because the
// access token is invalid or expired.
func isAuthFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "1007", "1017": // invalid oauthtoken / token expired
			return true
		}
		return strings.Contains(strings.ToLower(apiErr.Message), "oauthtoken")
	}
	return false
}

// isContactMissing reports whether the error means the contact record is
// absent on the vendor side. That happens when the customer previously
// unsubscribed with "Erase my data", which deletes their whole record; a
// later unsubscribe (say, on account deletion) then has nothing to act on.
func isContactMissing(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == zohoCodeContactMissing {
		return true
	}
	// Compatibility shim for errors that reach us as plain wrapped text.
	return err != nil && strings.Contains(err.Error(), "Contact does not exist")
}
