package mailinglist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelVault/internal/pkg/env"
)

const listActionURLTemplate = "https://campaigns.zoho.com/api/v1.1/json/%s?resfmt=JSON&listkey=%s&contactinfo=%s&topic_id=%s"

// ErrNotConfigured is returned by Subscribe/Unsubscribe when the integration
// is disabled (no refresh token configured). It signals an intentional skip,
// not a failure - callers treat it as a non-fatal no-op.
var ErrNotConfigured = errors.New("mailing list integration is not configured")

// requester is the outbound HTTP seam; *Client satisfies it in production.
type requester interface {
	DoRequest(ctx context.Context, method, rawURL, accessToken string, creds Credentials) (string, error)
}

// logger is the small leveled-logging seam used by the controller so tests
// can assert on severities.
type logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// fiberLogger routes controller logging to the shared fiber logger.
type fiberLogger struct{}

func (fiberLogger) Infof(format string, args ...interface{})  { log.Infof(format, args...) }
func (fiberLogger) Warnf(format string, args ...interface{})  { log.Warnf(format, args...) }
func (fiberLogger) Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }

// Controller keeps the external mailing list in sync with the user database:
// subscribe on signup, re-sync on email change, unsubscribe on account
// deletion. The vendor list is the sole source of truth for membership; no
// local membership state is kept.
//
// The only mutable state is the cached access token. Concurrent calls race on
// it with last-write-wins semantics, which is fine because it is a soft
// cache: a stale value just makes the client mint a fresh token on the next
// call. The atomic.Value keeps the race free of data corruption without
// promising any ordering.
type Controller struct {
	creds    Credentials
	listKey  string
	topicIDs string

	accessToken atomic.Value // string

	client requester
	log    logger
}

// NewControllerFromEnv builds a controller from ZOHO_* environment settings.
// When ZOHO_REFRESH_TOKEN is absent the controller runs in disabled mode and
// never performs network I/O.
func NewControllerFromEnv() *Controller {
	creds := Credentials{
		ClientID:     strings.TrimSpace(env.GetEnv("ZOHO_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("ZOHO_CLIENT_SECRET", "")),
		RefreshToken: strings.TrimSpace(env.GetEnv("ZOHO_REFRESH_TOKEN", "")),
	}

	c := &Controller{
		creds: creds,
		// The list key identifies the one campaign list all actions are
		// performed on. Must have "Signup Form Disabled" set so resubscribes
		// do not trigger confirmation mails.
		listKey: strings.TrimSpace(env.GetEnv("ZOHO_LIST_KEY", "")),
		// Comma-joined topic IDs the list emails are tagged with.
		topicIDs: strings.TrimSpace(env.GetEnv("ZOHO_TOPIC_IDS", "")),
		client:   NewClient(),
		log:      fiberLogger{},
	}
	// Zoho rate-limits access token creation, so for local debugging a
	// pre-minted token can be seeded. Production leaves this empty and mints
	// from the refresh token on demand.
	c.accessToken.Store(strings.TrimSpace(env.GetEnv("ZOHO_ACCESS_TOKEN", "")))
	return c
}

// IsEnabled reports whether the integration is configured.
func (c *Controller) IsEnabled() bool {
	return c.creds.RefreshToken != ""
}

// Subscribe adds the email address to the configured campaign list.
//
// Resubscribing an address that is already on the list, or was unsubscribed
// earlier, succeeds without distinguishing the no-op.
func (c *Controller) Subscribe(email string) error {
	if c.shouldSkip() {
		return ErrNotConfigured
	}
	return c.doListAction("listsubscribe", email)
}

// Unsubscribe removes the email address from the configured campaign list.
func (c *Controller) Unsubscribe(email string) error {
	if c.shouldSkip() {
		return ErrNotConfigured
	}
	return c.doListAction("listunsubscribe", email)
}

func (c *Controller) shouldSkip() bool {
	if !c.IsEnabled() {
		c.log.Infof("[MailingList] Skipping list update, credentials are not configured")
		return true
	}
	return false
}

// doListAction carries the shared protocol of the listsubscribe and
// listunsubscribe endpoints.
//
// The double escaping is load-bearing: the email is query-escaped first so a
// "+" becomes %2B, then the composite contactinfo literal is path-escaped.
// Path escaping leaves "+" alone; query-escaping the literal a second time
// would re-encode it and the vendor would no longer recognize the parameter.
func (c *Controller) doListAction(action string, email string) error {
	escapedEmail := url.QueryEscape(email)
	contactInfo := fmt.Sprintf("{Contact+Email: \"%s\"}", escapedEmail)
	escapedContactInfo := url.PathEscape(contactInfo)

	actionURL := fmt.Sprintf(listActionURLTemplate, action, c.listKey, escapedContactInfo, c.topicIDs)

	token, err := c.client.DoRequest(context.Background(), http.MethodPost, actionURL, c.cachedAccessToken(), c.creds)
	// Keep whatever token the client ended up with, even when the call
	// failed - the client may have minted a fresh one before failing.
	c.accessToken.Store(token)

	if err != nil {
		if isContactMissing(err) {
			// Expected when the contact erased their data on the vendor
			// side; reduce severity to keep the error log clean.
			c.log.Warnf("[MailingList] Could not %s '%s': %v", action, email, err)
		} else {
			c.log.Errorf("[MailingList] Could not %s '%s': %v", action, email, err)
		}
	}

	return err
}

func (c *Controller) cachedAccessToken() string {
	if v, ok := c.accessToken.Load().(string); ok {
		return v
	}
	return ""
}

// IsContactMissing classifies an error from Subscribe/Unsubscribe as the
// recoverable "contact does not exist" case. Deletion flows use it to ignore
// the failure.
func IsContactMissing(err error) bool {
	return isContactMissing(err)
}
