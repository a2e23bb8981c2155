package security

import (
	"strings"
	"testing"
	"time"
)

func TestLinkTokenRoundTrip(t *testing.T) {
	token, err := GenerateLinkToken("user@example.com", PurposeNewsletterUnsubscribe, 42, time.Hour, "s3cret")
	if err != nil {
		t.Fatalf("GenerateLinkToken: %v", err)
	}

	claims, err := VerifyLinkToken(token, PurposeNewsletterUnsubscribe, "s3cret")
	if err != nil {
		t.Fatalf("VerifyLinkToken: %v", err)
	}
	if claims.Email != "user@example.com" || claims.UserID != 42 {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLinkTokenRejectsTampering(t *testing.T) {
	token, err := GenerateLinkToken("user@example.com", PurposeNewsletterUnsubscribe, 42, time.Hour, "s3cret")
	if err != nil {
		t.Fatalf("GenerateLinkToken: %v", err)
	}

	if _, err := VerifyLinkToken(token, PurposeNewsletterUnsubscribe, "other"); err == nil {
		t.Fatal("wrong secret accepted")
	}
	if _, err := VerifyLinkToken(token, "password_reset", "s3cret"); err == nil {
		t.Fatal("wrong purpose accepted")
	}
	parts := strings.SplitN(token, ".", 2)
	forged := parts[0] + "x." + parts[1]
	if _, err := VerifyLinkToken(forged, PurposeNewsletterUnsubscribe, "s3cret"); err == nil {
		t.Fatal("tampered payload accepted")
	}
}

func TestLinkTokenExpiry(t *testing.T) {
	token, err := GenerateLinkToken("user@example.com", PurposeNewsletterUnsubscribe, 0, -time.Minute, "s3cret")
	if err != nil {
		t.Fatalf("GenerateLinkToken: %v", err)
	}
	if _, err := VerifyLinkToken(token, PurposeNewsletterUnsubscribe, "s3cret"); err == nil {
		t.Fatal("expired token accepted")
	}
}
