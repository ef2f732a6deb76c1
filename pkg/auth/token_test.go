package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/omersela/storagescout/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.AuthConfig{
		Secret:            "secret",
		Issuer:            "storagescout",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()

	payload := AccessTokenPayload{
		Subject: "operator-1",
		Name:    "Warehouse Operator",
		Email:   "ops@example.com",
		Kiosk:   "dock-3",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.Subject != payload.Subject {
		t.Fatalf("expected subject %s, got %s", payload.Subject, claims.Subject)
	}
	if claims.Name != payload.Name {
		t.Fatalf("name not preserved")
	}
	if claims.Email != payload.Email {
		t.Fatalf("email not preserved")
	}
	if claims.Kiosk != payload.Kiosk {
		t.Fatalf("kiosk not preserved")
	}

	// RegisteredClaims is embedded, so access fields directly.
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := config.AuthConfig{
		Secret:            "secret",
		Issuer:            "storagescout",
		ExpirationMinutes: 10,
	}
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Subject: "operator-2"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token+"x")
	if err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := config.AuthConfig{
		Secret:            "secret",
		Issuer:            "storagescout",
		ExpirationMinutes: 15,
	}
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{Subject: "operator-3"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenMissingSubject(t *testing.T) {
	cfg := config.AuthConfig{
		Secret:            "secret",
		Issuer:            "storagescout",
		ExpirationMinutes: 5,
	}
	if _, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing subject error")
	}
}
