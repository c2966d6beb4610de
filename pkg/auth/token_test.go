package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret: "secret",
		Issuer: "indyhub",
	}
	now := time.Now().UTC()
	userID := uuid.New()

	payload := AccessTokenPayload{
		UserID:        userID,
		CorporationID: 98000001,
		CharacterName: "Test Pilot",
	}

	token, err := MintAccessToken(cfg, now, 30*time.Minute, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.CorporationID != 98000001 {
		t.Fatalf("unexpected corporation id %d", claims.CorporationID)
	}
	if claims.Issuer != "indyhub" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected generated jti")
	}
}

func TestParseAccessToken_RejectsWrongIssuer(t *testing.T) {
	mintCfg := config.JWTConfig{Secret: "secret", Issuer: "someone-else"}
	token, err := MintAccessToken(mintCfg, time.Now(), time.Minute, AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parseCfg := config.JWTConfig{Secret: "secret", Issuer: "indyhub"}
	if _, err := ParseAccessToken(parseCfg, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseAccessToken_RejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "indyhub"}
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Minute, AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestMintAccessToken_Validation(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "indyhub"}

	if _, err := MintAccessToken(config.JWTConfig{Issuer: "indyhub"}, time.Now(), time.Minute, AccessTokenPayload{UserID: uuid.New()}); err == nil || !strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
	if _, err := MintAccessToken(cfg, time.Now(), 0, AccessTokenPayload{UserID: uuid.New()}); err == nil {
		t.Fatal("expected ttl validation error")
	}
	if _, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing user id error")
	}
}
