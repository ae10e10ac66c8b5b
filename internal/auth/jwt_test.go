package auth

import (
	"testing"
	"time"

	"outdial/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		JWTIssuer:       "issuer",
		JWTAudience:     "aud",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := testManager(t)

	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "user-1", "operator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(1*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "operator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m := testManager(t)

	now := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(now, "user-1", "operator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected token_type mismatch")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := testManager(t)

	now := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(now, "user-1", "operator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// Past the access TTL plus the clock skew leeway.
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now.Add(16*time.Minute)); err == nil {
		t.Fatalf("expected expiry rejection")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := testManager(t)

	now := time.Unix(1700000000, 0).UTC()
	p, err := m.IssuePair(now, "user-1", "operator")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other, err := NewManager(config.AuthConfig{
		JWTSecret:       "other-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if _, err := other.Verify(p.AccessToken, TokenTypeAccess, now); err == nil {
		t.Fatalf("expected signature rejection")
	}
}
