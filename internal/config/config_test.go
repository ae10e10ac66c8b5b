package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "outdial", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Twilio: TwilioConfig{
			AccountSID:     "AC123",
			AuthToken:      "tok",
			FromNumber:     "+15550001111",
			WebhookBaseURL: "https://example.test",
			StreamURL:      "wss://example.test/ws",
		},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "outdial"
	c.Auth.JWTAudience = "api"
	c.DB.SSLMode = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLModeAndDialer(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Dialer.PlaceCallTimeout != 15*time.Second {
		t.Fatalf("expected place timeout default, got %v", c.Dialer.PlaceCallTimeout)
	}
	if c.Dialer.RingTimeoutSeconds != 30 {
		t.Fatalf("expected ring timeout default, got %d", c.Dialer.RingTimeoutSeconds)
	}
}

func TestValidate_RejectsNonE164FromNumber(t *testing.T) {
	c := validBase()
	c.Twilio.FromNumber = "5550001111"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-E.164 from number")
	}
}
