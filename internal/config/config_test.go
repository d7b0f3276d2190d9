package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		MongoURI:            "mongodb://localhost:27017",
		DBName:              "koseli_mart",
		JWTSecret:           "secret",
		AccessTokenTTL:      20 * time.Minute,
		RefreshTokenTTL:     7 * 24 * time.Hour,
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: "whsec_123",
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing mongo uri", func(c *Config) { c.MongoURI = "" }},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }},
		{"missing stripe key", func(c *Config) { c.StripeSecretKey = "" }},
		{"missing webhook secret", func(c *Config) { c.StripeWebhookSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestOAuthEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.OAuthProviders = []OAuthProvider{{Name: "google", ClientID: "id", ClientSecret: "s"}}

	if !cfg.OAuthEnabled("google") {
		t.Fatal("expected google to be enabled")
	}
	if cfg.OAuthEnabled("facebook") {
		t.Fatal("expected facebook to be disabled")
	}
}
