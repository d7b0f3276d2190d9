package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OAuthProvider records one external login provider enabled at startup.
// Providers are enumerated here once, validated, and injected; nothing
// consults the environment at call time.
type OAuthProvider struct {
	Name         string
	ClientID     string
	ClientSecret string
}

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string

	OAuthProviders []OAuthProvider

	Port string
}

// Load reads the environment (and an optional .env file) into a Config.
// Call Validate before using the result.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	cfg := Config{
		MongoURI:            getEnvOrDefault("MONGO_URI", ""),
		DBName:              getEnvOrDefault("DB_NAME", "koseli_mart"),
		JWTSecret:           getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:      getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		RefreshTokenTTL:     getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),
		StripeSecretKey:     getEnvOrDefault("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnvOrDefault("STRIPE_WEBHOOK_SECRET", ""),
		Port:                getEnvOrDefault("PORT", "8080"),
	}

	for _, name := range []string{"google", "facebook"} {
		prefix := strings.ToUpper(name)
		id := getEnvOrDefault(prefix+"_CLIENT_ID", "")
		secret := getEnvOrDefault(prefix+"_CLIENT_SECRET", "")
		if id != "" && secret != "" {
			cfg.OAuthProviders = append(cfg.OAuthProviders, OAuthProvider{
				Name:         name,
				ClientID:     id,
				ClientSecret: secret,
			})
		}
	}

	return cfg
}

// Validate rejects an incomplete configuration at process start instead of
// failing on the first request that needs a missing credential.
func (c Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	for _, p := range c.OAuthProviders {
		if p.ClientID == "" || p.ClientSecret == "" {
			return fmt.Errorf("oauth provider %s is missing credentials", p.Name)
		}
	}
	return nil
}

// OAuthEnabled reports whether the named provider was configured.
func (c Config) OAuthEnabled(name string) bool {
	for _, p := range c.OAuthProviders {
		if p.Name == name {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
