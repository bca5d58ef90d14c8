// Package config loads service settings from .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds application configuration values
type Config struct {
	Port                    string `mapstructure:"PORT"`
	Env                     string `mapstructure:"APP_ENV"`
	MongoURI                string `mapstructure:"MONGODB_URI"`
	MongoDatabase           string `mapstructure:"MONGODB_DATABASE"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	JWTTTLHours             int    `mapstructure:"JWT_TTL_HOURS"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`
	StripeSecretKey         string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeCurrency          string `mapstructure:"STRIPE_CURRENCY"`
	VerifyPaymentIntents    bool   `mapstructure:"VERIFY_PAYMENT_INTENTS"`
	SendGridAPIKey          string `mapstructure:"SENDGRID_API_KEY"`
	EmailSender             string `mapstructure:"EMAIL_SENDER"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RateLimitPerMinute      int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	AllowedOrigins          string `mapstructure:"ALLOWED_ORIGINS"`
	AdminEmails             string `mapstructure:"ADMIN_EMAILS"`
	RequestTimeoutSeconds   int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`

	// Rule strictness
	StrictPackageNames bool `mapstructure:"STRICT_PACKAGE_NAMES"`
	AllowTierDowngrade bool `mapstructure:"ALLOW_TIER_DOWNGRADE"`
	ConflictStatus     int  `mapstructure:"CONFLICT_STATUS"`
	PublishMinLikes    int  `mapstructure:"PUBLISH_MIN_LIKES"`
}

var keys = []string{
	"PORT", "APP_ENV", "MONGODB_URI", "MONGODB_DATABASE", "JWT_SECRET", "JWT_TTL_HOURS",
	"FIREBASE_CREDENTIALS_FILE", "FIREBASE_PROJECT_ID", "STRIPE_SECRET_KEY", "STRIPE_CURRENCY",
	"VERIFY_PAYMENT_INTENTS", "SENDGRID_API_KEY", "EMAIL_SENDER", "REDIS_URL", "RATE_LIMIT_PER_MINUTE",
	"ALLOWED_ORIGINS", "ADMIN_EMAILS", "REQUEST_TIMEOUT_SECONDS", "STRICT_PACKAGE_NAMES",
	"ALLOW_TIER_DOWNGRADE", "CONFLICT_STATUS", "PUBLISH_MIN_LIKES",
}

// LoadConfig reads .env (if present) and the environment into a validated Config.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, so bind every one explicitly.
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	v.SetDefault("PORT", "5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "hostelDB")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("VERIFY_PAYMENT_INTENTS", false)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 10)
	v.SetDefault("STRICT_PACKAGE_NAMES", true)
	v.SetDefault("ALLOW_TIER_DOWNGRADE", false)
	v.SetDefault("CONFLICT_STATUS", http.StatusConflict)
	v.SetDefault("PUBLISH_MIN_LIKES", 10)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate ensures required values are present and the strictness switches are coherent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.MongoURI == "" {
		return errors.New("MONGODB_URI is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.ConflictStatus != http.StatusConflict && c.ConflictStatus != http.StatusBadRequest {
		return fmt.Errorf("CONFLICT_STATUS must be 400 or 409, got %d", c.ConflictStatus)
	}
	if c.PublishMinLikes < 1 {
		return errors.New("PUBLISH_MIN_LIKES must be positive")
	}
	if c.JWTTTLHours < 1 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be changed and at least 32 characters in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is '*' in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// Admins returns the emails seeded with the admin role at startup.
func (c *Config) Admins() []string {
	out := []string{}
	for _, e := range splitList(c.AdminEmails) {
		out = append(out, strings.ToLower(e))
	}
	return out
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
