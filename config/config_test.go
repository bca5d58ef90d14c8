package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:            "5000",
		Env:             "development",
		MongoURI:        "mongodb://localhost:27017",
		JWTSecret:       "secret",
		JWTTTLHours:     24,
		ConflictStatus:  http.StatusConflict,
		PublishMinLikes: 10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"legacy conflict status", func(c *Config) { c.ConflictStatus = http.StatusBadRequest }, false},
		{"bad conflict status", func(c *Config) { c.ConflictStatus = http.StatusTeapot }, true},
		{"missing uri", func(c *Config) { c.MongoURI = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero threshold", func(c *Config) { c.PublishMinLikes = 0 }, true},
		{"short production secret", func(c *Config) { c.Env = "production" }, true},
		{"production secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "a-very-long-production-secret-value-123"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CONFLICT_STATUS", "400")
	t.Setenv("STRICT_PACKAGE_NAMES", "false")
	t.Setenv("ADMIN_EMAILS", " Admin@Hostel.io, ops@hostel.io ,")
	t.Setenv("PUBLISH_MIN_LIKES", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, http.StatusBadRequest, cfg.ConflictStatus)
	assert.False(t, cfg.StrictPackageNames)
	assert.False(t, cfg.AllowTierDowngrade)
	assert.Equal(t, 3, cfg.PublishMinLikes)
	assert.Equal(t, "hostelDB", cfg.MongoDatabase)
	assert.Equal(t, []string{"admin@hostel.io", "ops@hostel.io"}, cfg.Admins())
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL())
}

func TestOrigins(t *testing.T) {
	c := &Config{AllowedOrigins: "http://localhost:5173, https://hostel.example"}
	assert.Equal(t, []string{"http://localhost:5173", "https://hostel.example"}, c.Origins())
}
