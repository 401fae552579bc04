package config

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "LOG_LEVEL", "SERVER_PORT", "INBOUND_RATE_LIMIT", "METRICS_ENABLED",
	"SHIP24_API_KEY", "SHIP24_BASE_URL", "AFTERSHIP_API_KEY", "AFTERSHIP_BASE_URL",
	"PROVIDER_ORDER", "PROVIDER_TIMEOUT", "RESOLUTION_DEADLINE", "RATE_LIMIT_RETRIES",
	"RATE_LIMIT_BACKOFF", "RATE_LIMIT_MAX_BACKOFF", "DEFAULT_CARRIER", "MAX_DETECTED_CARRIERS",
	"COURIER_DISPLAY_NAMES", "PROXY_ENABLED", "PROXY_HOST", "PROXY_PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		os.Unsetenv(key)
	}
}

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 60, cfg.InboundRateLimit)
	assert.True(t, cfg.MetricsEnabled)

	assert.Empty(t, cfg.Providers.Ship24APIKey)
	assert.Equal(t, "https://api.ship24.com/public/v1", cfg.Providers.Ship24BaseURL)
	assert.Equal(t, "https://api.aftership.com/v4", cfg.Providers.AfterShipBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, []string{"ship24", "aftership"}, cfg.Providers.ProviderOrder())

	assert.Equal(t, 25*time.Second, cfg.Resolution.Deadline)
	assert.Equal(t, 1, cfg.Resolution.RateLimitRetries)
	assert.Equal(t, time.Second, cfg.Resolution.RateLimitBackoff)
	assert.Equal(t, 5*time.Second, cfg.Resolution.RateLimitMaxBackoff)
	assert.Equal(t, "yanwen", cfg.Resolution.DefaultCarrier)
	assert.Equal(t, 3, cfg.Resolution.MaxDetectedCarriers)

	assert.False(t, cfg.Proxy.Settings().HasProxy())
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	clearEnv(t)
	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("SHIP24_API_KEY", "apik_ship24")
	os.Setenv("AFTERSHIP_API_KEY", "asat_key")
	os.Setenv("PROVIDER_ORDER", " AfterShip , ship24 ,")
	os.Setenv("PROVIDER_TIMEOUT", "3s")
	os.Setenv("RATE_LIMIT_RETRIES", "2")
	os.Setenv("DEFAULT_CARRIER", "china-post")
	defer clearEnv(t)

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "apik_ship24", cfg.Providers.Ship24APIKey)
	assert.Equal(t, "asat_key", cfg.Providers.AfterShipAPIKey)
	assert.Equal(t, []string{"aftership", "ship24"}, cfg.Providers.ProviderOrder())
	assert.Equal(t, 3*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 2, cfg.Resolution.RateLimitRetries)
	assert.Equal(t, "china-post", cfg.Resolution.DefaultCarrier)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	clearEnv(t)
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
SHIP24_API_KEY=apik_file
PROXY_ENABLED=true
PROXY_HOST=proxy.internal
PROXY_PORT=3128
COURIER_DISPLAY_NAMES=gls=GLS Group,postnl=PostNL
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "apik_file", cfg.Providers.Ship24APIKey)
	assert.Equal(t, "http://proxy.internal:3128", cfg.Proxy.Settings().HostPort())
	assert.Equal(t, map[string]string{"gls": "GLS Group", "postnl": "PostNL"}, cfg.Resolution.DisplayNames())
}

// TestLoad_ValidationFailure verifies that an empty required field returns an error.
func TestLoad_ValidationFailure(t *testing.T) {
	clearEnv(t)
	err := os.WriteFile(".env", []byte("DEFAULT_CARRIER=\n"), 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration")
}

func TestResolutionConfig_DisplayNames_SkipsMalformed(t *testing.T) {
	r := ResolutionConfig{CourierDisplayNames: "dhl=DHL Express, broken, =Nameless, UPS = United Parcel Service"}

	assert.Equal(t, map[string]string{
		"dhl": "DHL Express",
		"ups": "United Parcel Service",
	}, r.DisplayNames())
}

// TestLoad_WhitespaceRequired verifies a blank required value is reported by its env key.
func TestLoad_WhitespaceRequired(t *testing.T) {
	clearEnv(t)
	os.Setenv("DEFAULT_CARRIER", "   ")
	defer clearEnv(t)

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.EqualError(t, err, "missing required configuration: DEFAULT_CARRIER")
}

// TestLoad_NestedEnvBinding verifies env vars reach fields of squashed sections without a .env file.
func TestLoad_NestedEnvBinding(t *testing.T) {
	clearEnv(t)
	os.Setenv("AFTERSHIP_BASE_URL", "http://aftership.test")
	os.Setenv("RESOLUTION_DEADLINE", "7s")
	os.Setenv("PROXY_PORT", "8888")
	defer clearEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://aftership.test", cfg.Providers.AfterShipBaseURL)
	assert.Equal(t, 7*time.Second, cfg.Resolution.Deadline)
	assert.Equal(t, 8888, cfg.Proxy.Port)
}

func TestValidateRequired_Nested(t *testing.T) {
	type inner struct {
		Name string `mapstructure:"INNER_NAME" required:"true"`
	}
	type outer struct {
		Inner inner
	}

	err := validateRequired(&outer{Inner: inner{Name: "\t"}})
	assert.EqualError(t, err, "missing required configuration: INNER_NAME")

	assert.NoError(t, validateRequired(&outer{Inner: inner{Name: "set"}}))
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected bool
	}{
		{"blank string", "  ", true},
		{"string", "x", false},
		{"zero int", 0, true},
		{"int", 3, false},
		{"zero duration", time.Duration(0), true},
		{"duration", time.Second, false},
		{"false", false, true},
		{"empty slice", []string{}, true},
		{"slice", []string{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isZero(reflect.ValueOf(tt.value)))
		})
	}
}
