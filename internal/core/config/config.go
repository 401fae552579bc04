package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"parcel-tracker/internal/core/proxy"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`
	// InboundRateLimit is the number of requests per minute allowed per client IP. 0 disables it.
	InboundRateLimit int `mapstructure:"INBOUND_RATE_LIMIT" default:"60"`
	// MetricsEnabled exposes the Prometheus endpoint.
	MetricsEnabled bool `mapstructure:"METRICS_ENABLED" default:"true"`

	// Providers holds the upstream tracking provider credentials.
	Providers ProvidersConfig `mapstructure:",squash"`

	// Resolution holds the carrier resolution policy.
	Resolution ResolutionConfig `mapstructure:",squash"`

	// Proxy holds the optional outbound proxy used for provider calls.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// ProvidersConfig holds the credentials and endpoints for the tracking providers.
// A provider is only enabled when its API key is set.
type ProvidersConfig struct {
	// Ship24APIKey is the bearer token for the Ship24 API.
	Ship24APIKey string `mapstructure:"SHIP24_API_KEY"`
	// Ship24BaseURL is the Ship24 public API root.
	Ship24BaseURL string `mapstructure:"SHIP24_BASE_URL" default:"https://api.ship24.com/public/v1"`
	// AfterShipAPIKey is the AfterShip API key.
	AfterShipAPIKey string `mapstructure:"AFTERSHIP_API_KEY"`
	// AfterShipBaseURL is the AfterShip tracking API root.
	AfterShipBaseURL string `mapstructure:"AFTERSHIP_BASE_URL" default:"https://api.aftership.com/v4"`
	// Order is the comma separated order in which providers are tried.
	Order string `mapstructure:"PROVIDER_ORDER" default:"ship24,aftership"`
	// Timeout bounds every single provider call.
	Timeout time.Duration `mapstructure:"PROVIDER_TIMEOUT" default:"10s"`
}

// ResolutionConfig holds the candidate resolution and retry policy.
type ResolutionConfig struct {
	// Deadline bounds a whole resolution, detection included.
	Deadline time.Duration `mapstructure:"RESOLUTION_DEADLINE" default:"25s"`
	// RateLimitRetries is how many times a rate limited attempt is retried.
	RateLimitRetries int `mapstructure:"RATE_LIMIT_RETRIES" default:"1"`
	// RateLimitBackoff is the initial wait before retrying a rate limited attempt.
	RateLimitBackoff time.Duration `mapstructure:"RATE_LIMIT_BACKOFF" default:"1s"`
	// RateLimitMaxBackoff caps the wait between rate limited retries.
	RateLimitMaxBackoff time.Duration `mapstructure:"RATE_LIMIT_MAX_BACKOFF" default:"5s"`
	// DefaultCarrier is tried when no tracking number pattern matched.
	DefaultCarrier string `mapstructure:"DEFAULT_CARRIER" default:"yanwen" required:"true"`
	// MaxDetectedCarriers limits how many live detection suggestions are kept.
	MaxDetectedCarriers int `mapstructure:"MAX_DETECTED_CARRIERS" default:"3"`
	// CourierDisplayNames extends the courier name table, as "code=Name,code=Name".
	CourierDisplayNames string `mapstructure:"COURIER_DISPLAY_NAMES"`
}

// ProxyConfig holds the outbound proxy settings.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED"`
	Hostname string `mapstructure:"PROXY_HOST"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// Settings converts the proxy configuration for the HTTP client.
func (p ProxyConfig) Settings() proxy.Settings {
	return proxy.Settings{
		Enabled:  p.Enabled,
		Hostname: p.Hostname,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
	}
}

// ProviderOrder returns the configured provider names, lower-cased and without blanks.
func (p ProvidersConfig) ProviderOrder() []string {
	var names []string
	for _, name := range strings.Split(p.Order, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// DisplayNames parses CourierDisplayNames into a code to name map.
// Malformed entries are skipped.
func (r ResolutionConfig) DisplayNames() map[string]string {
	names := make(map[string]string)
	for _, pair := range strings.Split(r.CourierDisplayNames, ",") {
		code, name, ok := strings.Cut(pair, "=")
		code = strings.ToLower(strings.TrimSpace(code))
		name = strings.TrimSpace(name)
		if !ok || code == "" || name == "" {
			continue
		}
		names[code] = name
	}
	return names
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields, binds their env keys and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key == "" {
			continue
		}

		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", key, err)
		}

		if defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && isZero(val.Field(i)) {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
