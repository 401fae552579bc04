package httpclient

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/proxy"
	"parcel-tracker/internal/core/redact"

	"go.uber.org/zap"
)

// LoggingRoundTripper captures request details for debugging.
// URLs are logged without credentials and error messages are scrubbed of Secrets.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
	// Secrets are literal values (API keys, proxy passwords) masked in logged errors.
	Secrets []string
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	target := redact.URL(req.URL)
	log := logger.Named("httpclient")

	log.Debug("HTTP Request Started",
		zap.String("method", req.Method),
		zap.String("url", target),
	)

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		log.Warn("HTTP Request Failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Duration("duration", duration),
			zap.String("error", redact.Secrets(errorText(err), lrt.Secrets...)),
		)
		return nil, err
	}

	log.Debug("HTTP Request Completed",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// errorText drops the request URL that *url.Error embeds in its message.
func errorText(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Op + ": " + uerr.Err.Error()
	}
	return err.Error()
}

// NewClient returns an http.Client with logging middleware.
// When the proxy settings are enabled every request is routed through that proxy.
func NewClient(timeout time.Duration, settings proxy.Settings, secrets ...string) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = settings.Func()

	if settings.HasProxy() {
		logger.Named("httpclient").Info("Outbound proxy enabled",
			zap.String("proxy", settings.HostPort()),
		)
		secrets = append(secrets, settings.Password)
	}

	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: transport,
			Secrets: secrets,
		},
		Timeout: timeout,
	}
}
