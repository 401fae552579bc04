package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/redact"
	"parcel-tracker/internal/features/tracking/domain"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxResponseBodyBytes int64 = 4 << 20 // 4 MiB

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// providerClient is the JSON-over-HTTP plumbing shared by the provider gateways.
type providerClient struct {
	name    string
	baseURL string
	client  HTTPDoer
	timeout time.Duration
	headers map[string]string
	// secrets are masked in every diagnostic built from a response.
	secrets []string
	logger  *zap.Logger
}

func newProviderClient(name, baseURL string, client HTTPDoer, timeout time.Duration, headers map[string]string, secrets ...string) *providerClient {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &providerClient{
		name:    name,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
		timeout: timeout,
		headers: headers,
		secrets: secrets,
		logger:  logger.Named(name),
	}
}

// providerReply is a fully read provider response.
type providerReply struct {
	status int
	header http.Header
	body   []byte
}

func (r *providerReply) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do sends one JSON request. Only transport failures are returned as errors,
// any HTTP status is handed back for the caller to classify.
func (c *providerClient) do(ctx context.Context, method, path string, payload any) (*providerReply, *domain.ProviderError) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, c.fail(domain.ProviderUnknown, 0, fmt.Sprintf("encode request: %v", err))
		}
		body = bytes.NewReader(raw)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, c.fail(domain.ProviderUnknown, 0, "create request: "+redact.Secrets(err.Error(), c.secrets...))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, c.fail(domain.ProviderUnknown, 0, "request timed out or was cancelled")
		}
		return nil, c.fail(domain.ProviderUnknown, 0, "request failed: "+redact.Secrets(err.Error(), c.secrets...))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, c.fail(domain.ProviderUnknown, resp.StatusCode, "read response body")
	}

	c.logger.Debug("Provider responded",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("bytes", len(raw)),
	)

	return &providerReply{status: resp.StatusCode, header: resp.Header, body: raw}, nil
}

// statusError classifies a non-2xx reply.
func (c *providerClient) statusError(reply *providerReply) *domain.ProviderError {
	var kind domain.ProviderErrorKind
	switch reply.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.ProviderUnauthorized
	case http.StatusNotFound, http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = domain.ProviderNotFound
	case http.StatusTooManyRequests:
		kind = domain.ProviderRateLimited
	default:
		kind = domain.ProviderUnknown
	}

	perr := c.fail(kind, reply.status, redact.Snippet(reply.body, c.secrets...))
	if kind == domain.ProviderRateLimited {
		perr.RetryAfter = parseRetryAfter(reply.header.Get("Retry-After"), time.Now())
	}
	return perr
}

// record extracts the tracking record at path from a successful reply.
// The record must be an object that either carries events under eventsKey or
// identifies a tracker through one of idPaths. An identified tracker with no
// events yet is a valid record.
func (c *providerClient) record(reply *providerReply, path, eventsKey string, idPaths ...string) ([]byte, *domain.ProviderError) {
	if !gjson.ValidBytes(reply.body) {
		return nil, c.fail(domain.ProviderMalformed, reply.status, "response is not valid JSON")
	}
	rec := gjson.GetBytes(reply.body, path)
	if !rec.IsObject() {
		return nil, c.fail(domain.ProviderMalformed, reply.status, "response has no tracking record")
	}
	if len(rec.Get(eventsKey).Array()) == 0 && !identified(rec, idPaths) {
		return nil, c.fail(domain.ProviderNotFound, reply.status, "tracking record is not identifiable")
	}
	return []byte(rec.Raw), nil
}

func identified(rec gjson.Result, idPaths []string) bool {
	for _, p := range idPaths {
		v := rec.Get(p)
		if (v.Type == gjson.String || v.Type == gjson.Number) && strings.TrimSpace(v.String()) != "" {
			return true
		}
	}
	return false
}

func (c *providerClient) fail(kind domain.ProviderErrorKind, status int, message string) *domain.ProviderError {
	return &domain.ProviderError{
		Kind:       kind,
		Provider:   c.name,
		StatusCode: status,
		Message:    message,
	}
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
