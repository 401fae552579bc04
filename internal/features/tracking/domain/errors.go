package domain

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ProviderErrorKind classifies a failed provider call.
type ProviderErrorKind string

const (
	ProviderNotFound     ProviderErrorKind = "not_found"
	ProviderRateLimited  ProviderErrorKind = "rate_limited"
	ProviderUnauthorized ProviderErrorKind = "unauthorized"
	ProviderMalformed    ProviderErrorKind = "malformed"
	ProviderUnknown      ProviderErrorKind = "unknown"
)

// ProviderError is the failure of one call against one tracking provider.
// Message never contains credentials.
type ProviderError struct {
	Kind       ProviderErrorKind
	Provider   string
	StatusCode int
	// RetryAfter is the provider's back-off hint, zero when absent.
	RetryAfter time.Duration
	Message    string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	parts := []string{fmt.Sprintf("%s: %s", e.Provider, e.Kind)}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if strings.TrimSpace(e.Message) != "" {
		parts = append(parts, strings.TrimSpace(e.Message))
	}
	return strings.Join(parts, " ")
}

// ResolutionErrorKind is the aggregate outcome of a failed resolution.
type ResolutionErrorKind string

const (
	ErrInvalidInput     ResolutionErrorKind = "INVALID_INPUT"
	ErrConfig           ResolutionErrorKind = "CONFIG_ERROR"
	ErrNoCarrierMatched ResolutionErrorKind = "NO_CARRIER_MATCHED"
	ErrTimeout          ResolutionErrorKind = "TIMEOUT"
	ErrUnknown          ResolutionErrorKind = "UNKNOWN"
)

// CandidateFailure records why one candidate failed on one provider.
type CandidateFailure struct {
	Carrier  string            `json:"carrier"`
	Source   CandidateSource   `json:"source"`
	Provider string            `json:"provider"`
	Reason   ProviderErrorKind `json:"reason"`
	Message  string            `json:"message,omitempty"`
}

// ResolutionError is the single structured error returned to callers of TrackPackage.
type ResolutionError struct {
	Kind     ResolutionErrorKind
	Message  string
	Failures []CandidateFailure
	Cause    error
}

// NewResolutionError builds a ResolutionError without failure detail.
func NewResolutionError(kind ResolutionErrorKind, message string, cause error) *ResolutionError {
	return &ResolutionError{Kind: kind, Message: message, Cause: cause}
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return "resolution error"
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if len(e.Failures) > 0 {
		msg = fmt.Sprintf("%s (%d attempts failed)", msg, len(e.Failures))
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind to a response status.
// NoCarrierMatched is a 404 unless no attempt was a plain miss, in which case
// the providers themselves failed and it is a 502.
func (e *ResolutionError) HTTPStatus() int {
	switch e.Kind {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrNoCarrierMatched:
		if e.onlyUpstreamFaults() {
			return http.StatusBadGateway
		}
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (e *ResolutionError) onlyUpstreamFaults() bool {
	if len(e.Failures) == 0 {
		return false
	}
	for _, f := range e.Failures {
		if f.Reason == ProviderNotFound {
			return false
		}
	}
	return true
}

// ToServiceError converts the error into the transport error envelope.
func (e *ResolutionError) ToServiceError() *goerrors.Error {
	category := goerrors.CategoryInternal
	switch e.Kind {
	case ErrInvalidInput:
		category = goerrors.CategoryBadInput
	case ErrNoCarrierMatched:
		category = goerrors.CategoryNotFound
		if e.onlyUpstreamFaults() {
			category = goerrors.CategoryExternal
		}
	case ErrTimeout:
		category = goerrors.CategoryOperation
	}

	metadata := map[string]any{}
	if len(e.Failures) > 0 {
		metadata["attempts"] = len(e.Failures)
	}

	return goerrors.New(e.Message, category).
		WithCode(e.HTTPStatus()).
		WithTextCode(string(e.Kind)).
		WithMetadata(metadata)
}
