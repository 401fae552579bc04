package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"parcel-tracker/internal/core/metrics"
	"parcel-tracker/internal/core/redact"
	"parcel-tracker/internal/features/tracking/domain"
	"parcel-tracker/internal/features/tracking/normalizer"
	"parcel-tracker/internal/features/tracking/ports"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const trackingNumberRules = "required,min=4,max=64,alphanum"

// Options tunes the resolution policy.
type Options struct {
	// Deadline bounds detection and every attempt of one resolution. Zero disables it.
	Deadline time.Duration
	// RateLimitRetries is how often a rate limited attempt is repeated, clamped to 0..3.
	RateLimitRetries    int
	RateLimitBackoff    time.Duration
	RateLimitMaxBackoff time.Duration
	// DefaultCarrier is tried when no number pattern matched.
	DefaultCarrier string
	// MaxDetectedCarriers caps the live detection suggestions kept per request.
	MaxDetectedCarriers int
}

// TrackingService resolves tracking numbers against the configured providers.
type TrackingService struct {
	gateways   []ports.TrackingProviderGateway
	candidates *CandidateResolver
	normalizer *normalizer.ResponseNormalizer
	metrics    *metrics.TrackingMetrics
	validate   *validator.Validate
	opts       Options
	logger     *zap.Logger
}

// NewTrackingService creates a new TrackingService over gateways, tried in the given order.
// m may be nil.
func NewTrackingService(
	gateways []ports.TrackingProviderGateway,
	norm *normalizer.ResponseNormalizer,
	m *metrics.TrackingMetrics,
	opts Options,
	logger *zap.Logger,
) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if norm == nil {
		norm = normalizer.NewResponseNormalizer(nil)
	}
	opts.RateLimitRetries = clampRetries(opts.RateLimitRetries)
	if opts.RateLimitMaxBackoff < opts.RateLimitBackoff {
		opts.RateLimitMaxBackoff = opts.RateLimitBackoff
	}

	detectors := make([]ports.CarrierDetector, 0, len(gateways))
	for _, gw := range gateways {
		detectors = append(detectors, gw)
	}

	return &TrackingService{
		gateways:   gateways,
		candidates: NewCandidateResolver(detectors, opts.DefaultCarrier, opts.MaxDetectedCarriers, logger),
		normalizer: norm,
		metrics:    m,
		validate:   validator.New(),
		opts:       opts,
		logger:     logger,
	}
}

// TrackPackage returns the canonical record for the request, or a *domain.ResolutionError.
func (s *TrackingService) TrackPackage(ctx context.Context, req domain.TrackingRequest) (*domain.TrackingRecord, error) {
	start := time.Now()

	record, err := s.track(ctx, req)

	outcome := "success"
	var resErr *domain.ResolutionError
	if errors.As(err, &resErr) {
		outcome = strings.ToLower(string(resErr.Kind))
	}
	s.metrics.ObserveResolution(outcome, time.Since(start))

	return record, err
}

func (s *TrackingService) track(ctx context.Context, req domain.TrackingRequest) (*domain.TrackingRecord, error) {
	number := strings.Join(strings.Fields(req.TrackingNumber), "")
	if number == "" {
		return nil, domain.NewResolutionError(domain.ErrInvalidInput, "tracking number is required", nil)
	}
	if err := s.validate.Var(number, trackingNumberRules); err != nil {
		return nil, domain.NewResolutionError(domain.ErrInvalidInput,
			"tracking number must be 4 to 64 letters or digits", err)
	}

	if len(s.gateways) == 0 {
		return nil, domain.NewResolutionError(domain.ErrConfig, "no tracking provider is configured", nil)
	}

	if s.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Deadline)
		defer cancel()
	}

	log := s.logger.With(zap.String("tracking_number", number))

	candidates := s.candidates.Resolve(ctx, number, req.Carrier)
	log.Debug("Resolved carrier candidates", zap.Any("candidates", candidates))

	var failures []domain.CandidateFailure
	for _, cand := range candidates {
		for _, gw := range s.gateways {
			if err := ctx.Err(); err != nil {
				return nil, s.interrupted(err, failures)
			}

			resp, perr := s.attempt(ctx, gw, number, cand)
			if perr == nil {
				s.metrics.ObserveAttempt(gw.Name(), "success")
				record := s.normalizer.Normalize(*resp)
				log.Info("Tracking resolved",
					zap.String("carrier", cand.Code),
					zap.String("source", string(cand.Source)),
					zap.String("provider", gw.Name()),
					zap.Int("events", len(record.Events)),
				)
				return &record, nil
			}

			if err := ctx.Err(); err != nil {
				return nil, s.interrupted(err, failures)
			}

			s.metrics.ObserveAttempt(gw.Name(), string(perr.Kind))
			log.Debug("Candidate attempt failed",
				zap.String("carrier", cand.Code),
				zap.String("provider", gw.Name()),
				zap.String("reason", string(perr.Kind)),
				zap.Int("status_code", perr.StatusCode),
			)
			failures = append(failures, domain.CandidateFailure{
				Carrier:  cand.Code,
				Source:   cand.Source,
				Provider: gw.Name(),
				Reason:   perr.Kind,
				Message:  perr.Message,
			})
		}
	}

	log.Info("No carrier matched", zap.Int("attempts", len(failures)))
	return nil, &domain.ResolutionError{
		Kind:     domain.ErrNoCarrierMatched,
		Message:  "no carrier matched tracking number " + number,
		Failures: failures,
	}
}

// interrupted maps an expired or cancelled context to the resolution error.
func (s *TrackingService) interrupted(err error, failures []domain.CandidateFailure) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ResolutionError{
			Kind:     domain.ErrTimeout,
			Message:  "resolution deadline exceeded",
			Failures: failures,
			Cause:    err,
		}
	}
	return &domain.ResolutionError{
		Kind:     domain.ErrUnknown,
		Message:  "resolution cancelled",
		Failures: failures,
		Cause:    err,
	}
}

// attempt tries one candidate on one gateway, repeating rate limited calls within the retry budget.
func (s *TrackingService) attempt(ctx context.Context, gw ports.TrackingProviderGateway, number string, cand domain.CarrierCandidate) (*domain.ProviderResponse, *domain.ProviderError) {
	for retry := 0; ; retry++ {
		resp, perr := s.tryOnce(ctx, gw, number, cand.Code)
		if perr == nil {
			return resp, nil
		}
		if perr.Kind != domain.ProviderRateLimited || retry >= s.opts.RateLimitRetries {
			return nil, perr
		}

		wait := rateLimitBackoff(s.opts.RateLimitBackoff, s.opts.RateLimitMaxBackoff, retry, perr.RetryAfter)
		s.logger.Debug("Provider rate limited, backing off",
			zap.String("provider", gw.Name()),
			zap.String("carrier", cand.Code),
			zap.Duration("wait", wait),
			zap.Int("retry", retry+1),
		)
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, perr
		}
	}
}

// tryOnce registers then fetches. A failed registration does not stop the fetch.
func (s *TrackingService) tryOnce(ctx context.Context, gw ports.TrackingProviderGateway, number, carrier string) (resp *domain.ProviderResponse, perr *domain.ProviderError) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Provider call panicked",
				zap.String("provider", gw.Name()),
				zap.String("carrier", carrier),
				zap.Any("panic", r),
			)
			resp = nil
			perr = &domain.ProviderError{
				Kind:     domain.ProviderUnknown,
				Provider: gw.Name(),
				Message:  "provider call panicked",
			}
		}
	}()

	if err := gw.EnsureTracker(ctx, number, carrier); err != nil {
		s.logger.Debug("Tracker registration failed, fetching anyway",
			zap.String("provider", gw.Name()),
			zap.String("carrier", carrier),
			zap.Error(err),
		)
	}

	resp, err := gw.FetchTracking(ctx, number, carrier)
	if err != nil {
		return nil, asProviderError(gw.Name(), err)
	}
	if resp == nil {
		return nil, &domain.ProviderError{
			Kind:     domain.ProviderMalformed,
			Provider: gw.Name(),
			Message:  "empty provider response",
		}
	}
	return resp, nil
}

func asProviderError(provider string, err error) *domain.ProviderError {
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return &domain.ProviderError{
		Kind:     domain.ProviderUnknown,
		Provider: provider,
		Message:  redact.Secrets(err.Error()),
	}
}
