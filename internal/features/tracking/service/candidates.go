package service

import (
	"context"
	"regexp"
	"strings"

	"parcel-tracker/internal/features/tracking/domain"
	"parcel-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// fallbackCarrier is used when no default carrier is configured.
const fallbackCarrier = "yanwen"

// carrierPattern maps a tracking number shape to a carrier code.
type carrierPattern struct {
	code    string
	matches func(number string) bool
}

func regexPattern(code, expr string) carrierPattern {
	re := regexp.MustCompile(expr)
	return carrierPattern{code: code, matches: re.MatchString}
}

// carrierPatterns are checked in order against the upper-cased number; only the first match is used.
var carrierPatterns = []carrierPattern{
	{code: "yanwen", matches: func(n string) bool { return strings.HasPrefix(n, "YT") }},
	regexPattern("ups", `^1Z`),
	regexPattern("dhl", `^\d{10}$`),
	regexPattern("austria-post", `^R[A-Z]\d{9}AT$`),
	regexPattern("parcelone", `^\d{13}$`),
}

// CandidateResolver turns a tracking number into an ordered list of carrier guesses.
type CandidateResolver struct {
	detectors      []ports.CarrierDetector
	defaultCarrier string
	maxDetected    int
	logger         *zap.Logger
}

// NewCandidateResolver creates a CandidateResolver.
// detectors are consulted in order; at most maxDetected suggestions are kept in total.
func NewCandidateResolver(detectors []ports.CarrierDetector, defaultCarrier string, maxDetected int, logger *zap.Logger) *CandidateResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultCarrier = normalizeCarrier(defaultCarrier)
	if defaultCarrier == "" {
		defaultCarrier = fallbackCarrier
	}
	return &CandidateResolver{
		detectors:      detectors,
		defaultCarrier: defaultCarrier,
		maxDetected:    maxDetected,
		logger:         logger,
	}
}

// Resolve returns the carriers to try, most plausible first. The list is never
// empty and has no duplicate codes.
//
// An explicit carrier is the only candidate. Otherwise the first matching
// number pattern comes first, followed by live detection suggestions, and the
// default carrier closes the list when no pattern matched.
func (r *CandidateResolver) Resolve(ctx context.Context, trackingNumber, explicitCarrier string) []domain.CarrierCandidate {
	var list candidateList

	if explicit := normalizeCarrier(explicitCarrier); explicit != "" {
		list.add(explicit, domain.SourceExplicit)
		return list.items
	}

	upper := strings.ToUpper(trackingNumber)
	matched := false
	for _, p := range carrierPatterns {
		if p.matches(upper) {
			list.add(p.code, domain.SourceHeuristic)
			matched = true
			break
		}
	}

	detected := 0
	for _, d := range r.detectors {
		if detected >= r.maxDetected || ctx.Err() != nil {
			break
		}
		for _, c := range r.detect(ctx, d, trackingNumber) {
			if detected >= r.maxDetected {
				break
			}
			if list.add(normalizeCarrier(c.Code), domain.SourceDetected) {
				detected++
			}
		}
	}

	if !matched {
		list.add(r.defaultCarrier, domain.SourceDefaultFallback)
	}

	return list.items
}

// detect calls one detector, treating errors and panics as "no suggestion".
func (r *CandidateResolver) detect(ctx context.Context, d ports.CarrierDetector, trackingNumber string) (out []domain.CarrierCandidate) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Carrier detection panicked", zap.Any("panic", rec))
			out = nil
		}
	}()

	suggestions, err := d.DetectCarrier(ctx, trackingNumber)
	if err != nil {
		r.logger.Debug("Carrier detection failed",
			zap.String("tracking_number", trackingNumber),
			zap.Error(err),
		)
		return nil
	}
	return suggestions
}

type candidateList struct {
	items []domain.CarrierCandidate
}

// add appends code unless it is empty or already listed; it reports whether it was added.
func (l *candidateList) add(code string, source domain.CandidateSource) bool {
	if code == "" {
		return false
	}
	for _, c := range l.items {
		if c.Code == code {
			return false
		}
	}
	l.items = append(l.items, domain.CarrierCandidate{
		Code:     code,
		Source:   source,
		Priority: len(l.items),
	})
	return true
}

func normalizeCarrier(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
