package ports

import (
	"context"

	"parcel-tracker/internal/features/tracking/domain"
)

// CarrierDetector suggests carriers for a tracking number.
// Detection is best-effort: an error means "no suggestion".
type CarrierDetector interface {
	DetectCarrier(ctx context.Context, trackingNumber string) ([]domain.CarrierCandidate, error)
}

// TrackingProviderGateway is the boundary to one upstream tracking provider.
type TrackingProviderGateway interface {
	CarrierDetector
	// Name identifies the provider in logs, metrics and failure lists.
	Name() string
	// EnsureTracker registers the tracking number with the provider.
	// It is idempotent: an already registered tracker is success.
	EnsureTracker(ctx context.Context, trackingNumber, carrierCode string) error
	// FetchTracking returns the provider's record for the number under the carrier.
	// Failures are *domain.ProviderError.
	FetchTracking(ctx context.Context, trackingNumber, carrierCode string) (*domain.ProviderResponse, error)
}

// TrackingService resolves a tracking request into a canonical record.
type TrackingService interface {
	TrackPackage(ctx context.Context, req domain.TrackingRequest) (*domain.TrackingRecord, error)
}
