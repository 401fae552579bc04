package service

import (
	"context"
	"sync"

	"parcel-tracker/internal/features/tracking/domain"
)

// fakeGateway is a scripted TrackingProviderGateway.
type fakeGateway struct {
	name      string
	suggest   []string
	detectErr error
	ensureErr error
	// fetch scripts FetchTracking; call counts per carrier starting at 1.
	fetch func(ctx context.Context, carrier string, call int) (*domain.ProviderResponse, error)

	mu      sync.Mutex
	ensured []string
	fetched []string
	calls   map[string]int
}

func (f *fakeGateway) Name() string { return f.name }

func (f *fakeGateway) DetectCarrier(ctx context.Context, trackingNumber string) ([]domain.CarrierCandidate, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	out := make([]domain.CarrierCandidate, 0, len(f.suggest))
	for _, code := range f.suggest {
		out = append(out, domain.CarrierCandidate{Code: code, Source: domain.SourceDetected})
	}
	return out, nil
}

func (f *fakeGateway) EnsureTracker(ctx context.Context, trackingNumber, carrierCode string) error {
	f.mu.Lock()
	f.ensured = append(f.ensured, carrierCode)
	f.mu.Unlock()
	return f.ensureErr
}

func (f *fakeGateway) FetchTracking(ctx context.Context, trackingNumber, carrierCode string) (*domain.ProviderResponse, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[carrierCode]++
	call := f.calls[carrierCode]
	f.fetched = append(f.fetched, carrierCode)
	f.mu.Unlock()

	if f.fetch == nil {
		return nil, f.notFound(carrierCode)
	}
	return f.fetch(ctx, carrierCode, call)
}

func (f *fakeGateway) notFound(carrier string) error {
	return &domain.ProviderError{Kind: domain.ProviderNotFound, Provider: f.name, StatusCode: 404, Message: "no tracker for " + carrier}
}

func (f *fakeGateway) fetchedCarriers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// succeedFor answers with payload for carrier and NotFound for any other carrier.
func succeedFor(name, carrier, payload string) func(context.Context, string, int) (*domain.ProviderResponse, error) {
	return func(_ context.Context, c string, _ int) (*domain.ProviderResponse, error) {
		if c != carrier {
			return nil, &domain.ProviderError{Kind: domain.ProviderNotFound, Provider: name, StatusCode: 404}
		}
		return &domain.ProviderResponse{Provider: name, Carrier: c, Payload: []byte(payload)}, nil
	}
}
