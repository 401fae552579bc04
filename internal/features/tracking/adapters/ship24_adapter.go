package adapter

import (
	"context"
	"net/http"
	"time"

	"parcel-tracker/internal/features/tracking/domain"

	"go.uber.org/zap"
)

// Ship24ProviderName identifies the Ship24 gateway.
const Ship24ProviderName = "ship24"

// Ship24Adapter tracks parcels through the Ship24 public API.
type Ship24Adapter struct {
	http *providerClient
}

type ship24TrackerRequest struct {
	TrackingNumber string   `json:"trackingNumber"`
	CourierCode    []string `json:"courierCode,omitempty"`
}

// NewShip24Adapter creates a new Ship24Adapter authenticating with apiKey.
func NewShip24Adapter(baseURL, apiKey string, client HTTPDoer, timeout time.Duration) *Ship24Adapter {
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	return &Ship24Adapter{
		http: newProviderClient(Ship24ProviderName, baseURL, client, timeout, headers, apiKey),
	}
}

// Name implements TrackingProviderGateway.
func (a *Ship24Adapter) Name() string {
	return Ship24ProviderName
}

// DetectCarrier implements TrackingProviderGateway. Ship24 offers no detection call.
func (a *Ship24Adapter) DetectCarrier(ctx context.Context, trackingNumber string) ([]domain.CarrierCandidate, error) {
	return nil, nil
}

// EnsureTracker registers the number; a 409 means the tracker already exists.
func (a *Ship24Adapter) EnsureTracker(ctx context.Context, trackingNumber, carrierCode string) error {
	reply, perr := a.http.do(ctx, http.MethodPost, "/trackers", newShip24Request(trackingNumber, carrierCode))
	if perr != nil {
		return perr
	}
	if reply.ok() || reply.status == http.StatusConflict {
		return nil
	}
	return a.http.statusError(reply)
}

// FetchTracking returns the first tracking record Ship24 holds for the number and carrier.
func (a *Ship24Adapter) FetchTracking(ctx context.Context, trackingNumber, carrierCode string) (*domain.ProviderResponse, error) {
	reply, perr := a.http.do(ctx, http.MethodPost, "/trackers/track", newShip24Request(trackingNumber, carrierCode))
	if perr != nil {
		return nil, perr
	}
	if !reply.ok() {
		return nil, a.http.statusError(reply)
	}

	payload, perr := a.http.record(reply, "data.trackings.0", "events", "tracker.trackingNumber", "tracker.trackerId")
	if perr != nil {
		a.http.logger.Debug("No usable tracking record",
			zap.String("tracking_number", trackingNumber),
			zap.String("carrier", carrierCode),
			zap.String("reason", string(perr.Kind)),
		)
		return nil, perr
	}

	return &domain.ProviderResponse{
		Provider:       Ship24ProviderName,
		Carrier:        carrierCode,
		TrackingNumber: trackingNumber,
		Payload:        payload,
	}, nil
}

func newShip24Request(trackingNumber, carrierCode string) ship24TrackerRequest {
	req := ship24TrackerRequest{TrackingNumber: trackingNumber}
	if carrierCode != "" {
		req.CourierCode = []string{carrierCode}
	}
	return req
}
