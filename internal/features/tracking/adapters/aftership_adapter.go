package adapter

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"parcel-tracker/internal/features/tracking/domain"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// AfterShipProviderName identifies the AfterShip gateway.
const AfterShipProviderName = "aftership"

// afterShipTrackingExists is the meta code AfterShip returns for a duplicate tracking.
const afterShipTrackingExists = 4003

// AfterShipAdapter tracks parcels through the AfterShip tracking API.
type AfterShipAdapter struct {
	http *providerClient
}

type afterShipTracking struct {
	TrackingNumber string `json:"tracking_number"`
	Slug           string `json:"slug,omitempty"`
}

type afterShipRequest struct {
	Tracking afterShipTracking `json:"tracking"`
}

// NewAfterShipAdapter creates a new AfterShipAdapter authenticating with apiKey.
func NewAfterShipAdapter(baseURL, apiKey string, client HTTPDoer, timeout time.Duration) *AfterShipAdapter {
	headers := map[string]string{"aftership-api-key": apiKey}
	return &AfterShipAdapter{
		http: newProviderClient(AfterShipProviderName, baseURL, client, timeout, headers, apiKey),
	}
}

// Name implements TrackingProviderGateway.
func (a *AfterShipAdapter) Name() string {
	return AfterShipProviderName
}

// DetectCarrier asks AfterShip which couriers issue numbers like this one.
func (a *AfterShipAdapter) DetectCarrier(ctx context.Context, trackingNumber string) ([]domain.CarrierCandidate, error) {
	reply, perr := a.http.do(ctx, http.MethodPost, "/couriers/detect", afterShipRequest{
		Tracking: afterShipTracking{TrackingNumber: trackingNumber},
	})
	if perr != nil {
		return nil, perr
	}
	if !reply.ok() {
		return nil, a.http.statusError(reply)
	}
	if !gjson.ValidBytes(reply.body) {
		return nil, a.http.fail(domain.ProviderMalformed, reply.status, "response is not valid JSON")
	}

	var candidates []domain.CarrierCandidate
	for _, slug := range gjson.GetBytes(reply.body, "data.couriers.#.slug").Array() {
		if slug.String() == "" {
			continue
		}
		candidates = append(candidates, domain.CarrierCandidate{
			Code:   slug.String(),
			Source: domain.SourceDetected,
		})
	}

	a.http.logger.Debug("Detected couriers",
		zap.String("tracking_number", trackingNumber),
		zap.Int("count", len(candidates)),
	)
	return candidates, nil
}

// EnsureTracker creates the tracking; an existing tracking is reported with meta code 4003.
func (a *AfterShipAdapter) EnsureTracker(ctx context.Context, trackingNumber, carrierCode string) error {
	reply, perr := a.http.do(ctx, http.MethodPost, "/trackings", afterShipRequest{
		Tracking: afterShipTracking{TrackingNumber: trackingNumber, Slug: carrierCode},
	})
	if perr != nil {
		return perr
	}
	if reply.ok() || gjson.GetBytes(reply.body, "meta.code").Int() == afterShipTrackingExists {
		return nil
	}
	return a.http.statusError(reply)
}

// FetchTracking returns the tracking AfterShip holds for the carrier slug and number.
func (a *AfterShipAdapter) FetchTracking(ctx context.Context, trackingNumber, carrierCode string) (*domain.ProviderResponse, error) {
	path := "/trackings/" + url.PathEscape(carrierCode) + "/" + url.PathEscape(trackingNumber)
	reply, perr := a.http.do(ctx, http.MethodGet, path, nil)
	if perr != nil {
		return nil, perr
	}
	if !reply.ok() {
		return nil, a.http.statusError(reply)
	}

	payload, perr := a.http.record(reply, "data.tracking", "checkpoints", "tracking_number", "id")
	if perr != nil {
		return nil, perr
	}

	return &domain.ProviderResponse{
		Provider:       AfterShipProviderName,
		Carrier:        carrierCode,
		TrackingNumber: trackingNumber,
		Payload:        payload,
	}, nil
}
