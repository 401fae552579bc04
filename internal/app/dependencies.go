package app

import (
	"parcel-tracker/internal/core/config"
	"parcel-tracker/internal/core/httpclient"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/core/metrics"
	trackingadapter "parcel-tracker/internal/features/tracking/adapters"
	"parcel-tracker/internal/features/tracking/normalizer"
	"parcel-tracker/internal/features/tracking/ports"
	trackingservice "parcel-tracker/internal/features/tracking/service"

	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies holds the assembled tracking stack shared by the API server and the CLI.
type Dependencies struct {
	Gateways        []ports.TrackingProviderGateway
	TrackingService *trackingservice.TrackingService
	Metrics         *metrics.TrackingMetrics
}

// ProviderNames lists the enabled providers in the order they are tried.
func (d *Dependencies) ProviderNames() []string {
	return trackingadapter.GatewayNames(d.Gateways)
}

// NewDependencies wires gateways, normalizer and service from cfg.
// reg may be nil, in which case no metrics are recorded.
// No provider call is made; a configuration without API keys surfaces as a
// config error on the first lookup.
func NewDependencies(cfg *config.AppConfig, reg prometheus.Registerer) *Dependencies {
	client := httpclient.NewClient(
		cfg.Providers.Timeout,
		cfg.Proxy.Settings(),
		cfg.Providers.Ship24APIKey,
		cfg.Providers.AfterShipAPIKey,
	)

	gateways := trackingadapter.NewGateways(cfg.Providers, client)

	var m *metrics.TrackingMetrics
	if reg != nil {
		m = metrics.NewTrackingMetrics(reg)
	}

	norm := normalizer.NewResponseNormalizer(
		normalizer.NewCourierNameResolver(cfg.Resolution.DisplayNames()),
	)

	svc := trackingservice.NewTrackingService(gateways, norm, m, trackingservice.Options{
		Deadline:            cfg.Resolution.Deadline,
		RateLimitRetries:    cfg.Resolution.RateLimitRetries,
		RateLimitBackoff:    cfg.Resolution.RateLimitBackoff,
		RateLimitMaxBackoff: cfg.Resolution.RateLimitMaxBackoff,
		DefaultCarrier:      cfg.Resolution.DefaultCarrier,
		MaxDetectedCarriers: cfg.Resolution.MaxDetectedCarriers,
	}, logger.Named("tracking"))

	return &Dependencies{
		Gateways:        gateways,
		TrackingService: svc,
		Metrics:         m,
	}
}
