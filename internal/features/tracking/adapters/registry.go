package adapter

import (
	"strings"

	"parcel-tracker/internal/core/config"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// NewGateways builds the enabled provider gateways in the configured order.
// A provider is enabled only when its API key is set; unknown names are skipped.
func NewGateways(cfg config.ProvidersConfig, client HTTPDoer) []ports.TrackingProviderGateway {
	log := logger.Named("providers")

	var gateways []ports.TrackingProviderGateway
	seen := make(map[string]bool)
	for _, name := range cfg.ProviderOrder() {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case Ship24ProviderName:
			if strings.TrimSpace(cfg.Ship24APIKey) == "" {
				log.Info("Provider disabled, no API key", zap.String("provider", name))
				continue
			}
			gateways = append(gateways, NewShip24Adapter(cfg.Ship24BaseURL, cfg.Ship24APIKey, client, cfg.Timeout))
		case AfterShipProviderName:
			if strings.TrimSpace(cfg.AfterShipAPIKey) == "" {
				log.Info("Provider disabled, no API key", zap.String("provider", name))
				continue
			}
			gateways = append(gateways, NewAfterShipAdapter(cfg.AfterShipBaseURL, cfg.AfterShipAPIKey, client, cfg.Timeout))
		default:
			log.Warn("Unknown provider in PROVIDER_ORDER", zap.String("provider", name))
		}
	}
	return gateways
}

// GatewayNames lists the names of gateways, in order.
func GatewayNames(gateways []ports.TrackingProviderGateway) []string {
	names := make([]string, 0, len(gateways))
	for _, gw := range gateways {
		names = append(names, gw.Name())
	}
	return names
}
