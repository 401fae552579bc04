package handler

import (
	"errors"
	"strings"

	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/features/tracking/domain"
	"parcel-tracker/internal/features/tracking/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TrackingHandler handles HTTP requests for tracking operations.
type TrackingHandler struct {
	trackingService ports.TrackingService
	providers       []string
	logger          *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
// providers lists the enabled provider names reported by the health check.
func NewTrackingHandler(trackingService ports.TrackingService, providers []string) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
		providers:       providers,
		logger:          logger.Named("tracking-handler"),
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// Code is the machine readable error kind (e.g. NO_CARRIER_MATCHED).
	Code string `json:"code"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
	// Failures lists every failed carrier attempt, when any were made.
	Failures []domain.CandidateFailure `json:"failures,omitempty"`
}

// HealthResponse reports liveness and the enabled providers.
type HealthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
}

// Track godoc
// @Summary Track a parcel
// @Description Resolves the carrier for a tracking number and returns its normalized tracking events
// @Tags tracking
// @Produce json
// @Param number query string true "Tracking Number"
// @Param carrier query string false "Carrier code (e.g., yanwen, ups, dhl)"
// @Success 200 {object} domain.TrackingRecord
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/track [get]
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	return h.track(c, c.Query("number"), c.Query("carrier"))
}

// GetTracking godoc
// @Summary Get tracking events for a shipment
// @Description Same lookup as /api/track with the tracking number in the path
// @Tags tracking
// @Produce json
// @Param number path string true "Tracking Number"
// @Param courier query string false "Carrier code (e.g., yanwen, ups, dhl)"
// @Success 200 {object} domain.TrackingRecord
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /tracking/{number} [get]
func (h *TrackingHandler) GetTracking(c *fiber.Ctx) error {
	return h.track(c, c.Params("number"), c.Query("courier"))
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *TrackingHandler) Health(c *fiber.Ctx) error {
	providers := h.providers
	if providers == nil {
		providers = []string{}
	}
	return c.JSON(HealthResponse{Status: "ok", Providers: providers})
}

func (h *TrackingHandler) track(c *fiber.Ctx, number, carrier string) error {
	if strings.TrimSpace(number) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "tracking number is required",
			Code:    string(domain.ErrInvalidInput),
			RayID:   rayID(c),
		})
	}

	record, err := h.trackingService.TrackPackage(c.UserContext(), domain.TrackingRequest{
		TrackingNumber: number,
		Carrier:        carrier,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(record)
}

func (h *TrackingHandler) writeError(c *fiber.Ctx, err error) error {
	var resErr *domain.ResolutionError
	if !errors.As(err, &resErr) {
		h.logger.Error("Unexpected tracking error", zap.String("ray_id", rayID(c)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Message: "internal error",
			Code:    string(domain.ErrUnknown),
			RayID:   rayID(c),
		})
	}

	svcErr := resErr.ToServiceError()
	if svcErr.Code >= fiber.StatusInternalServerError {
		h.logger.Error("Tracking failed",
			zap.String("ray_id", rayID(c)),
			zap.String("code", svcErr.TextCode),
			zap.Int("attempts", len(resErr.Failures)),
			zap.Error(err),
		)
	}

	return c.Status(svcErr.Code).JSON(ErrorResponse{
		Message:  svcErr.Message,
		Code:     svcErr.TextCode,
		RayID:    rayID(c),
		Failures: resErr.Failures,
	})
}

func rayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
