package handler

import (
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/service"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/response"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AvailabilityHandler handles availability HTTP requests
type AvailabilityHandler struct {
	availabilityService service.AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availabilityService service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// CheckAvailability handles POST /availability/check
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.check")
	defer span.End()

	var req dto.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("musician_id", req.MusicianID),
		attribute.String("date", req.Date),
	)

	result, err := h.availabilityService.CheckAvailability(ctx, &req)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetAttributes(attribute.Bool("is_available", result.IsAvailable))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}
