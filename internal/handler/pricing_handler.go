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

// PricingHandler handles pricing HTTP requests
type PricingHandler struct {
	pricingService service.PricingService
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(pricingService service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// CalculatePrice handles POST /pricing/calculate
func (h *PricingHandler) CalculatePrice(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.pricing.calculate")
	defer span.End()

	var req dto.CalculatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, span, err)
		return
	}

	result, err := h.pricingService.CalculatePrice(ctx, &req)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetPricingConfig handles GET /pricing/config
func (h *PricingHandler) GetPricingConfig(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.pricing.get_config")
	defer span.End()

	result, err := h.pricingService.GetPricingConfig(ctx)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// UpdatePricingConfig handles PUT /pricing/config.
// Restricting this route to administrators is the gateway's job.
func (h *PricingHandler) UpdatePricingConfig(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.pricing.update_config")
	defer span.End()

	userID, ok := callerID(c, span)
	if !ok {
		return
	}

	var req dto.UpdatePricingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	result, err := h.pricingService.UpdatePricingConfig(ctx, userID, &req)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetAttributes(attribute.Int("version", result.Version))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}
