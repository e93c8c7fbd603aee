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

// OfferHandler handles offer submission and selection HTTP requests
type OfferHandler struct {
	offerService service.OfferService
}

// NewOfferHandler creates a new offer handler
func NewOfferHandler(offerService service.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

// CreateOffer handles POST /requests/:id/offers
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.offer.create")
	defer span.End()

	musicianID, ok := callerID(c, span)
	if !ok {
		return
	}

	var req dto.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, span, err)
		return
	}

	requestID := c.Param("id")
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("musician_id", musicianID),
	)

	result, err := h.offerService.CreateOffer(ctx, requestID, musicianID, &req)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetAttributes(attribute.String("offer_id", result.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// ListOffers handles GET /requests/:id/offers
func (h *OfferHandler) ListOffers(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.offer.list")
	defer span.End()

	userID, ok := callerID(c, span)
	if !ok {
		return
	}

	var query dto.ListOffersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, span, err)
		return
	}

	result, err := h.offerService.ListOffers(ctx, c.Param("id"), userID, &query)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetAttributes(attribute.Int("count", result.Count))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// AcceptRequest handles POST /requests/:id/accept
func (h *OfferHandler) AcceptRequest(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.offer.accept_request")
	defer span.End()

	musicianID, ok := callerID(c, span)
	if !ok {
		return
	}
	requestID := c.Param("id")
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("musician_id", musicianID),
	)

	result, err := h.offerService.AcceptRequest(ctx, requestID, musicianID)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// SelectOffer handles POST /offers/:id/select
func (h *OfferHandler) SelectOffer(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.offer.select")
	defer span.End()

	leaderID, ok := callerID(c, span)
	if !ok {
		return
	}
	offerID := c.Param("id")
	span.SetAttributes(
		attribute.String("offer_id", offerID),
		attribute.String("leader_id", leaderID),
	)

	result, err := h.offerService.SelectOffer(ctx, offerID, leaderID)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetAttributes(attribute.Int("rejected", len(result.RejectedOfferIDs)))
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// RejectOffer handles POST /offers/:id/reject
func (h *OfferHandler) RejectOffer(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.offer.reject")
	defer span.End()

	leaderID, ok := callerID(c, span)
	if !ok {
		return
	}
	offerID := c.Param("id")
	span.SetAttributes(
		attribute.String("offer_id", offerID),
		attribute.String("leader_id", leaderID),
	)

	result, err := h.offerService.RejectOffer(ctx, offerID, leaderID)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}
