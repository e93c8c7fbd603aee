package handler

import (
	"errors"
	"io"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/service"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/response"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RequestHandler handles booking request, event lifecycle and cancellation
// HTTP requests
type RequestHandler struct {
	requestService      service.RequestService
	eventService        service.EventService
	cancellationService service.CancellationService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(
	requestService service.RequestService,
	eventService service.EventService,
	cancellationService service.CancellationService,
) *RequestHandler {
	return &RequestHandler{
		requestService:      requestService,
		eventService:        eventService,
		cancellationService: cancellationService,
	}
}

// CreateRequest handles POST /requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.request.create")
	defer span.End()

	leaderID, ok := callerID(c, span)
	if !ok {
		return
	}

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("leader_id", leaderID),
		attribute.String("event_date", req.EventDate),
	)

	result, err := h.requestService.CreateRequest(ctx, leaderID, &req)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetAttributes(attribute.String("request_id", result.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// GetRequest handles GET /requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.request.get")
	defer span.End()

	result, err := h.requestService.GetRequest(ctx, c.Param("id"))
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// StartEvent handles POST /requests/:id/start
func (h *RequestHandler) StartEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.start")
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

	result, err := h.eventService.StartEvent(ctx, requestID, musicianID)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// CompleteEvent handles POST /requests/:id/complete
func (h *RequestHandler) CompleteEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.complete")
	defer span.End()

	leaderID, ok := callerID(c, span)
	if !ok {
		return
	}
	requestID := c.Param("id")
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("leader_id", leaderID),
	)

	result, err := h.eventService.CompleteEvent(ctx, requestID, leaderID)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// GetEventStatus handles GET /requests/:id/event-status
func (h *RequestHandler) GetEventStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.status")
	defer span.End()

	userID, ok := callerID(c, span)
	if !ok {
		return
	}

	result, err := h.eventService.GetEventStatus(ctx, c.Param("id"), userID)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// CancelRequest handles POST /requests/:id/cancel. The body is optional.
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.request.cancel")
	defer span.End()

	leaderID, ok := callerID(c, span)
	if !ok {
		return
	}

	var req dto.CancelRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, span, err)
		return
	}

	requestID := c.Param("id")
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("leader_id", leaderID),
	)

	result, err := h.cancellationService.CancelRequest(ctx, requestID, leaderID, &req)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetAttributes(
		attribute.Int("penalty_percentage", result.PenaltyPercentage),
		attribute.String("penalty_tier", result.PenaltyTier),
	)
	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// PreviewPenalty handles GET /requests/:id/penalty
func (h *RequestHandler) PreviewPenalty(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.request.penalty")
	defer span.End()

	userID, ok := callerID(c, span)
	if !ok {
		return
	}

	result, err := h.cancellationService.PreviewPenalty(ctx, c.Param("id"), userID)
	if err != nil {
		handleError(c, span, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}
