package handler

import (
	"errors"
	"net/http"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/middleware"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/response"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrRequestNotFound, "REQUEST_NOT_FOUND"},
	{domain.ErrOfferNotFound, "OFFER_NOT_FOUND"},
	{domain.ErrMusicianNotFound, "MUSICIAN_NOT_FOUND"},
	{domain.ErrPricingConfigNotFound, "PRICING_CONFIG_NOT_FOUND"},
	{domain.ErrInvalidTimeRange, "INVALID_TIME_RANGE"},
	{domain.ErrInvalidTimeFormat, "INVALID_TIME_FORMAT"},
	{domain.ErrInvalidDate, "INVALID_DATE"},
	{domain.ErrInvalidPrice, "INVALID_PRICE"},
	{domain.ErrInvalidOfferStatus, "INVALID_OFFER_STATUS"},
	{domain.ErrInvalidRate, "INVALID_RATE"},
	{domain.ErrInvalidPricingConfig, "INVALID_PRICING_CONFIG"},
	{domain.ErrHoursOutOfRange, "HOURS_OUT_OF_RANGE"},
	{domain.ErrUnauthorized, "NOT_REQUEST_LEADER"},
	{domain.ErrForbidden, "FORBIDDEN"},
	{domain.ErrRequestNotActive, "REQUEST_NOT_ACTIVE"},
	{domain.ErrDuplicateOffer, "DUPLICATE_OFFER"},
	{domain.ErrMusicianUnavailable, "MUSICIAN_UNAVAILABLE"},
	{domain.ErrMusicianInactive, "MUSICIAN_INACTIVE"},
	{domain.ErrOfferNotPending, "OFFER_NOT_PENDING"},
	{domain.ErrInvalidTransition, "INVALID_TRANSITION"},
	{domain.ErrAlreadyTerminal, "ALREADY_TERMINAL"},
	{domain.ErrRequestAlreadyFinished, "REQUEST_ALREADY_FINISHED"},
	{domain.ErrConcurrentUpdate, "CONCURRENT_UPDATE"},
}

func errorCode(err error, fallback string) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return fallback
}

// handleError maps service errors to HTTP responses
func handleError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch {
	case domain.IsValidationError(err):
		response.Error(c, http.StatusBadRequest, errorCode(err, "INVALID_REQUEST"), err.Error())
	case domain.IsAuthorizationError(err):
		response.Error(c, http.StatusForbidden, errorCode(err, "FORBIDDEN"), err.Error())
	case domain.IsNotFoundError(err):
		response.Error(c, http.StatusNotFound, errorCode(err, "NOT_FOUND"), err.Error())
	case domain.IsConflictError(err):
		response.Error(c, http.StatusConflict, errorCode(err, "CONFLICT"), err.Error())
	default:
		middleware.RequestLogger(c).Error("unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}

// bindError responds to a malformed body or query
func bindError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "invalid request")
	response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request", err.Error())
}

// callerID returns the authenticated caller, responding 401 when missing
func callerID(c *gin.Context, span trace.Span) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "X-User-ID header is required")
		return "", false
	}
	return userID, true
}
