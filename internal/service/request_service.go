package service

import (
	"context"
	"fmt"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// RequestService defines the interface for booking request intake
type RequestService interface {
	// CreateRequest posts a new active request owned by leaderID
	CreateRequest(ctx context.Context, leaderID string, req *dto.CreateRequestRequest) (*dto.RequestResponse, error)

	// GetRequest retrieves a request by ID
	GetRequest(ctx context.Context, requestID string) (*dto.RequestResponse, error)
}

// requestService implements RequestService
type requestService struct {
	store   repository.Store
	pricing PricingService
	engine  EngineConfig
}

// NewRequestService creates a new request service
func NewRequestService(store repository.Store, pricing PricingService, cfg *EngineConfig) RequestService {
	return &requestService{
		store:   store,
		pricing: pricing,
		engine:  normalizeEngineConfig(cfg),
	}
}

// CreateRequest validates the window and stores the request
func (s *requestService) CreateRequest(ctx context.Context, leaderID string, req *dto.CreateRequestRequest) (*dto.RequestResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.request.create")
	defer span.End()

	if leaderID == "" {
		return nil, failSpan(span, domain.ErrInvalidUserID, "invalid leader_id")
	}
	if req == nil {
		return nil, failSpan(span, domain.ErrInvalidDate, "empty request")
	}

	slot, err := parseSlot(req.EventDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, failSpan(span, err, "invalid window")
	}

	extra := decimal.Zero
	if req.ExtraAmount != nil {
		if req.ExtraAmount.IsNegative() {
			return nil, failSpan(span, domain.ErrInvalidPrice, "negative extra_amount")
		}
		extra = *req.ExtraAmount
	}

	now := s.engine.Clock()
	booking := &domain.BookingRequest{
		ID:                 uuid.New().String(),
		LeaderID:           leaderID,
		EventDate:          slot.Date,
		StartTime:          slot.Start,
		EndTime:            slot.End,
		Location:           req.Location,
		RequiredInstrument: req.RequiredInstrument,
		ExtraAmount:        extra,
		Status:             domain.RequestStatusActive,
		EventStatus:        domain.EventStatusNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := booking.Validate(); err != nil {
		return nil, failSpan(span, err, "invalid request")
	}
	if booking.ScheduledStart(s.engine.Location).Before(now) {
		return nil, failSpan(span, fmt.Errorf("%w: event starts in the past", domain.ErrInvalidDate), "past event")
	}

	if s.engine.EnforceHourBounds {
		cfg, err := s.pricing.ActiveConfig(ctx)
		if err != nil {
			return nil, err
		}
		hours := domain.HoursBetween(booking.StartTime, booking.EndTime)
		if !cfg.WithinHourBounds(hours) {
			return nil, failSpan(span, domain.ErrHoursOutOfRange, "hours out of range")
		}
	}

	if err := s.store.Requests().Create(ctx, booking); err != nil {
		return nil, failSpan(span, fmt.Errorf("failed to create request: %w", err), "create failed")
	}

	span.SetAttributes(
		attribute.String("request_id", booking.ID),
		attribute.String("leader_id", leaderID),
	)
	return dto.RequestFromDomain(booking), nil
}

// GetRequest retrieves a request by ID
func (s *requestService) GetRequest(ctx context.Context, requestID string) (*dto.RequestResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.request.get")
	defer span.End()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}

	req, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, failSpan(span, err, "get failed")
	}
	return dto.RequestFromDomain(req), nil
}
