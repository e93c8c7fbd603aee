package handler

import (
	"context"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
)

// MockAvailabilityService is a mock implementation of AvailabilityService
type MockAvailabilityService struct {
	CheckAvailabilityFunc func(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResponse, error)
}

func (m *MockAvailabilityService) CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	if m.CheckAvailabilityFunc != nil {
		return m.CheckAvailabilityFunc(ctx, req)
	}
	return &dto.AvailabilityResponse{IsAvailable: true}, nil
}

// MockPricingService is a mock implementation of PricingService
type MockPricingService struct {
	CalculatePriceFunc      func(ctx context.Context, req *dto.CalculatePriceRequest) (*dto.PriceCalculationResponse, error)
	GetPricingConfigFunc    func(ctx context.Context) (*dto.PricingHistoryResponse, error)
	UpdatePricingConfigFunc func(ctx context.Context, userID string, req *dto.UpdatePricingConfigRequest) (*dto.PricingConfigResponse, error)
}

func (m *MockPricingService) CalculatePrice(ctx context.Context, req *dto.CalculatePriceRequest) (*dto.PriceCalculationResponse, error) {
	if m.CalculatePriceFunc != nil {
		return m.CalculatePriceFunc(ctx, req)
	}
	return &dto.PriceCalculationResponse{}, nil
}

func (m *MockPricingService) GetPricingConfig(ctx context.Context) (*dto.PricingHistoryResponse, error) {
	if m.GetPricingConfigFunc != nil {
		return m.GetPricingConfigFunc(ctx)
	}
	return &dto.PricingHistoryResponse{}, nil
}

func (m *MockPricingService) UpdatePricingConfig(ctx context.Context, userID string, req *dto.UpdatePricingConfigRequest) (*dto.PricingConfigResponse, error) {
	if m.UpdatePricingConfigFunc != nil {
		return m.UpdatePricingConfigFunc(ctx, userID, req)
	}
	return &dto.PricingConfigResponse{}, nil
}

func (m *MockPricingService) ActiveConfig(ctx context.Context) (*domain.PricingConfig, error) {
	return domain.DefaultPricingConfig(), nil
}

// MockRequestService is a mock implementation of RequestService
type MockRequestService struct {
	CreateRequestFunc func(ctx context.Context, leaderID string, req *dto.CreateRequestRequest) (*dto.RequestResponse, error)
	GetRequestFunc    func(ctx context.Context, requestID string) (*dto.RequestResponse, error)
}

func (m *MockRequestService) CreateRequest(ctx context.Context, leaderID string, req *dto.CreateRequestRequest) (*dto.RequestResponse, error) {
	if m.CreateRequestFunc != nil {
		return m.CreateRequestFunc(ctx, leaderID, req)
	}
	return &dto.RequestResponse{}, nil
}

func (m *MockRequestService) GetRequest(ctx context.Context, requestID string) (*dto.RequestResponse, error) {
	if m.GetRequestFunc != nil {
		return m.GetRequestFunc(ctx, requestID)
	}
	return &dto.RequestResponse{ID: requestID}, nil
}

// MockOfferService is a mock implementation of OfferService
type MockOfferService struct {
	CreateOfferFunc   func(ctx context.Context, requestID, musicianID string, req *dto.CreateOfferRequest) (*dto.OfferResponse, error)
	SelectOfferFunc   func(ctx context.Context, offerID, leaderID string) (*dto.CommitmentResponse, error)
	RejectOfferFunc   func(ctx context.Context, offerID, leaderID string) (*dto.OfferResponse, error)
	AcceptRequestFunc func(ctx context.Context, requestID, musicianID string) (*dto.CommitmentResponse, error)
	ListOffersFunc    func(ctx context.Context, requestID, callerID string, query *dto.ListOffersQuery) (*dto.ListOffersResponse, error)
}

func (m *MockOfferService) CreateOffer(ctx context.Context, requestID, musicianID string, req *dto.CreateOfferRequest) (*dto.OfferResponse, error) {
	if m.CreateOfferFunc != nil {
		return m.CreateOfferFunc(ctx, requestID, musicianID, req)
	}
	return &dto.OfferResponse{}, nil
}

func (m *MockOfferService) SelectOffer(ctx context.Context, offerID, leaderID string) (*dto.CommitmentResponse, error) {
	if m.SelectOfferFunc != nil {
		return m.SelectOfferFunc(ctx, offerID, leaderID)
	}
	return &dto.CommitmentResponse{}, nil
}

func (m *MockOfferService) RejectOffer(ctx context.Context, offerID, leaderID string) (*dto.OfferResponse, error) {
	if m.RejectOfferFunc != nil {
		return m.RejectOfferFunc(ctx, offerID, leaderID)
	}
	return &dto.OfferResponse{}, nil
}

func (m *MockOfferService) AcceptRequest(ctx context.Context, requestID, musicianID string) (*dto.CommitmentResponse, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, requestID, musicianID)
	}
	return &dto.CommitmentResponse{}, nil
}

func (m *MockOfferService) ListOffers(ctx context.Context, requestID, callerID string, query *dto.ListOffersQuery) (*dto.ListOffersResponse, error) {
	if m.ListOffersFunc != nil {
		return m.ListOffersFunc(ctx, requestID, callerID, query)
	}
	return &dto.ListOffersResponse{}, nil
}

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	StartEventFunc     func(ctx context.Context, requestID, musicianID string) (*dto.EventTransitionResponse, error)
	CompleteEventFunc  func(ctx context.Context, requestID, leaderID string) (*dto.EventTransitionResponse, error)
	GetEventStatusFunc func(ctx context.Context, requestID, callerID string) (*dto.EventStatusResponse, error)
}

func (m *MockEventService) StartEvent(ctx context.Context, requestID, musicianID string) (*dto.EventTransitionResponse, error) {
	if m.StartEventFunc != nil {
		return m.StartEventFunc(ctx, requestID, musicianID)
	}
	return &dto.EventTransitionResponse{}, nil
}

func (m *MockEventService) CompleteEvent(ctx context.Context, requestID, leaderID string) (*dto.EventTransitionResponse, error) {
	if m.CompleteEventFunc != nil {
		return m.CompleteEventFunc(ctx, requestID, leaderID)
	}
	return &dto.EventTransitionResponse{}, nil
}

func (m *MockEventService) GetEventStatus(ctx context.Context, requestID, callerID string) (*dto.EventStatusResponse, error) {
	if m.GetEventStatusFunc != nil {
		return m.GetEventStatusFunc(ctx, requestID, callerID)
	}
	return &dto.EventStatusResponse{}, nil
}

// MockCancellationService is a mock implementation of CancellationService
type MockCancellationService struct {
	CancelRequestFunc  func(ctx context.Context, requestID, leaderID string, req *dto.CancelRequestRequest) (*dto.CancelResponse, error)
	PreviewPenaltyFunc func(ctx context.Context, requestID, callerID string) (*dto.PenaltyResponse, error)
}

func (m *MockCancellationService) CancelRequest(ctx context.Context, requestID, leaderID string, req *dto.CancelRequestRequest) (*dto.CancelResponse, error) {
	if m.CancelRequestFunc != nil {
		return m.CancelRequestFunc(ctx, requestID, leaderID, req)
	}
	return &dto.CancelResponse{}, nil
}

func (m *MockCancellationService) PreviewPenalty(ctx context.Context, requestID, callerID string) (*dto.PenaltyResponse, error) {
	if m.PreviewPenaltyFunc != nil {
		return m.PreviewPenaltyFunc(ctx, requestID, callerID)
	}
	return &dto.PenaltyResponse{}, nil
}
