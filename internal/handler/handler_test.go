package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mocks struct {
	availability *MockAvailabilityService
	pricing      *MockPricingService
	requests     *MockRequestService
	offers       *MockOfferService
	events       *MockEventService
	cancels      *MockCancellationService
}

func newMocks() *mocks {
	return &mocks{
		availability: &MockAvailabilityService{},
		pricing:      &MockPricingService{},
		requests:     &MockRequestService{},
		offers:       &MockOfferService{},
		events:       &MockEventService{},
		cancels:      &MockCancellationService{},
	}
}

func setupTestRouter(m *mocks) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	RegisterRoutes(router.Group("/api/v1"), &Handlers{
		Availability: NewAvailabilityHandler(m.availability),
		Pricing:      NewPricingHandler(m.pricing),
		Requests:     NewRequestHandler(m.requests, m.events, m.cancels),
		Offers:       NewOfferHandler(m.offers),
	}, middleware.UserID())

	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, router *gin.Engine, method, path, userID string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestRoutes_RequireCaller(t *testing.T) {
	router := setupTestRouter(newMocks())

	w, env := do(t, router, http.MethodPost, "/api/v1/offers/o-1/select", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestCheckAvailability(t *testing.T) {
	m := newMocks()
	var got *dto.CheckAvailabilityRequest
	m.availability.CheckAvailabilityFunc = func(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.AvailabilityResponse, error) {
		got = req
		return &dto.AvailabilityResponse{IsAvailable: false, ConflictingCount: 1, Reason: "conflict"}, nil
	}
	router := setupTestRouter(m)

	w, env := do(t, router, http.MethodPost, "/api/v1/availability/check", "leader-1", map[string]string{
		"musician_id": "m-a",
		"date":        "2025-06-14",
		"start_time":  "20:00",
		"end_time":    "23:00",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "m-a", got.MusicianID)

	var resp dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.False(t, resp.IsAvailable)
	assert.Equal(t, 1, resp.ConflictingCount)

	w, env = do(t, router, http.MethodPost, "/api/v1/availability/check", "leader-1", map[string]string{"musician_id": "m-a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestCreateOffer(t *testing.T) {
	m := newMocks()
	m.offers.CreateOfferFunc = func(ctx context.Context, requestID, musicianID string, req *dto.CreateOfferRequest) (*dto.OfferResponse, error) {
		return &dto.OfferResponse{
			ID:            "o-1",
			RequestID:     requestID,
			MusicianID:    musicianID,
			ProposedPrice: req.ProposedPrice,
			Status:        "pending",
		}, nil
	}
	router := setupTestRouter(m)

	w, env := do(t, router, http.MethodPost, "/api/v1/requests/r-1/offers", "m-a", map[string]interface{}{
		"proposed_price": "1500.00",
		"message":        "available",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.OfferResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "r-1", resp.RequestID)
	assert.Equal(t, "m-a", resp.MusicianID)
	assert.True(t, decimal.RequireFromString("1500").Equal(resp.ProposedPrice))
}

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.ErrInvalidPrice, http.StatusBadRequest, "INVALID_PRICE"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not leader", domain.ErrUnauthorized, http.StatusForbidden, "NOT_REQUEST_LEADER"},
		{"not found", domain.ErrRequestNotFound, http.StatusNotFound, "REQUEST_NOT_FOUND"},
		{"duplicate", domain.ErrDuplicateOffer, http.StatusConflict, "DUPLICATE_OFFER"},
		{"unavailable", domain.ErrMusicianUnavailable, http.StatusConflict, "MUSICIAN_UNAVAILABLE"},
		{"wrapped", errors.Join(errors.New("tx"), domain.ErrRequestNotActive), http.StatusConflict, "REQUEST_NOT_ACTIVE"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			m.offers.CreateOfferFunc = func(ctx context.Context, requestID, musicianID string, req *dto.CreateOfferRequest) (*dto.OfferResponse, error) {
				return nil, tt.err
			}
			router := setupTestRouter(m)

			w, env := do(t, router, http.MethodPost, "/api/v1/requests/r-1/offers", "m-a", map[string]interface{}{"proposed_price": "100"})
			assert.Equal(t, tt.wantStatus, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestSelectOffer_PassesCaller(t *testing.T) {
	m := newMocks()
	var gotOffer, gotLeader string
	m.offers.SelectOfferFunc = func(ctx context.Context, offerID, leaderID string) (*dto.CommitmentResponse, error) {
		gotOffer, gotLeader = offerID, leaderID
		return &dto.CommitmentResponse{RejectedOfferIDs: []string{"o-2"}}, nil
	}
	router := setupTestRouter(m)

	w, _ := do(t, router, http.MethodPost, "/api/v1/offers/o-1/select", "leader-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "o-1", gotOffer)
	assert.Equal(t, "leader-1", gotLeader)
}

func TestListOffers_Query(t *testing.T) {
	m := newMocks()
	var got *dto.ListOffersQuery
	m.offers.ListOffersFunc = func(ctx context.Context, requestID, callerID string, query *dto.ListOffersQuery) (*dto.ListOffersResponse, error) {
		got = query
		return &dto.ListOffersResponse{Offers: []*dto.OfferResponse{}, Count: 0}, nil
	}
	router := setupTestRouter(m)

	w, _ := do(t, router, http.MethodGet, "/api/v1/requests/r-1/offers?status=pending&limit=20", "leader-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, 20, got.Limit)

	w, _ = do(t, router, http.MethodGet, "/api/v1/requests/r-1/offers?limit=500", "leader-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelRequest_OptionalBody(t *testing.T) {
	m := newMocks()
	var reason string
	m.cancels.CancelRequestFunc = func(ctx context.Context, requestID, leaderID string, req *dto.CancelRequestRequest) (*dto.CancelResponse, error) {
		reason = req.Reason
		return &dto.CancelResponse{RequestID: requestID, Status: "cancelled", PenaltyPercentage: 25, PenaltyTier: "short_notice"}, nil
	}
	router := setupTestRouter(m)

	w, _ := do(t, router, http.MethodPost, "/api/v1/requests/r-1/cancel", "leader-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, reason)

	w, env := do(t, router, http.MethodPost, "/api/v1/requests/r-1/cancel", "leader-1", map[string]string{"reason": "venue closed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "venue closed", reason)

	var resp dto.CancelResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 25, resp.PenaltyPercentage)
}

func TestEventRoutes(t *testing.T) {
	m := newMocks()
	m.events.StartEventFunc = func(ctx context.Context, requestID, musicianID string) (*dto.EventTransitionResponse, error) {
		if musicianID != "m-a" {
			return nil, domain.ErrForbidden
		}
		return &dto.EventTransitionResponse{RequestID: requestID, Status: "accepted", EventStatus: "started"}, nil
	}
	m.events.CompleteEventFunc = func(ctx context.Context, requestID, leaderID string) (*dto.EventTransitionResponse, error) {
		return nil, domain.ErrInvalidTransition
	}
	router := setupTestRouter(m)

	w, _ := do(t, router, http.MethodPost, "/api/v1/requests/r-1/start", "m-a", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodPost, "/api/v1/requests/r-1/start", "m-b", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := do(t, router, http.MethodPost, "/api/v1/requests/r-1/complete", "leader-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
}

func TestUpdatePricingConfig(t *testing.T) {
	m := newMocks()
	var gotUser string
	m.pricing.UpdatePricingConfigFunc = func(ctx context.Context, userID string, req *dto.UpdatePricingConfigRequest) (*dto.PricingConfigResponse, error) {
		gotUser = userID
		return &dto.PricingConfigResponse{Version: 2, IsActive: true}, nil
	}
	router := setupTestRouter(m)

	w, _ := do(t, router, http.MethodPut, "/api/v1/pricing/config", "admin-1", map[string]string{
		"base_hourly_rate":    "600",
		"minimum_hours":       "1",
		"maximum_hours":       "10",
		"platform_commission": "0.10",
		"service_fee":         "50",
		"tax_rate":            "0.18",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", gotUser)
}

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(ctx context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		components map[string]HealthChecker
		wantStatus int
	}{
		{"all healthy", map[string]HealthChecker{"database": fakeChecker{}, "redis": nil}, http.StatusOK},
		{"database down", map[string]HealthChecker{"database": fakeChecker{err: errors.New("refused")}}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.components)
			router := gin.New()
			router.GET("/health", h.Health)
			router.GET("/ready", h.Ready)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)

			w = httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp.Components, len(tt.components))
		})
	}
}
