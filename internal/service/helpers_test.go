package service

import (
	"context"
	"testing"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testLeader = "leader-1"
	testDate   = "2025-06-14"
)

// fixture wires every service over one MemoryStore with a movable clock
type fixture struct {
	store   *repository.MemoryStore
	now     time.Time
	engine  *EngineConfig
	pricing PricingService
	offers  OfferService
	events  EventService
	cancels CancellationService
	avail   AvailabilityService
	reqs    RequestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: repository.NewMemoryStore(),
		now:   time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
	}
	f.engine = &EngineConfig{
		Location:     time.UTC,
		TravelBuffer: domain.DefaultTravelBuffer,
		Clock:        func() time.Time { return f.now },
	}
	f.pricing = NewPricingService(f.store, nil, f.engine)
	f.offers = NewOfferService(f.store, f.pricing, f.engine)
	f.events = NewEventService(f.store, f.engine)
	f.cancels = NewCancellationService(f.store, f.engine)
	f.avail = NewAvailabilityService(f.store, f.engine)
	f.reqs = NewRequestService(f.store, f.pricing, f.engine)

	for _, id := range []string{"m-a", "m-b", "m-c"} {
		f.store.SaveMusician(domain.Musician{ID: id, Name: id, Status: domain.MusicianStatusActive})
	}
	f.store.SaveMusician(domain.Musician{ID: "m-suspended", Status: domain.MusicianStatusSuspended})
	return f
}

// request stores an active request for testLeader
func (f *fixture) request(t *testing.T, date, start, end string) *domain.BookingRequest {
	t.Helper()
	d, err := domain.ParseDate(date)
	require.NoError(t, err)

	req := &domain.BookingRequest{
		LeaderID:  testLeader,
		EventDate: d,
		StartTime: domain.MustParseTimeOfDay(start),
		EndTime:   domain.MustParseTimeOfDay(end),
	}
	require.NoError(t, f.store.Requests().Create(context.Background(), req))
	return req
}

func (f *fixture) reload(t *testing.T, id string) *domain.BookingRequest {
	t.Helper()
	req, err := f.store.Requests().GetByID(context.Background(), id)
	require.NoError(t, err)
	return req
}

func (f *fixture) pendingOutbox(t *testing.T) []*domain.OutboxMessage {
	t.Helper()
	msgs, err := f.store.Outbox().GetPendingMessages(context.Background(), 0)
	require.NoError(t, err)
	return msgs
}

func recipients(msgs []*domain.OutboxMessage, eventType string) []string {
	var out []string
	for _, m := range msgs {
		if m.EventType == eventType {
			out = append(out, m.RecipientID)
		}
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MockBlockRepository is a mock implementation of BlockRepository
type MockBlockRepository struct {
	CreateFunc           func(ctx context.Context, block *domain.AvailabilityBlock) error
	FindActiveFunc       func(ctx context.Context, query repository.SlotQuery) ([]*domain.AvailabilityBlock, error)
	ReleaseByRequestFunc func(ctx context.Context, requestID string, at time.Time) (int64, error)
}

func (m *MockBlockRepository) Create(ctx context.Context, block *domain.AvailabilityBlock) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, block)
	}
	return nil
}

func (m *MockBlockRepository) FindActive(ctx context.Context, query repository.SlotQuery) ([]*domain.AvailabilityBlock, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockBlockRepository) ReleaseByRequest(ctx context.Context, requestID string, at time.Time) (int64, error) {
	if m.ReleaseByRequestFunc != nil {
		return m.ReleaseByRequestFunc(ctx, requestID, at)
	}
	return 0, nil
}

// blockOverrideStore serves blocks from a mock and everything else from memory
type blockOverrideStore struct {
	*repository.MemoryStore
	blocks repository.BlockRepository
}

func (s *blockOverrideStore) Blocks() repository.BlockRepository {
	return s.blocks
}

func (s *blockOverrideStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.MemoryStore.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, &blockOverrideStore{MemoryStore: tx.(*repository.MemoryStore), blocks: s.blocks})
	})
}

// MockPricingCache is a mock implementation of PricingCache
type MockPricingCache struct {
	GetFunc        func(ctx context.Context) (*domain.PricingConfig, error)
	SetFunc        func(ctx context.Context, cfg *domain.PricingConfig) error
	InvalidateFunc func(ctx context.Context) error

	SetCalls        int
	InvalidateCalls int
}

func (m *MockPricingCache) Get(ctx context.Context) (*domain.PricingConfig, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return nil, repository.ErrCacheMiss
}

func (m *MockPricingCache) Set(ctx context.Context, cfg *domain.PricingConfig) error {
	m.SetCalls++
	if m.SetFunc != nil {
		return m.SetFunc(ctx, cfg)
	}
	return nil
}

func (m *MockPricingCache) Invalidate(ctx context.Context) error {
	m.InvalidateCalls++
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx)
	}
	return nil
}
