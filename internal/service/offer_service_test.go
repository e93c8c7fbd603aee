package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/migrations"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offerOn(t *testing.T, f *fixture, requestID, musicianID, price string) *dto.OfferResponse {
	t.Helper()
	resp, err := f.offers.CreateOffer(context.Background(), requestID, musicianID, &dto.CreateOfferRequest{
		ProposedPrice: dec(price),
		Message:       "available",
	})
	require.NoError(t, err)
	return resp
}

func TestCreateOffer(t *testing.T) {
	f := newFixture(t)
	req := f.request(t, testDate, "20:00", "23:00")

	offer := offerOn(t, f, req.ID, "m-a", "1500")
	assert.Equal(t, "pending", offer.Status)
	assert.Equal(t, req.ID, offer.RequestID)

	assert.Equal(t, []string{testLeader}, recipients(f.pendingOutbox(t), domain.EventOfferCreated))
}

func TestCreateOffer_Gates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := f.request(t, testDate, "20:00", "23:00")
	offerOn(t, f, req.ID, "m-a", "1500")

	// m-b is committed elsewhere on the same evening
	other := f.request(t, testDate, "18:00", "19:00")
	_, err := f.offers.AcceptRequest(ctx, other.ID, "m-b")
	require.NoError(t, err)

	tests := []struct {
		name       string
		musicianID string
		price      string
		wantErr    error
	}{
		{"duplicate", "m-a", "1400", domain.ErrDuplicateOffer},
		{"suspended", "m-suspended", "1500", domain.ErrMusicianInactive},
		{"unknown musician", "m-ghost", "1500", domain.ErrMusicianInactive},
		{"unavailable", "m-b", "1500", domain.ErrMusicianUnavailable},
		{"leader on own request", testLeader, "1500", domain.ErrForbidden},
		{"zero price", "m-c", "0", domain.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.offers.CreateOffer(ctx, req.ID, tt.musicianID, &dto.CreateOfferRequest{ProposedPrice: dec(tt.price)})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateOffer_RequestNotActiveWinsOverAvailability(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	mem.SaveMusician(domain.Musician{ID: "m-a", Status: domain.MusicianStatusActive})
	store := &blockOverrideStore{
		MemoryStore: mem,
		blocks: &MockBlockRepository{
			FindActiveFunc: func(ctx context.Context, query repository.SlotQuery) ([]*domain.AvailabilityBlock, error) {
				return nil, errors.New("must not be called")
			},
		},
	}
	svc := NewOfferService(store, NewPricingService(store, nil, nil), nil)

	d, _ := domain.ParseDate(testDate)
	req := &domain.BookingRequest{
		LeaderID:  testLeader,
		EventDate: d,
		StartTime: domain.MustParseTimeOfDay("20:00"),
		EndTime:   domain.MustParseTimeOfDay("23:00"),
		Status:    domain.RequestStatusCancelled,
	}
	require.NoError(t, mem.Requests().Create(ctx, req))

	_, err := svc.CreateOffer(ctx, req.ID, "m-a", &dto.CreateOfferRequest{ProposedPrice: dec("1000")})
	assert.ErrorIs(t, err, domain.ErrRequestNotActive)
}

func TestSelectOffer_Cascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.request(t, testDate, "20:00", "23:00")

	a := offerOn(t, f, req.ID, "m-a", "1500")
	b := offerOn(t, f, req.ID, "m-b", "1300")
	c := offerOn(t, f, req.ID, "m-c", "1200")

	resp, err := f.offers.SelectOffer(ctx, a.ID, testLeader)
	require.NoError(t, err)

	assert.Equal(t, "selected", resp.Offer.Status)
	assert.ElementsMatch(t, []string{b.ID, c.ID}, resp.RejectedOfferIDs)
	assert.Equal(t, "accepted", resp.Request.Status)
	require.NotNil(t, resp.Request.MusicianID)
	assert.Equal(t, "m-a", *resp.Request.MusicianID)
	require.NotNil(t, resp.Request.AcceptedBy)
	assert.Equal(t, "m-a", *resp.Request.AcceptedBy)

	// 1500 - 15% commission - 100 fee - 18% tax
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "earning", resp.Transactions[0].Type)
	assert.True(t, dec("905").Equal(resp.Transactions[0].Amount), resp.Transactions[0].Amount.String())
	require.NotNil(t, resp.Transactions[0].OfferID)
	assert.Equal(t, a.ID, *resp.Transactions[0].OfferID)

	for _, id := range []string{b.ID, c.ID} {
		o, err := f.store.Offers().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.OfferStatusRejected, o.Status)
	}

	blocks, err := f.store.Blocks().FindActive(ctx, repository.SlotQuery{MusicianID: "m-a", Date: req.EventDate})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, req.ID, blocks[0].RequestID)

	msgs := f.pendingOutbox(t)
	assert.Equal(t, []string{"m-a"}, recipients(msgs, domain.EventOfferSelected))
	assert.ElementsMatch(t, []string{"m-b", "m-c"}, recipients(msgs, domain.EventOfferRejected))
}

func TestSelectOffer_Twice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.request(t, testDate, "20:00", "23:00")
	a := offerOn(t, f, req.ID, "m-a", "1500")
	offerOn(t, f, req.ID, "m-b", "1300")

	_, err := f.offers.SelectOffer(ctx, a.ID, testLeader)
	require.NoError(t, err)

	_, err = f.offers.SelectOffer(ctx, a.ID, testLeader)
	assert.ErrorIs(t, err, domain.ErrRequestNotActive)

	txs, err := f.store.Transactions().ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Len(t, recipients(f.pendingOutbox(t), domain.EventOfferRejected), 1)
}

func TestSelectOffer_NotLeader(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.request(t, testDate, "20:00", "23:00")
	a := offerOn(t, f, req.ID, "m-a", "1500")

	_, err := f.offers.SelectOffer(ctx, a.ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, domain.RequestStatusActive, f.reload(t, req.ID).Status)
}

func TestSelectOffer_RecheckRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.request(t, testDate, "20:00", "23:00")
	second := f.request(t, testDate, "21:00", "22:00")
	a1 := offerOn(t, f, first.ID, "m-a", "1500")
	a2 := offerOn(t, f, second.ID, "m-a", "900")
	offerOn(t, f, second.ID, "m-b", "950")

	_, err := f.offers.SelectOffer(ctx, a1.ID, testLeader)
	require.NoError(t, err)

	_, err = f.offers.SelectOffer(ctx, a2.ID, testLeader)
	assert.ErrorIs(t, err, domain.ErrMusicianUnavailable)

	assert.Equal(t, domain.RequestStatusActive, f.reload(t, second.ID).Status)
	o, err := f.store.Offers().GetByID(ctx, a2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusPending, o.Status)

	pending, err := f.store.Offers().List(ctx, repository.OfferFilter{RequestID: second.ID, Status: domain.OfferStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestSelectOffer_Bonus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d, _ := domain.ParseDate(testDate)
	req := &domain.BookingRequest{
		LeaderID:    testLeader,
		EventDate:   d,
		StartTime:   domain.MustParseTimeOfDay("20:00"),
		EndTime:     domain.MustParseTimeOfDay("22:00"),
		ExtraAmount: decimal.NewFromInt(200),
	}
	require.NoError(t, f.store.Requests().Create(ctx, req))
	a := offerOn(t, f, req.ID, "m-a", "1000")

	resp, err := f.offers.SelectOffer(ctx, a.ID, testLeader)
	require.NoError(t, err)

	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, "bonus", resp.Transactions[1].Type)
	assert.True(t, dec("200").Equal(resp.Transactions[1].Amount))
	assert.Equal(t, "m-a", resp.Transactions[1].UserID)
}

func TestRejectOffer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.request(t, testDate, "20:00", "23:00")
	a := offerOn(t, f, req.ID, "m-a", "1500")
	b := offerOn(t, f, req.ID, "m-b", "1300")

	_, err := f.offers.RejectOffer(ctx, b.ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	resp, err := f.offers.RejectOffer(ctx, b.ID, testLeader)
	require.NoError(t, err)
	assert.Equal(t, "rejected", resp.Status)
	assert.Equal(t, []string{"m-b"}, recipients(f.pendingOutbox(t), domain.EventOfferRejected))

	_, err = f.offers.RejectOffer(ctx, b.ID, testLeader)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.offers.SelectOffer(ctx, a.ID, testLeader)
	require.NoError(t, err)
	_, err = f.offers.RejectOffer(ctx, a.ID, testLeader)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAcceptRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.request(t, testDate, "20:00", "23:00")
	b := offerOn(t, f, req.ID, "m-b", "1300")

	resp, err := f.offers.AcceptRequest(ctx, req.ID, "m-a")
	require.NoError(t, err)

	assert.Nil(t, resp.Offer)
	assert.Equal(t, "accepted", resp.Request.Status)
	assert.Equal(t, []string{b.ID}, resp.RejectedOfferIDs)

	// 3h at the default 500/h
	assert.True(t, dec("1500").Equal(resp.Pricing.Subtotal))
	require.Len(t, resp.Transactions, 1)
	assert.True(t, dec("905").Equal(resp.Transactions[0].Amount))
	assert.Nil(t, resp.Transactions[0].OfferID)

	msgs := f.pendingOutbox(t)
	assert.Equal(t, []string{testLeader}, recipients(msgs, domain.EventRequestAccepted))
	assert.Equal(t, []string{"m-b"}, recipients(msgs, domain.EventOfferRejected))

	_, err = f.offers.AcceptRequest(ctx, req.ID, "m-c")
	assert.ErrorIs(t, err, domain.ErrRequestNotActive)
}

func TestAcceptRequest_DuplicateOffer(t *testing.T) {
	f := newFixture(t)
	req := f.request(t, testDate, "20:00", "23:00")
	offerOn(t, f, req.ID, "m-a", "1500")

	_, err := f.offers.AcceptRequest(context.Background(), req.ID, "m-a")
	assert.ErrorIs(t, err, domain.ErrDuplicateOffer)
	assert.Equal(t, domain.RequestStatusActive, f.reload(t, req.ID).Status)
}

func TestListOffers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.request(t, testDate, "20:00", "23:00")
	offerOn(t, f, req.ID, "m-a", "1500")
	b := offerOn(t, f, req.ID, "m-b", "1300")
	offerOn(t, f, req.ID, "m-c", "1200")
	_, err := f.offers.RejectOffer(ctx, b.ID, testLeader)
	require.NoError(t, err)

	all, err := f.offers.ListOffers(ctx, req.ID, testLeader, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Count)

	pending, err := f.offers.ListOffers(ctx, req.ID, testLeader, &dto.ListOffersQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 2, pending.Count)

	own, err := f.offers.ListOffers(ctx, req.ID, "m-b", &dto.ListOffersQuery{MusicianID: "m-a"})
	require.NoError(t, err)
	require.Equal(t, 1, own.Count)
	assert.Equal(t, "m-b", own.Offers[0].MusicianID)

	_, err = f.offers.ListOffers(ctx, req.ID, testLeader, &dto.ListOffersQuery{Status: "won"})
	assert.ErrorIs(t, err, domain.ErrInvalidOfferStatus)
}

// selectConcurrently releases every SelectOffer call at once and returns
// the errors in offerIDs order
func selectConcurrently(offers OfferService, leaderID string, offerIDs ...string) []error {
	errs := make([]error, len(offerIDs))
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i, id := range offerIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			<-start
			_, errs[i] = offers.SelectOffer(context.Background(), id, leaderID)
		}(i, id)
	}
	close(start)
	wg.Wait()
	return errs
}

// oneWinner asserts exactly one nil error and that every loser matches one of want
func oneWinner(t *testing.T, errs []error, want ...error) int {
	t.Helper()
	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "more than one selection succeeded")
			winner = i
			continue
		}
		matched := false
		for _, w := range want {
			if errors.Is(err, w) {
				matched = true
			}
		}
		assert.True(t, matched, "unexpected error: %v", err)
	}
	require.NotEqual(t, -1, winner, "no selection succeeded")
	return winner
}

func TestSelectOffer_ConcurrentOnSameRequest(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		req := f.request(t, testDate, "20:00", "23:00")
		a := offerOn(t, f, req.ID, "m-a", "1500")
		b := offerOn(t, f, req.ID, "m-b", "1300")
		c := offerOn(t, f, req.ID, "m-c", "1400")

		errs := selectConcurrently(f.offers, testLeader, a.ID, b.ID, c.ID)
		winner := oneWinner(t, errs, domain.ErrOfferNotPending, domain.ErrRequestNotActive)

		stored := f.reload(t, req.ID)
		assert.Equal(t, domain.RequestStatusAccepted, stored.Status)
		require.NotNil(t, stored.MusicianID)
		assert.Equal(t, []string{"m-a", "m-b", "m-c"}[winner], *stored.MusicianID)

		selected, err := f.store.Offers().List(ctx, repository.OfferFilter{RequestID: req.ID, Status: domain.OfferStatusSelected})
		require.NoError(t, err)
		assert.Len(t, selected, 1)

		txs, err := f.store.Transactions().ListByRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	}
}

func TestSelectOffer_ConcurrentOverlappingRequests(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		first := f.request(t, testDate, "20:00", "23:00")
		second := f.request(t, testDate, "21:00", "22:00")
		a1 := offerOn(t, f, first.ID, "m-a", "1500")
		a2 := offerOn(t, f, second.ID, "m-a", "900")

		errs := selectConcurrently(f.offers, testLeader, a1.ID, a2.ID)
		winner := oneWinner(t, errs, domain.ErrMusicianUnavailable)

		requests := []*domain.BookingRequest{first, second}
		assert.Equal(t, domain.RequestStatusAccepted, f.reload(t, requests[winner].ID).Status)
		assert.Equal(t, domain.RequestStatusActive, f.reload(t, requests[1-winner].ID).Status)

		blocks, err := f.store.Blocks().FindActive(ctx, repository.SlotQuery{MusicianID: "m-a", Date: first.EventDate})
		require.NoError(t, err)
		assert.Len(t, blocks, 1)
	}
}

// Integration test - requires PostgreSQL; exercises the row and advisory locks
func TestSelectOffer_ConcurrentPostgres_Integration(t *testing.T) {
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("Skipping integration test: TEST_POSTGRES_HOST not set")
	}

	ctx := context.Background()
	cfg := database.DefaultPostgresConfig()
	cfg.Host = host
	cfg.Password = os.Getenv("TEST_POSTGRES_PASSWORD")

	db, err := database.NewPostgres(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Migrate(ctx, migrations.FS)
	require.NoError(t, err)

	store := repository.NewPostgresStore(db.Pool())
	engine := &EngineConfig{
		Location:     time.UTC,
		TravelBuffer: domain.DefaultTravelBuffer,
		Clock:        func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) },
	}
	offers := NewOfferService(store, NewPricingService(store, nil, engine), engine)

	// ids are unique per run so earlier runs never collide on the calendar
	suffix := uuid.NewString()[:8]
	musician := func(name string) string {
		id := name + "-" + suffix
		require.NoError(t, store.Musicians().Upsert(ctx, &domain.Musician{ID: id, Status: domain.MusicianStatusActive}))
		return id
	}
	leader := "leader-" + suffix
	request := func(start, end string) *domain.BookingRequest {
		d, err := domain.ParseDate(testDate)
		require.NoError(t, err)
		req := &domain.BookingRequest{
			LeaderID:  leader,
			EventDate: d,
			StartTime: domain.MustParseTimeOfDay(start),
			EndTime:   domain.MustParseTimeOfDay(end),
		}
		require.NoError(t, store.Requests().Create(ctx, req))
		return req
	}
	offer := func(requestID, musicianID string) string {
		resp, err := offers.CreateOffer(ctx, requestID, musicianID, &dto.CreateOfferRequest{ProposedPrice: dec("1200")})
		require.NoError(t, err)
		return resp.ID
	}

	t.Run("same request", func(t *testing.T) {
		ma, mb := musician("pg-a"), musician("pg-b")
		req := request("20:00", "23:00")

		errs := selectConcurrently(offers, leader, offer(req.ID, ma), offer(req.ID, mb))
		oneWinner(t, errs, domain.ErrOfferNotPending, domain.ErrRequestNotActive)

		got, err := store.Requests().GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusAccepted, got.Status)
	})

	t.Run("overlapping requests", func(t *testing.T) {
		mc := musician("pg-c")
		first := request("20:00", "23:00")
		second := request("21:00", "22:00")

		errs := selectConcurrently(offers, leader, offer(first.ID, mc), offer(second.ID, mc))
		oneWinner(t, errs, domain.ErrMusicianUnavailable)

		blocks, err := store.Blocks().FindActive(ctx, repository.SlotQuery{MusicianID: mc, Date: first.EventDate})
		require.NoError(t, err)
		assert.Len(t, blocks, 1)
	})
}
