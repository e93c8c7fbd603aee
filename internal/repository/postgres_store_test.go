package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgTimeRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "09:30", "23:59:59"} {
		tod := domain.MustParseTimeOfDay(s)
		assert.Equal(t, tod, fromPgTime(toPgTime(tod)), s)
	}
}

func TestToPgDate_DropsClock(t *testing.T) {
	loc := time.FixedZone("AST", -4*3600)
	d := toPgDate(time.Date(2025, 6, 14, 22, 30, 0, 0, loc))
	assert.True(t, d.Valid)
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), d.Time)
}

func TestParseDecimal(t *testing.T) {
	d, err := parseDecimal("1234.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1234.5")))

	d, err = parseDecimal("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDecimal("abc")
	assert.Error(t, err)
}

// Integration test - requires a migrated PostgreSQL database
func TestPostgresStore_Integration(t *testing.T) {
	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("Skipping integration test: TEST_POSTGRES_HOST not set")
	}

	ctx := context.Background()
	cfg := database.DefaultPostgresConfig()
	cfg.Host = host

	db, err := database.NewPostgres(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db.Pool())
	req := newTestRequest(t, store, "leader-it")

	offer := &domain.Offer{RequestID: req.ID, MusicianID: "musician-it", ProposedPrice: decimal.NewFromInt(1500)}
	require.NoError(t, store.Offers().Create(ctx, offer))
	assert.ErrorIs(t, store.Offers().Create(ctx, &domain.Offer{
		RequestID:     req.ID,
		MusicianID:    "musician-it",
		ProposedPrice: decimal.NewFromInt(1400),
	}), domain.ErrDuplicateOffer)

	err = store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Requests().GetForUpdate(ctx, req.ID); err != nil {
			return err
		}
		if err := tx.Musicians().Lock(ctx, "musician-it"); err != nil {
			return err
		}
		if err := tx.Offers().MarkSelected(ctx, offer.ID, time.Now()); err != nil {
			return err
		}
		return tx.Requests().MarkAccepted(ctx, req.ID, "musician-it", time.Now())
	})
	require.NoError(t, err)

	got, err := store.Requests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusAccepted, got.Status)
	assert.Equal(t, req.StartTime, got.StartTime)

	slots, err := store.Requests().FindCommittedSlots(ctx, SlotQuery{MusicianID: "musician-it", Date: req.EventDate})
	require.NoError(t, err)
	assert.NotEmpty(t, slots)

	second := &domain.Offer{RequestID: req.ID, MusicianID: "musician-it-2", ProposedPrice: decimal.NewFromInt(1300)}
	require.NoError(t, store.Offers().Create(ctx, second))
	assert.ErrorIs(t, store.Offers().MarkSelected(ctx, second.ID, time.Now()), domain.ErrRequestNotActive)

	musicianID := "musician-it-" + req.ID
	require.NoError(t, store.Musicians().Upsert(ctx, &domain.Musician{ID: musicianID, Name: "Ana"}))
	require.NoError(t, store.Musicians().Upsert(ctx, &domain.Musician{ID: musicianID, Name: "Ana", Status: domain.MusicianStatusSuspended}))
	m, err := store.Musicians().GetByID(ctx, musicianID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", m.Name)
	assert.False(t, m.IsActive())
}
