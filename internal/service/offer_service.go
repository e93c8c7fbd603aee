package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/dto"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/metrics"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/repository"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultOfferListLimit = 50

// OfferService defines the interface for the offer lifecycle
type OfferService interface {
	// CreateOffer records a pending offer by musicianID on an active request
	CreateOffer(ctx context.Context, requestID, musicianID string, req *dto.CreateOfferRequest) (*dto.OfferResponse, error)

	// SelectOffer commits the offer's musician to the request and rejects every other offer
	SelectOffer(ctx context.Context, offerID, leaderID string) (*dto.CommitmentResponse, error)

	// RejectOffer rejects a single pending offer
	RejectOffer(ctx context.Context, offerID, leaderID string) (*dto.OfferResponse, error)

	// AcceptRequest commits musicianID to the request without an offer
	AcceptRequest(ctx context.Context, requestID, musicianID string) (*dto.CommitmentResponse, error)

	// ListOffers lists a request's offers. Leaders see all of them,
	// anyone else only their own.
	ListOffers(ctx context.Context, requestID, callerID string, query *dto.ListOffersQuery) (*dto.ListOffersResponse, error)
}

// offerService implements OfferService
type offerService struct {
	store   repository.Store
	pricing PricingService
	checker *availabilityChecker
	clock   func() time.Time
	log     *logger.Logger
}

// NewOfferService creates a new offer service
func NewOfferService(store repository.Store, pricing PricingService, cfg *EngineConfig) OfferService {
	c := normalizeEngineConfig(cfg)
	return &offerService{
		store:   store,
		pricing: pricing,
		checker: &availabilityChecker{buffer: c.TravelBuffer, log: c.Logger},
		clock:   c.Clock,
		log:     c.Logger,
	}
}

// CreateOffer runs the gates in order: request active, no duplicate,
// musician active, musician available.
func (s *offerService) CreateOffer(ctx context.Context, requestID, musicianID string, req *dto.CreateOfferRequest) (resp *dto.OfferResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.offer.create")
	defer span.End()
	defer func() { metrics.RecordOfferTransition("create", err) }()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}
	if musicianID == "" {
		return nil, failSpan(span, domain.ErrInvalidMusicianID, "invalid musician_id")
	}
	if req == nil || !req.ProposedPrice.IsPositive() {
		return nil, failSpan(span, domain.ErrInvalidPrice, "invalid proposed_price")
	}

	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("musician_id", musicianID),
	)

	booking, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, failSpan(span, err, "request lookup failed")
	}
	if err := s.gate(ctx, s.store, booking, musicianID); err != nil {
		return nil, failSpan(span, err, "offer rejected")
	}

	now := s.clock()
	offer := &domain.Offer{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		MusicianID:    musicianID,
		ProposedPrice: req.ProposedPrice,
		Message:       req.Message,
		Status:        domain.OfferStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := offer.Validate(); err != nil {
		return nil, failSpan(span, err, "invalid offer")
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Offers().Create(ctx, offer); err != nil {
			return err
		}
		var batch outboxBatch
		batch.add(domain.OfferNotification(domain.EventOfferCreated, booking.LeaderID, offer))
		return batch.flush(ctx, tx)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOffer) {
			return nil, failSpan(span, err, "duplicate offer")
		}
		return nil, failSpan(span, fmt.Errorf("failed to create offer: %w", err), "create failed")
	}

	span.SetAttributes(attribute.String("offer_id", offer.ID))
	return dto.OfferFromDomain(offer), nil
}

// gate applies the checks shared by offer creation and direct acceptance
func (s *offerService) gate(ctx context.Context, store repository.Store, booking *domain.BookingRequest, musicianID string) error {
	if booking.Status != domain.RequestStatusActive {
		return domain.ErrRequestNotActive
	}
	if booking.IsLeader(musicianID) {
		return domain.ErrForbidden
	}

	exists, err := store.Offers().ExistsForMusician(ctx, booking.ID, musicianID)
	if err != nil {
		return fmt.Errorf("failed to check existing offers: %w", err)
	}
	if exists {
		return domain.ErrDuplicateOffer
	}

	musician, err := store.Musicians().GetByID(ctx, musicianID)
	if err != nil {
		if errors.Is(err, domain.ErrMusicianNotFound) {
			return domain.ErrMusicianInactive
		}
		return fmt.Errorf("failed to load musician: %w", err)
	}
	if !musician.IsActive() {
		return domain.ErrMusicianInactive
	}

	return s.ensureAvailable(ctx, store, musicianID, booking)
}

func (s *offerService) ensureAvailable(ctx context.Context, store repository.Store, musicianID string, booking *domain.BookingRequest) error {
	result, err := s.checker.evaluate(ctx, store, musicianID, booking.Slot())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMusicianUnavailable, err)
	}
	if !result.IsAvailable {
		return domain.ErrMusicianUnavailable
	}
	return nil
}

// SelectOffer runs the selection cascade in one transaction
func (s *offerService) SelectOffer(ctx context.Context, offerID, leaderID string) (resp *dto.CommitmentResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.offer.select")
	defer span.End()
	defer metrics.ObserveDuration("offer.select", time.Now())
	defer func() { metrics.RecordOfferTransition("select", err) }()

	if offerID == "" {
		return nil, failSpan(span, domain.ErrInvalidOfferID, "invalid offer_id")
	}
	if leaderID == "" {
		return nil, failSpan(span, domain.ErrInvalidUserID, "invalid leader_id")
	}
	span.SetAttributes(
		attribute.String("offer_id", offerID),
		attribute.String("leader_id", leaderID),
	)

	cfg, err := s.pricing.ActiveConfig(ctx)
	if err != nil {
		return nil, failSpan(span, err, "pricing config unavailable")
	}

	var result *commitment
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		offer, err := tx.Offers().GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		booking, err := tx.Requests().GetForUpdate(ctx, offer.RequestID)
		if err != nil {
			return err
		}
		if !booking.IsLeader(leaderID) {
			return domain.ErrUnauthorized
		}
		if booking.Status != domain.RequestStatusActive {
			return domain.ErrRequestNotActive
		}
		if !offer.IsPending() {
			return domain.ErrOfferNotPending
		}

		hours := domain.HoursBetween(booking.StartTime, booking.EndTime)
		calc := domain.SplitAmount(offer.ProposedPrice, hours, cfg)

		result, err = s.commit(ctx, tx, booking, offer.MusicianID, offer, calc)
		return err
	})
	if err != nil {
		return nil, failSpan(span, err, "selection failed")
	}

	s.log.Info("offer selected",
		zap.String("offer_id", offerID),
		zap.String("request_id", result.request.ID),
		zap.String("musician_id", result.musicianID),
		zap.Int("rejected", len(result.rejected)),
	)
	return result.response(), nil
}

// AcceptRequest commits a musician directly, priced from the request's window
func (s *offerService) AcceptRequest(ctx context.Context, requestID, musicianID string) (resp *dto.CommitmentResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.offer.accept_request")
	defer span.End()
	defer metrics.ObserveDuration("offer.accept_request", time.Now())
	defer func() { metrics.RecordOfferTransition("accept", err) }()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}
	if musicianID == "" {
		return nil, failSpan(span, domain.ErrInvalidMusicianID, "invalid musician_id")
	}
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("musician_id", musicianID),
	)

	cfg, err := s.pricing.ActiveConfig(ctx)
	if err != nil {
		return nil, failSpan(span, err, "pricing config unavailable")
	}

	var result *commitment
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		booking, err := tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := s.gate(ctx, tx, booking, musicianID); err != nil {
			return err
		}

		calc, err := domain.CalculatePrice(booking.StartTime, booking.EndTime, nil, cfg)
		if err != nil {
			return err
		}

		result, err = s.commit(ctx, tx, booking, musicianID, nil, calc)
		return err
	})
	if err != nil {
		return nil, failSpan(span, err, "acceptance failed")
	}

	s.log.Info("request accepted",
		zap.String("request_id", requestID),
		zap.String("musician_id", musicianID),
	)
	return result.response(), nil
}

// commitment is the outcome of committing a musician to a request
type commitment struct {
	request      *domain.BookingRequest
	musicianID   string
	offer        *domain.Offer
	rejected     []*domain.Offer
	transactions []*domain.Transaction
	calc         *domain.PriceCalculation
}

func (c *commitment) response() *dto.CommitmentResponse {
	resp := &dto.CommitmentResponse{
		Request:          dto.RequestFromDomain(c.request),
		RejectedOfferIDs: offerIDs(c.rejected),
		Pricing:          dto.PriceFromDomain(c.calc),
	}
	if c.offer != nil {
		resp.Offer = dto.OfferFromDomain(c.offer)
	}
	for _, t := range c.transactions {
		resp.Transactions = append(resp.Transactions, dto.TransactionFromDomain(t))
	}
	return resp
}

// commit is the winner-take-all cascade. The caller holds the request row
// lock; commit takes the musician lock and re-checks availability before
// any write. offer is nil for direct acceptance.
func (s *offerService) commit(
	ctx context.Context,
	tx repository.Store,
	booking *domain.BookingRequest,
	musicianID string,
	offer *domain.Offer,
	calc *domain.PriceCalculation,
) (*commitment, error) {
	if err := tx.Musicians().Lock(ctx, musicianID); err != nil {
		return nil, fmt.Errorf("failed to lock musician: %w", err)
	}
	if err := s.ensureAvailable(ctx, tx, musicianID, booking); err != nil {
		return nil, err
	}

	now := s.clock()
	out := &commitment{musicianID: musicianID, calc: calc}

	var offerID *string
	if offer != nil {
		if err := tx.Offers().MarkSelected(ctx, offer.ID, now); err != nil {
			return nil, err
		}
		rejected, err := tx.Offers().RejectSiblings(ctx, booking.ID, offer.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to reject sibling offers: %w", err)
		}
		out.rejected = rejected

		selected := *offer
		selected.Status = domain.OfferStatusSelected
		selected.UpdatedAt = now
		out.offer = &selected
		offerID = &selected.ID
	} else {
		rejected, err := tx.Offers().RejectPendingByRequest(ctx, booking.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to reject pending offers: %w", err)
		}
		out.rejected = rejected
	}

	if err := tx.Requests().MarkAccepted(ctx, booking.ID, musicianID, now); err != nil {
		return nil, err
	}
	if err := tx.Blocks().Create(ctx, domain.NewAvailabilityBlock(musicianID, booking, now)); err != nil {
		return nil, fmt.Errorf("failed to block calendar: %w", err)
	}

	out.transactions = append(out.transactions,
		domain.NewEarning(musicianID, booking.ID, offerID, calc.MusicianEarnings, calc.Currency, now))
	if booking.ExtraAmount.IsPositive() {
		out.transactions = append(out.transactions,
			domain.NewBonus(musicianID, booking.ID, booking.ExtraAmount, calc.Currency, now))
	}
	for _, t := range out.transactions {
		if err := tx.Transactions().Create(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to post %s transaction: %w", t.Type, err)
		}
	}

	updated, err := tx.Requests().GetByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	out.request = updated

	var batch outboxBatch
	if out.offer != nil {
		batch.add(domain.OfferNotification(domain.EventOfferSelected, musicianID, out.offer))
	} else {
		batch.add(domain.RequestNotification(domain.EventRequestAccepted, updated.LeaderID, updated, map[string]interface{}{
			"musician_id": musicianID,
		}))
	}
	for _, r := range out.rejected {
		batch.add(domain.OfferNotification(domain.EventOfferRejected, r.MusicianID, r))
	}
	if err := batch.flush(ctx, tx); err != nil {
		return nil, err
	}

	return out, nil
}

// RejectOffer rejects one pending offer on an active request
func (s *offerService) RejectOffer(ctx context.Context, offerID, leaderID string) (resp *dto.OfferResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.offer.reject")
	defer span.End()
	defer func() { metrics.RecordOfferTransition("reject", err) }()

	if offerID == "" {
		return nil, failSpan(span, domain.ErrInvalidOfferID, "invalid offer_id")
	}
	if leaderID == "" {
		return nil, failSpan(span, domain.ErrInvalidUserID, "invalid leader_id")
	}
	span.SetAttributes(attribute.String("offer_id", offerID))

	var rejected *domain.Offer
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		offer, err := tx.Offers().GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		booking, err := tx.Requests().GetForUpdate(ctx, offer.RequestID)
		if err != nil {
			return err
		}
		if !booking.IsLeader(leaderID) {
			return domain.ErrUnauthorized
		}
		if booking.Status != domain.RequestStatusActive || !offer.IsPending() {
			return domain.ErrInvalidTransition
		}

		now := s.clock()
		if err := tx.Offers().Reject(ctx, offer.ID, now); err != nil {
			if errors.Is(err, domain.ErrOfferNotPending) {
				return domain.ErrInvalidTransition
			}
			return err
		}
		offer.Status = domain.OfferStatusRejected
		offer.UpdatedAt = now
		rejected = offer

		var batch outboxBatch
		batch.add(domain.OfferNotification(domain.EventOfferRejected, offer.MusicianID, offer))
		return batch.flush(ctx, tx)
	})
	if err != nil {
		return nil, failSpan(span, err, "reject failed")
	}

	return dto.OfferFromDomain(rejected), nil
}

// ListOffers lists offers on a request visible to callerID
func (s *offerService) ListOffers(ctx context.Context, requestID, callerID string, query *dto.ListOffersQuery) (*dto.ListOffersResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.offer.list")
	defer span.End()

	if requestID == "" {
		return nil, failSpan(span, domain.ErrInvalidRequestID, "invalid request_id")
	}
	if callerID == "" {
		return nil, failSpan(span, domain.ErrInvalidUserID, "invalid user_id")
	}

	booking, err := s.store.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, failSpan(span, err, "request lookup failed")
	}

	filter := repository.OfferFilter{RequestID: requestID, Limit: defaultOfferListLimit}
	if query != nil {
		filter.MusicianID = query.MusicianID
		if query.Status != "" {
			status := domain.OfferStatus(query.Status)
			if !status.IsValid() {
				return nil, failSpan(span, domain.ErrInvalidOfferStatus, "invalid status filter")
			}
			filter.Status = status
		}
		if query.Limit > 0 {
			filter.Limit = query.Limit
		}
	}
	if !booking.IsLeader(callerID) {
		filter.MusicianID = callerID
	}

	offers, err := s.store.Offers().List(ctx, filter)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("failed to list offers: %w", err), "list failed")
	}

	return &dto.ListOffersResponse{
		Offers: dto.OffersFromDomain(offers),
		Count:  len(offers),
	}, nil
}
