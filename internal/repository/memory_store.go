package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/google/uuid"
)

type memoryData struct {
	requests     map[string]domain.BookingRequest
	offers       map[string]domain.Offer
	offerOrder   []string
	blocks       []domain.AvailabilityBlock
	transactions []domain.Transaction
	pricing      []domain.PricingConfig
	musicians    map[string]domain.Musician
	outbox       []domain.OutboxMessage
}

func newMemoryData() *memoryData {
	return &memoryData{
		requests:  make(map[string]domain.BookingRequest),
		offers:    make(map[string]domain.Offer),
		musicians: make(map[string]domain.Musician),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.requests {
		c.requests[k] = v
	}
	for k, v := range d.offers {
		c.offers[k] = v
	}
	for k, v := range d.musicians {
		c.musicians[k] = v
	}
	c.offerOrder = append([]string(nil), d.offerOrder...)
	c.blocks = append([]domain.AvailabilityBlock(nil), d.blocks...)
	c.transactions = append([]domain.Transaction(nil), d.transactions...)
	c.pricing = append([]domain.PricingConfig(nil), d.pricing...)
	c.outbox = append([]domain.OutboxMessage(nil), d.outbox...)
	return c
}

// MemoryStore is an in-process Store. WithinTx holds a single lock for the
// whole callback, so transactions are fully serialised and rolled back by
// restoring a snapshot.
type MemoryStore struct {
	mu   *sync.Mutex
	data **memoryData
	inTx bool
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	data := newMemoryData()
	return &MemoryStore{mu: &sync.Mutex{}, data: &data}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) d() *memoryData {
	return *s.data
}

// WithinTx runs fn with the store locked and restores state if fn fails
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := (*s.data).clone()
	if err := fn(ctx, &MemoryStore{mu: s.mu, data: s.data, inTx: true}); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Requests() RequestRepository {
	return memoryRequests{s}
}

func (s *MemoryStore) Offers() OfferRepository {
	return memoryOffers{s}
}

func (s *MemoryStore) Blocks() BlockRepository {
	return memoryBlocks{s}
}

func (s *MemoryStore) Transactions() TransactionRepository {
	return memoryTransactions{s}
}

func (s *MemoryStore) PricingConfigs() PricingConfigRepository {
	return memoryPricing{s}
}

func (s *MemoryStore) Musicians() MusicianRepository {
	return memoryMusicians{s}
}

func (s *MemoryStore) Outbox() OutboxRepository {
	return memoryOutbox{s}
}

// SaveMusician upserts a musician into the directory projection
func (s *MemoryStore) SaveMusician(m domain.Musician) {
	defer s.lock()()
	s.d().musicians[m.ID] = m
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

type memoryRequests struct{ s *MemoryStore }

func (r memoryRequests) Create(_ context.Context, req *domain.BookingRequest) error {
	defer r.s.lock()()
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = domain.RequestStatusActive
	}
	if req.EventStatus == "" {
		req.EventStatus = domain.EventStatusNone
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	req.Version = 1
	r.s.d().requests[req.ID] = *req
	return nil
}

func (r memoryRequests) GetByID(_ context.Context, id string) (*domain.BookingRequest, error) {
	defer r.s.lock()()
	req, ok := r.s.d().requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return &req, nil
}

func (r memoryRequests) GetForUpdate(ctx context.Context, id string) (*domain.BookingRequest, error) {
	return r.GetByID(ctx, id)
}

func (r memoryRequests) FindCommittedSlots(_ context.Context, q SlotQuery) ([]domain.Slot, error) {
	defer r.s.lock()()
	var slots []domain.Slot
	for _, req := range r.s.d().requests {
		if req.ID == q.ExcludeRequestID || req.MusicianID == nil || *req.MusicianID != q.MusicianID {
			continue
		}
		if req.Status != domain.RequestStatusAccepted && req.Status != domain.RequestStatusCompleted {
			continue
		}
		if !domain.SameDate(req.EventDate, q.Date) {
			continue
		}
		slots = append(slots, req.Slot())
	}
	return slots, nil
}

func (r memoryRequests) MarkAccepted(_ context.Context, requestID, musicianID string, at time.Time) error {
	defer r.s.lock()()
	req, ok := r.s.d().requests[requestID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if req.Status != domain.RequestStatusActive || req.MusicianID != nil {
		return domain.ErrRequestNotActive
	}
	m, a := musicianID, musicianID
	req.Status = domain.RequestStatusAccepted
	req.MusicianID = &m
	req.AcceptedBy = &a
	req.Version++
	req.UpdatedAt = at
	r.s.d().requests[requestID] = req
	return nil
}

func (r memoryRequests) TransitionEvent(_ context.Context, t EventTransition) error {
	defer r.s.lock()()
	req, ok := r.s.d().requests[t.RequestID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if !t.From.CanTransitionTo(t.To) || req.EventStatus != t.From || req.Status != domain.RequestStatusAccepted {
		return domain.ErrInvalidTransition
	}
	at := t.At
	switch t.To {
	case domain.EventStatusStarted:
		req.StartedAt = &at
	case domain.EventStatusCompleted:
		req.CompletedAt = &at
		if t.CompleteRequest {
			req.Status = domain.RequestStatusCompleted
		}
	default:
		return domain.ErrInvalidTransition
	}
	req.EventStatus = t.To
	req.Version++
	req.UpdatedAt = at
	r.s.d().requests[t.RequestID] = req
	return nil
}

func (r memoryRequests) Cancel(_ context.Context, t CancelTransition) error {
	defer r.s.lock()()
	req, ok := r.s.d().requests[t.RequestID]
	if !ok {
		return domain.ErrRequestNotFound
	}
	if req.Status.IsTerminal() {
		return domain.ErrAlreadyTerminal
	}
	at := t.At
	req.Status = domain.RequestStatusCancelled
	req.EventStatus = domain.EventStatusCancelled
	req.CancelledAt = &at
	req.CancellationReason = t.Reason
	req.PenaltyPercentage = t.Penalty.Percentage
	req.PenaltyTier = t.Penalty.Tier
	req.Version++
	req.UpdatedAt = at
	r.s.d().requests[t.RequestID] = req
	return nil
}

type memoryOffers struct{ s *MemoryStore }

func (r memoryOffers) Create(_ context.Context, offer *domain.Offer) error {
	defer r.s.lock()()
	for _, id := range r.s.d().offerOrder {
		o := r.s.d().offers[id]
		if o.RequestID == offer.RequestID && o.MusicianID == offer.MusicianID {
			return domain.ErrDuplicateOffer
		}
	}
	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	if offer.Status == "" {
		offer.Status = domain.OfferStatusPending
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now()
	}
	offer.UpdatedAt = offer.CreatedAt
	r.s.d().offers[offer.ID] = *offer
	r.s.d().offerOrder = append(r.s.d().offerOrder, offer.ID)
	return nil
}

func (r memoryOffers) GetByID(_ context.Context, id string) (*domain.Offer, error) {
	defer r.s.lock()()
	o, ok := r.s.d().offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	return &o, nil
}

func (r memoryOffers) List(_ context.Context, f OfferFilter) ([]*domain.Offer, error) {
	defer r.s.lock()()
	return r.filter(func(o domain.Offer) bool {
		return (f.RequestID == "" || o.RequestID == f.RequestID) &&
			(f.MusicianID == "" || o.MusicianID == f.MusicianID) &&
			(f.Status == "" || o.Status == f.Status)
	}, f.Limit), nil
}

func (r memoryOffers) filter(match func(domain.Offer) bool, limit int) []*domain.Offer {
	var out []*domain.Offer
	for _, id := range r.s.d().offerOrder {
		o := r.s.d().offers[id]
		if !match(o) {
			continue
		}
		out = append(out, &o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (r memoryOffers) ExistsForMusician(_ context.Context, requestID, musicianID string) (bool, error) {
	defer r.s.lock()()
	found := r.filter(func(o domain.Offer) bool {
		return o.RequestID == requestID && o.MusicianID == musicianID
	}, 1)
	return len(found) > 0, nil
}

// MarkSelected refuses a second selected offer on the same request, like
// the partial unique index on offers
func (r memoryOffers) MarkSelected(_ context.Context, offerID string, at time.Time) error {
	defer r.s.lock()()
	if o, ok := r.s.d().offers[offerID]; ok && o.Status == domain.OfferStatusPending {
		for _, other := range r.s.d().offers {
			if other.RequestID == o.RequestID && other.Status == domain.OfferStatusSelected {
				return domain.ErrRequestNotActive
			}
		}
	}
	return r.transition(offerID, domain.OfferStatusSelected, at)
}

func (r memoryOffers) Reject(_ context.Context, offerID string, at time.Time) error {
	defer r.s.lock()()
	return r.transition(offerID, domain.OfferStatusRejected, at)
}

func (r memoryOffers) transition(offerID string, to domain.OfferStatus, at time.Time) error {
	o, ok := r.s.d().offers[offerID]
	if !ok {
		return domain.ErrOfferNotFound
	}
	if o.Status != domain.OfferStatusPending {
		return domain.ErrOfferNotPending
	}
	o.Status = to
	o.UpdatedAt = at
	r.s.d().offers[offerID] = o
	return nil
}

func (r memoryOffers) RejectSiblings(_ context.Context, requestID, selectedOfferID string, at time.Time) ([]*domain.Offer, error) {
	defer r.s.lock()()
	return r.rejectWhere(func(o domain.Offer) bool {
		return o.RequestID == requestID && o.ID != selectedOfferID
	}, at), nil
}

func (r memoryOffers) RejectPendingByRequest(_ context.Context, requestID string, at time.Time) ([]*domain.Offer, error) {
	defer r.s.lock()()
	return r.rejectWhere(func(o domain.Offer) bool { return o.RequestID == requestID }, at), nil
}

func (r memoryOffers) rejectWhere(match func(domain.Offer) bool, at time.Time) []*domain.Offer {
	var rejected []*domain.Offer
	for _, id := range r.s.d().offerOrder {
		o := r.s.d().offers[id]
		if o.Status != domain.OfferStatusPending || !match(o) {
			continue
		}
		o.Status = domain.OfferStatusRejected
		o.UpdatedAt = at
		r.s.d().offers[id] = o
		cp := o
		rejected = append(rejected, &cp)
	}
	return rejected
}

func (r memoryOffers) FindSelected(_ context.Context, requestID string) (*domain.Offer, error) {
	defer r.s.lock()()
	found := r.filter(func(o domain.Offer) bool {
		return o.RequestID == requestID && o.Status == domain.OfferStatusSelected
	}, 1)
	if len(found) == 0 {
		return nil, domain.ErrOfferNotFound
	}
	return found[0], nil
}

type memoryBlocks struct{ s *MemoryStore }

func (r memoryBlocks) Create(_ context.Context, block *domain.AvailabilityBlock) error {
	defer r.s.lock()()
	if block.ID == "" {
		block.ID = uuid.New().String()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now()
	}
	r.s.d().blocks = append(r.s.d().blocks, *block)
	return nil
}

func (r memoryBlocks) FindActive(_ context.Context, q SlotQuery) ([]*domain.AvailabilityBlock, error) {
	defer r.s.lock()()
	var out []*domain.AvailabilityBlock
	for _, b := range r.s.d().blocks {
		if b.MusicianID != q.MusicianID || !b.IsActive() || (q.ExcludeRequestID != "" && b.RequestID == q.ExcludeRequestID) {
			continue
		}
		if !domain.SameDate(b.Date, q.Date) {
			continue
		}
		cp := b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r memoryBlocks) ReleaseByRequest(_ context.Context, requestID string, at time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	blocks := r.s.d().blocks
	for i := range blocks {
		if blocks[i].RequestID == requestID && blocks[i].ReleasedAt == nil {
			released := at
			blocks[i].ReleasedAt = &released
			n++
		}
	}
	return n, nil
}

type memoryTransactions struct{ s *MemoryStore }

func (r memoryTransactions) Create(_ context.Context, tx *domain.Transaction) error {
	defer r.s.lock()()
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	r.s.d().transactions = append(r.s.d().transactions, *tx)
	return nil
}

func (r memoryTransactions) ListByRequest(_ context.Context, requestID string) ([]*domain.Transaction, error) {
	defer r.s.lock()()
	var out []*domain.Transaction
	for _, t := range r.s.d().transactions {
		if t.RequestID != nil && *t.RequestID == requestID {
			cp := t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memoryPricing struct{ s *MemoryStore }

func (r memoryPricing) GetActive(_ context.Context) (*domain.PricingConfig, error) {
	defer r.s.lock()()
	for _, c := range r.s.d().pricing {
		if c.IsActive {
			cp := c
			return &cp, nil
		}
	}
	return nil, domain.ErrPricingConfigNotFound
}

func (r memoryPricing) Activate(_ context.Context, cfg *domain.PricingConfig) error {
	defer r.s.lock()()
	current := 0
	configs := r.s.d().pricing
	for i := range configs {
		configs[i].IsActive = false
		if configs[i].Version > current {
			current = configs[i].Version
		}
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}
	cfg.Version = current + 1
	cfg.IsActive = true
	r.s.d().pricing = append(configs, *cfg)
	return nil
}

func (r memoryPricing) ListHistory(_ context.Context, limit int) ([]*domain.PricingConfig, error) {
	defer r.s.lock()()
	configs := r.s.d().pricing
	var out []*domain.PricingConfig
	for i := len(configs) - 1; i >= 0; i-- {
		cp := configs[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memoryMusicians struct{ s *MemoryStore }

func (r memoryMusicians) GetByID(_ context.Context, id string) (*domain.Musician, error) {
	defer r.s.lock()()
	m, ok := r.s.d().musicians[id]
	if !ok {
		return nil, domain.ErrMusicianNotFound
	}
	return &m, nil
}

func (r memoryMusicians) Upsert(_ context.Context, m *domain.Musician) error {
	if m == nil || m.ID == "" {
		return domain.ErrInvalidMusicianID
	}
	defer r.s.lock()()
	r.s.d().musicians[m.ID] = *m
	return nil
}

// Lock is a no-op: WithinTx already serialises every transaction
func (r memoryMusicians) Lock(context.Context, string) error {
	return nil
}

type memoryOutbox struct{ s *MemoryStore }

func (r memoryOutbox) Create(_ context.Context, msg *domain.OutboxMessage) error {
	defer r.s.lock()()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	r.s.d().outbox = append(r.s.d().outbox, *msg)
	return nil
}

func (r memoryOutbox) GetPendingMessages(_ context.Context, limit int) ([]*domain.OutboxMessage, error) {
	defer r.s.lock()()
	return r.collect(func(m domain.OutboxMessage) bool { return m.Status == domain.OutboxStatusPending }, limit), nil
}

func (r memoryOutbox) GetFailedMessages(_ context.Context, limit int) ([]*domain.OutboxMessage, error) {
	defer r.s.lock()()
	return r.collect(func(m domain.OutboxMessage) bool { return m.CanRetry() }, limit), nil
}

func (r memoryOutbox) collect(match func(domain.OutboxMessage) bool, limit int) []*domain.OutboxMessage {
	var out []*domain.OutboxMessage
	for _, m := range r.s.d().outbox {
		if !match(m) {
			continue
		}
		cp := m
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (r memoryOutbox) MarkAsPublished(_ context.Context, id string) error {
	defer r.s.lock()()
	return r.update(id, func(m *domain.OutboxMessage) { m.MarkAsPublished(time.Now()) })
}

func (r memoryOutbox) MarkAsFailed(_ context.Context, id string, errMsg string) error {
	defer r.s.lock()()
	return r.update(id, func(m *domain.OutboxMessage) { m.MarkAsFailed(errMsg, time.Now()) })
}

func (r memoryOutbox) update(id string, fn func(*domain.OutboxMessage)) error {
	msgs := r.s.d().outbox
	for i := range msgs {
		if msgs[i].ID == id {
			fn(&msgs[i])
			return nil
		}
	}
	return domain.ErrOutboxMessageNotFound
}

func (r memoryOutbox) DeletePublished(_ context.Context, olderThan time.Duration) (int64, error) {
	defer r.s.lock()()
	cutoff := time.Now().Add(-olderThan)
	kept := r.s.d().outbox[:0]
	var n int64
	for _, m := range r.s.d().outbox {
		if m.Status == domain.OutboxStatusPublished && m.PublishedAt != nil && m.PublishedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.s.d().outbox = kept
	return n, nil
}
