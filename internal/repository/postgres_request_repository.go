package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type postgresRequestRepository struct {
	q querier
}

const requestColumns = `
	id, leader_id, event_date, start_time, end_time, location,
	required_instrument, extra_amount::text, status, event_status,
	musician_id, accepted_by, started_at, completed_at, cancelled_at,
	cancellation_reason, penalty_percentage, penalty_tier, version,
	created_at, updated_at`

// Create inserts a new request
func (r *postgresRequestRepository) Create(ctx context.Context, req *domain.BookingRequest) error {
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

	query := `
		INSERT INTO booking_requests (
			id, leader_id, event_date, start_time, end_time, location,
			required_instrument, extra_amount, status, event_status,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12, $13
		)
	`

	_, err := r.q.Exec(ctx, query,
		req.ID,
		req.LeaderID,
		toPgDate(req.EventDate),
		toPgTime(req.StartTime),
		toPgTime(req.EndTime),
		req.Location,
		req.RequiredInstrument,
		req.ExtraAmount.String(),
		req.Status.String(),
		req.EventStatus.String(),
		req.Version,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by ID
func (r *postgresRequestRepository) GetByID(ctx context.Context, id string) (*domain.BookingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM booking_requests WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate retrieves a request and locks its row
func (r *postgresRequestRepository) GetForUpdate(ctx context.Context, id string) (*domain.BookingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM booking_requests WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *postgresRequestRepository) getOne(ctx context.Context, query, id string) (*domain.BookingRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get booking request: %w", err)
	}
	return req, nil
}

// FindCommittedSlots returns slots of requests the musician is committed to on a date
func (r *postgresRequestRepository) FindCommittedSlots(ctx context.Context, q SlotQuery) ([]domain.Slot, error) {
	query := `
		SELECT id, event_date, start_time, end_time
		FROM booking_requests
		WHERE musician_id = $1
		  AND event_date = $2
		  AND status IN ('accepted', 'completed')
		  AND ($3::text = '' OR id::text <> $3::text)
	`

	rows, err := r.q.Query(ctx, query, q.MusicianID, toPgDate(q.Date), q.ExcludeRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find committed slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var (
			s          domain.Slot
			start, end pgtype.Time
		)
		if err := rows.Scan(&s.RequestID, &s.Date, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan committed slot: %w", err)
		}
		s.Start = fromPgTime(start)
		s.End = fromPgTime(end)
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating committed slots: %w", err)
	}
	return slots, nil
}

// MarkAccepted moves an active request to accepted
func (r *postgresRequestRepository) MarkAccepted(ctx context.Context, requestID, musicianID string, at time.Time) error {
	query := `
		UPDATE booking_requests SET
			status = 'accepted',
			musician_id = $2,
			accepted_by = $2,
			version = version + 1,
			updated_at = $3
		WHERE id = $1 AND status = 'active' AND musician_id IS NULL
	`

	result, err := r.q.Exec(ctx, query, requestID, musicianID, at)
	if err != nil {
		return fmt.Errorf("failed to accept booking request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missOrConflict(ctx, requestID, domain.ErrRequestNotActive)
	}
	return nil
}

// TransitionEvent applies an event status compare-and-swap
func (r *postgresRequestRepository) TransitionEvent(ctx context.Context, t EventTransition) error {
	if !t.From.CanTransitionTo(t.To) {
		return domain.ErrInvalidTransition
	}

	var query string
	switch t.To {
	case domain.EventStatusStarted:
		query = `
			UPDATE booking_requests SET
				event_status = $3,
				started_at = $4,
				version = version + 1,
				updated_at = $4
			WHERE id = $1 AND event_status = $2 AND status = 'accepted'
		`
	case domain.EventStatusCompleted:
		query = `
			UPDATE booking_requests SET
				event_status = $3,
				completed_at = $4,
				status = CASE WHEN $5 THEN 'completed' ELSE status END,
				version = version + 1,
				updated_at = $4
			WHERE id = $1 AND event_status = $2 AND status = 'accepted'
		`
	default:
		return domain.ErrInvalidTransition
	}

	args := []any{t.RequestID, t.From.String(), t.To.String(), t.At}
	if t.To == domain.EventStatusCompleted {
		args = append(args, t.CompleteRequest)
	}

	result, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to transition event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missOrConflict(ctx, t.RequestID, domain.ErrInvalidTransition)
	}
	return nil
}

// Cancel moves a non-terminal request to cancelled
func (r *postgresRequestRepository) Cancel(ctx context.Context, t CancelTransition) error {
	query := `
		UPDATE booking_requests SET
			status = 'cancelled',
			event_status = 'cancelled',
			cancelled_at = $2,
			cancellation_reason = $3,
			penalty_percentage = $4,
			penalty_tier = $5,
			version = version + 1,
			updated_at = $2
		WHERE id = $1 AND status IN ('active', 'accepted')
	`

	result, err := r.q.Exec(ctx, query,
		t.RequestID,
		t.At,
		t.Reason,
		t.Penalty.Percentage,
		t.Penalty.Tier.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to cancel booking request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missOrConflict(ctx, t.RequestID, domain.ErrAlreadyTerminal)
	}
	return nil
}

// missOrConflict disambiguates a zero-row update
func (r *postgresRequestRepository) missOrConflict(ctx context.Context, id string, conflict error) error {
	var exists bool
	err := r.q.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM booking_requests WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check booking request existence: %w", err)
	}
	if !exists {
		return domain.ErrRequestNotFound
	}
	return conflict
}

func scanRequest(row pgx.Row) (*domain.BookingRequest, error) {
	var (
		req                  domain.BookingRequest
		start, end           pgtype.Time
		extra                string
		status, eventStatus  string
		location, instrument *string
		reason, tier         *string
		penalty              *int
	)

	err := row.Scan(
		&req.ID,
		&req.LeaderID,
		&req.EventDate,
		&start,
		&end,
		&location,
		&instrument,
		&extra,
		&status,
		&eventStatus,
		&req.MusicianID,
		&req.AcceptedBy,
		&req.StartedAt,
		&req.CompletedAt,
		&req.CancelledAt,
		&reason,
		&penalty,
		&tier,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.StartTime = fromPgTime(start)
	req.EndTime = fromPgTime(end)
	req.Location = nullableString(location)
	req.RequiredInstrument = nullableString(instrument)
	req.Status = domain.RequestStatus(status)
	req.EventStatus = domain.EventStatus(eventStatus)
	req.CancellationReason = nullableString(reason)
	req.PenaltyTier = domain.PenaltyTier(nullableString(tier))
	if penalty != nil {
		req.PenaltyPercentage = *penalty
	}
	if req.ExtraAmount, err = parseDecimal(extra); err != nil {
		return nil, err
	}
	return &req, nil
}
