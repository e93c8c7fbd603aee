package domain

import "errors"

// Domain errors
var (
	// Not found errors
	ErrRequestNotFound       = errors.New("booking request not found")
	ErrOfferNotFound         = errors.New("offer not found")
	ErrMusicianNotFound      = errors.New("musician not found")
	ErrPricingConfigNotFound = errors.New("no active pricing config")
	ErrOutboxMessageNotFound = errors.New("outbox message not found")

	// Validation errors
	ErrInvalidTimeRange     = errors.New("end time must be after start time")
	ErrInvalidTimeFormat    = errors.New("invalid time of day, expected HH:MM or HH:MM:SS")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRequestID     = errors.New("invalid request id")
	ErrInvalidOfferID       = errors.New("invalid offer id")
	ErrInvalidMusicianID    = errors.New("invalid musician id")
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrInvalidPrice         = errors.New("price must be greater than zero")
	ErrInvalidOfferStatus   = errors.New("invalid offer status")
	ErrInvalidRate          = errors.New("hourly rate must be greater than zero")
	ErrInvalidPricingConfig = errors.New("invalid pricing config")
	ErrHoursOutOfRange      = errors.New("booking duration is outside the allowed hour range")

	// Authorization errors
	ErrUnauthorized = errors.New("only the request leader can act on its offers")
	ErrForbidden    = errors.New("caller is not allowed to perform this action")

	// Conflict errors
	ErrRequestNotActive       = errors.New("request is no longer accepting offers")
	ErrDuplicateOffer         = errors.New("musician already made an offer on this request")
	ErrMusicianUnavailable    = errors.New("musician is not available for this time slot")
	ErrMusicianInactive       = errors.New("musician account is not active")
	ErrOfferNotPending        = errors.New("offer is no longer pending")
	ErrInvalidTransition      = errors.New("event cannot transition from its current state at this time")
	ErrAlreadyTerminal        = errors.New("request is already completed or cancelled")
	ErrRequestAlreadyFinished = errors.New("request has already finished")
	ErrConcurrentUpdate       = errors.New("record was modified concurrently")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrOfferNotFound) ||
		errors.Is(err, ErrMusicianNotFound) ||
		errors.Is(err, ErrPricingConfigNotFound) ||
		errors.Is(err, ErrOutboxMessageNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrInvalidTimeFormat) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidRequestID) ||
		errors.Is(err, ErrInvalidOfferID) ||
		errors.Is(err, ErrInvalidMusicianID) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidOfferStatus) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrInvalidPricingConfig) ||
		errors.Is(err, ErrHoursOutOfRange)
}

// IsAuthorizationError checks if the error is caused by the wrong actor
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrRequestNotActive) ||
		errors.Is(err, ErrDuplicateOffer) ||
		errors.Is(err, ErrMusicianUnavailable) ||
		errors.Is(err, ErrMusicianInactive) ||
		errors.Is(err, ErrOfferNotPending) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrAlreadyTerminal) ||
		errors.Is(err, ErrRequestAlreadyFinished) ||
		errors.Is(err, ErrConcurrentUpdate)
}
