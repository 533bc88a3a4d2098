package broker

import (
	"errors"
	"strings"
)

var (
	// ErrConnectivity means the brokerage could not be reached or refused
	// the credentials.
	ErrConnectivity = errors.New("brokerage unavailable")

	// ErrSymbolNotFound means the brokerage has no quote for a ticker.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrOrderRejected is matched by every *RejectionError.
	ErrOrderRejected = errors.New("order rejected")

	// ErrOrderNotCancelable means the order is already terminal or unknown.
	ErrOrderNotCancelable = errors.New("order not cancelable")

	// ErrDataUnavailable marks a single data point that could not be
	// fetched inside an aggregate computation.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrCapabilityUnsupported is returned by brokers that lack an
	// operation.
	ErrCapabilityUnsupported = errors.New("capability not supported by broker")
)

// RejectionCategory groups known rejection reasons so callers can show
// actionable guidance.
type RejectionCategory string

const (
	RejectionConflict       RejectionCategory = "conflict"
	RejectionQuantityLocked RejectionCategory = "quantity_locked"
	RejectionUnknown        RejectionCategory = "unknown"
)

// Hint returns user guidance for the category.
func (c RejectionCategory) Hint() string {
	switch c {
	case RejectionConflict:
		return "Conflicting order on the opposite side; check pending orders."
	case RejectionQuantityLocked:
		return "Shares are locked in pending orders."
	default:
		return "The brokerage rejected the order."
	}
}

// ClassifyRejection tags a brokerage rejection message.
func ClassifyRejection(msg string) RejectionCategory {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "wash trade"), strings.Contains(m, "opposite side"),
		strings.Contains(m, "while a long buy order is open"),
		strings.Contains(m, "while a short sell order is open"):
		return RejectionConflict
	case strings.Contains(m, "insufficient qty"):
		return RejectionQuantityLocked
	default:
		return RejectionUnknown
	}
}

// RejectionError carries the brokerage's rejection text unchanged.
type RejectionError struct {
	Reason   string
	Category RejectionCategory
	Err      error
}

// NewRejectionError classifies reason and wraps the underlying error.
func NewRejectionError(reason string, err error) *RejectionError {
	return &RejectionError{
		Reason:   reason,
		Category: ClassifyRejection(reason),
		Err:      err,
	}
}

func (e *RejectionError) Error() string {
	return "order rejected: " + e.Reason
}

// Is makes errors.Is(err, ErrOrderRejected) true.
func (e *RejectionError) Is(target error) bool {
	return target == ErrOrderRejected
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}
