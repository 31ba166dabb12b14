package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error taxonomy for ledger operations. Every guard is evaluated before the first write of a
// unit of work, so a returned error always means nothing was persisted.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidCorrection = errors.New("invalid cost correction")

	ErrInsufficientQuarantineStock = fmt.Errorf("%w in quarantine", ErrInsufficientStock)

	ErrAlreadyResolved  = fmt.Errorf("%w: inspection already resolved", ErrInvalidState)
	ErrAlreadyReceived  = fmt.Errorf("%w: purchase order already received", ErrInvalidState)
	ErrCancelled        = fmt.Errorf("%w: purchase order cancelled", ErrInvalidState)
	ErrAlreadyCompleted = fmt.Errorf("%w: production order already completed", ErrInvalidState)
)

func validationf(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, fmt.Sprintf(format, args...))
}

// checkScale rejects quantities with more decimal places than the ledger persists.
func checkScale(field string, q decimal.Decimal) error {
	if !q.Equal(q.Round(CostScale)) {
		return validationf(field, "%s has more than %d decimal places", q, CostScale)
	}
	return nil
}

func correctionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCorrection, fmt.Sprintf(format, args...))
}

func notFound(entity string, id int) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

// NotFoundError builds the error a Store returns when a row lookup misses.
func NotFoundError(entity string, id int) error {
	return notFound(entity, id)
}
