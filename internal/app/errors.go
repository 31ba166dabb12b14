package app

import (
	"errors"

	"manufacturing-ledger/internal/core"
)

// Error codes reported to adapters.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidState      = "INVALID_STATE"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeValidation        = "VALIDATION_FAILED"
	CodeInvalidCorrection = "INVALID_CORRECTION"
	CodeInternal          = "INTERNAL"
)

// ErrorCode classifies err by the ledger error taxonomy.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, core.ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, core.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, core.ErrValidation):
		return CodeValidation
	case errors.Is(err, core.ErrInvalidCorrection):
		return CodeInvalidCorrection
	default:
		return CodeInternal
	}
}

// ExitCode is the process exit status for err: 0 on success, 2 for caller errors, 1 otherwise.
func ExitCode(err error) int {
	switch ErrorCode(err) {
	case "":
		return 0
	case CodeInternal:
		return 1
	default:
		return 2
	}
}
