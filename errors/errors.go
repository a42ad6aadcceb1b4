// Package errors provides error handling for the resample library.
//
// It re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Portable error encoding for merged distributed runs
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := draw(); err != nil {
//	    return errors.Wrap(err, "drawing resample indices")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrConfig) {
//	    // invalid caller options, abort before resampling
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Join combines multiple errors into one.
var Join = crdb.Join

// Sentinel errors for the bootstrap engine.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the kind.
var (
	// ErrConfig indicates an invalid combination of caller options.
	// Fatal: surfaced immediately, before any resampling starts.
	ErrConfig = New("invalid configuration")

	// ErrDataInference indicates the dataset could not be determined when
	// not supplied and not recoverable from the model. Fatal.
	ErrDataInference = New("cannot infer model data")

	// ErrFitFailure marks a single resample whose refit raised or produced
	// unusable output. Local to the resample: retried, never fatal by itself.
	ErrFitFailure = New("model refit failed")

	// ErrShape marks a resample whose coefficient extraction does not match
	// the base model's shape. Treated identically to ErrFitFailure for retries.
	ErrShape = New("coefficient shape mismatch")

	// ErrUnderPowered indicates too few successful resamples remained to
	// compute a requested quantile for some term. Surfaced per-term.
	ErrUnderPowered = New("too few successful resamples")
)

// IsConfigError checks if an error is or wraps ErrConfig.
func IsConfigError(err error) bool {
	return err != nil && Is(err, ErrConfig)
}

// IsFitFailure checks if an error is or wraps ErrFitFailure or ErrShape.
// Shape mismatches count as fit failures for retry purposes.
func IsFitFailure(err error) bool {
	return err != nil && IsAny(err, ErrFitFailure, ErrShape)
}

// IsShapeError checks if an error is or wraps ErrShape.
func IsShapeError(err error) bool {
	return err != nil && Is(err, ErrShape)
}

// IsUnderPowered checks if an error is or wraps ErrUnderPowered.
func IsUnderPowered(err error) bool {
	return err != nil && Is(err, ErrUnderPowered)
}

// NewConfigError creates a configuration error with a formatted message.
func NewConfigError(format string, args ...interface{}) error {
	return Wrap(ErrConfig, Newf(format, args...).Error())
}

// NewShapeError creates a shape error with a formatted message.
func NewShapeError(format string, args ...interface{}) error {
	return Wrap(ErrShape, Newf(format, args...).Error())
}

// WrapFitFailure wraps a refit error as a fit failure with context.
func WrapFitFailure(err error, context string) error {
	return Wrap(Wrap(ErrFitFailure, err.Error()), context)
}
