package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Model construction and scoring
	ErrInvalidOrder      = errors.New("n-gram order must be at least 1")
	ErrInvalidAlpha      = errors.New("smoothing alpha must be positive")
	ErrEmptyDistribution = errors.New("empty distribution for context")
	ErrZeroProbability   = errors.New("log of zero probability")
	ErrMaxLength         = errors.New("generated sentence exceeded max length")
)
