package domain

import "errors"

var (
	// Validation failures: caller-supplied data violated a documented domain
	// constraint. Fatal to the single call that supplied it.
	ErrInvalidPrice    = errors.New("price outside [1,99] cents")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidWeights  = errors.New("invalid scoring weights")

	// Infrastructure conditions.
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrContextDone = errors.New("context cancelled")
)
