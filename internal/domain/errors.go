package domain

import "github.com/pkg/errors"

var (
	// ErrEmptyUniverse no ranked symbol is tradeable against the quote currency.
	ErrEmptyUniverse = errors.New("target universe is empty")
	// ErrMissingCredentials required API credentials are not set.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidConfig run configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrPricing ticker could not be fetched or parsed.
	ErrPricing = errors.New("pricing failure")
	// ErrMarketNotFound pair has no market metadata.
	ErrMarketNotFound = errors.New("market not found")
)
