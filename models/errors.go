package models

import "errors"

// Sentinel errors shared across services. HTTP-level failures carry a
// *transport.APIError instead; callers can test both with errors.Is/As.
var (
	// ErrInstrumentNotFound means every search strategy came back empty.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrSectorNotFound means a sector name resolved to no web id.
	ErrSectorNotFound = errors.New("sector not found")

	// ErrNoData means the source responded but produced no usable rows
	// for the requested instrument and period.
	ErrNoData = errors.New("no data available for the requested period")

	// ErrEmptyQuery means a search query was empty or too short after
	// normalization.
	ErrEmptyQuery = errors.New("search query must be at least 2 characters")

	// ErrInvalidDate means a Jalali date string failed validation.
	ErrInvalidDate = errors.New("invalid Jalali date")

	// ErrInvalidDateRange means start is after end.
	ErrInvalidDateRange = errors.New("start date must not be after end date")

	// ErrInvalidIndex means an unknown market index kind was requested.
	ErrInvalidIndex = errors.New("invalid market index kind")
)
