package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotConfigured marks a source whose credentials are absent
	ErrNotConfigured = errors.New("source not configured")

	// ErrSourceFailure is returned when an upstream supplier source request fails
	ErrSourceFailure = errors.New("supplier source request failed")

	// ErrMalformedPayload is returned when a source response cannot be decoded
	ErrMalformedPayload = errors.New("malformed source payload")

	// ErrMalformedEstimate is returned when a model response holds no usable JSON array
	ErrMalformedEstimate = errors.New("malformed model estimate")

	// ErrPoolClosed is returned when acquiring from a shut down resource pool
	ErrPoolClosed = errors.New("resource pool closed")
)
