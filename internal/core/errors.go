package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for empty or oversized user text
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamFormat is returned when the generative endpoint answers outside the schema
	ErrUpstreamFormat = errors.New("unexpected upstream response format")
	// ErrUpstreamUnavailable is returned on timeouts, transport errors and non-2xx answers
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrConfiguration is returned when required settings are missing at startup
	ErrConfiguration = errors.New("invalid configuration")
	// ErrCacheMiss is returned by cache repositories when no live entry exists
	ErrCacheMiss = errors.New("cache entry not found")
)

// Unavailable wraps err as ErrUpstreamUnavailable unless it already is one
func Unavailable(service string, err error) error {
	if errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out: %w", ErrUpstreamUnavailable, service, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, service, err)
}
