// Package location acquires a device position through an external provider,
// bounding each attempt with a timeout and falling back once from the current
// position to the last known one.
package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nexttrip.rieles.app/internal/geo"
)

var (
	// ErrPermissionDenied is returned when the provider lacks a location grant.
	ErrPermissionDenied = errors.New("location access denied")

	// ErrUnavailable is returned when both the current and the last known
	// position attempts fail.
	ErrUnavailable = errors.New("location unavailable")
)

// Provider is the external positioning capability. Current may be slow and is
// always bounded by the caller's context; LastKnown is expected to return
// quickly with lower accuracy.
type Provider interface {
	PermissionGranted(ctx context.Context) (bool, error)
	Current(ctx context.Context) (geo.Coordinate, error)
	LastKnown(ctx context.Context) (geo.Coordinate, error)
}

// Acquire runs the acquisition ladder: permission check, current position
// with timeout, then exactly one last-known-position fallback with its own
// timeout.
func Acquire(ctx context.Context, provider Provider, timeout time.Duration, logger *slog.Logger) (geo.Coordinate, error) {
	granted, err := provider.PermissionGranted(ctx)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if !granted {
		return geo.Coordinate{}, ErrPermissionDenied
	}

	currentCtx, cancel := context.WithTimeout(ctx, timeout)
	position, err := provider.Current(currentCtx)
	cancel()
	if err == nil && geo.IsValid(position) {
		return position, nil
	}

	logger.Warn("current position failed, falling back to last known position",
		"timeout", timeout.String(), "error", errString(err))

	lastKnownCtx, cancel := context.WithTimeout(ctx, timeout)
	position, err = provider.LastKnown(lastKnownCtx)
	cancel()
	if err == nil && geo.IsValid(position) {
		return position, nil
	}

	if err != nil {
		logger.Error("last known position failed", "error", err.Error())
	}

	return geo.Coordinate{}, ErrUnavailable
}

func errString(err error) string {
	if err == nil {
		return "invalid coordinate"
	}
	return err.Error()
}

// Static is a Provider that always reports a fixed position. The HTTP API
// uses it to carry client-supplied coordinates through the session.
type Static struct {
	Position geo.Coordinate
}

func (s Static) PermissionGranted(ctx context.Context) (bool, error) {
	return true, nil
}

func (s Static) Current(ctx context.Context) (geo.Coordinate, error) {
	return s.Position, nil
}

func (s Static) LastKnown(ctx context.Context) (geo.Coordinate, error) {
	return s.Position, nil
}
