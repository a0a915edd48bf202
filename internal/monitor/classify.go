package monitor

import (
	"context"
	"errors"
	"net"

	"rig-mintbot/internal/controller"
)

type failureKind int

const (
	failureUnknown failureKind = iota
	failureAuthorization
	failureValidation
	failureGuard
	failureTransport
)

func (k failureKind) String() string {
	switch k {
	case failureAuthorization:
		return "authorization"
	case failureValidation:
		return "validation"
	case failureGuard:
		return "guard"
	case failureTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// classifyFailure buckets a failed call per the error taxonomy: authorization
// and validation faults are terminal for that call, guard failures are
// expected "not yet" outcomes, transport failures retry naturally on the next
// tick, and everything else is unknown.
func classifyFailure(err error) failureKind {
	switch {
	case err == nil:
		return failureUnknown
	case errors.Is(err, controller.ErrNotOwner), errors.Is(err, controller.ErrNotManager):
		return failureAuthorization
	case errors.Is(err, controller.ErrInvalidConfig), errors.Is(err, controller.ErrInvalidRecipient):
		return failureValidation
	case controller.IsGuardFailure(err):
		return failureGuard
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return failureTransport
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			return failureTransport
		}
		return failureUnknown
	}
}
