package monitor

import (
	"context"
	"fmt"
	"net"
	"testing"

	"rig-mintbot/internal/controller"
)

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want failureKind
	}{
		{"not manager", fmt.Errorf("execute: %w", controller.ErrNotManager), failureAuthorization},
		{"not owner", controller.ErrNotOwner, failureAuthorization},
		{"invalid config", fmt.Errorf("%w: bad bounds", controller.ErrInvalidConfig), failureValidation},
		{"invalid recipient", controller.ErrInvalidRecipient, failureValidation},
		{"disabled", controller.ErrMiningDisabled, failureGuard},
		{"cooldown", fmt.Errorf("%w: 42s remaining", controller.ErrCooldownActive), failureGuard},
		{"price", controller.ErrPriceTooHigh, failureGuard},
		{"gas", controller.ErrGasPriceTooHigh, failureGuard},
		{"balance", controller.ErrInsufficientBalance, failureGuard},
		{"amount", controller.ErrAmountOutOfRange, failureGuard},
		{"deadline", fmt.Errorf("spot price: %w", context.DeadlineExceeded), failureTransport},
		{"canceled", context.Canceled, failureTransport},
		{"net timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, failureTransport},
		{"unknown", fmt.Errorf("something odd"), failureUnknown},
		{"nil", nil, failureUnknown},
	}

	for _, tc := range cases {
		if got := classifyFailure(tc.err); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}
