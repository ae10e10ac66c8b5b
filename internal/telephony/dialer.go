package telephony

import (
	"context"
	"errors"
)

var (
	// ErrInvalidNumber is a synchronous validation failure. No network call
	// is made and no call record should be created for the attempt.
	ErrInvalidNumber = errors.New("telephony: invalid phone number")

	// ErrTransientDial covers provider-side placement failures (auth, rate
	// limit, network, timeout). The dispatcher treats it as an immediately
	// terminal failed attempt; retry is an explicit operator action.
	ErrTransientDial = errors.New("telephony: transient dial failure")
)

// PlaceCallRequest carries everything the provider needs to place one
// outbound call. RecordID is our call record id, echoed back through
// callback URLs so webhooks can be correlated before the provider id
// is known.
type PlaceCallRequest struct {
	To       string
	RecordID string
}

// Dialer places outbound calls with the external telephony provider.
//
// PlaceCall returns the provider-assigned call id. Implementations must
// bound the placement round-trip: a hung provider must surface as
// ErrTransientDial, not a stalled dispatcher.
type Dialer interface {
	PlaceCall(ctx context.Context, req PlaceCallRequest) (providerCallID string, err error)
}
