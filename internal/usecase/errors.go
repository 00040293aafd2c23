package usecase

import (
	"errors"
	"fmt"
)

// User-facing copy for each terminal failure. The adaptor surfaces these
// verbatim; internal error detail stays in the logs.
const (
	msgIntentCreation  = "Could not start payment."
	msgGatewayInit     = "Couldn't start the payment, try again."
	msgUserCanceled    = "Payment canceled. You can try again anytime."
	msgPresentFallback = "Payment failed. Please try again."
	msgConfirmation    = "We couldn't confirm your booking. Please check your bookings or contact support."
)

// ErrCheckoutInProgress is returned when a run for the same draft is still in
// flight. Treated as a no-op by the caller, never as a payment failure.
var ErrCheckoutInProgress = errors.New("checkout already in progress for this draft")

// IntentCreationError: the backend refused or was unreachable before any
// payment intent existed. Nothing to compensate.
type IntentCreationError struct {
	Err error
}

func (e *IntentCreationError) Error() string {
	return fmt.Sprintf("intent creation failed: %v", e.Err)
}

func (e *IntentCreationError) Unwrap() error { return e.Err }

func (e *IntentCreationError) UserMessage() string { return msgIntentCreation }

// GatewayInitError: the payment sheet session could not be wired to the
// intent. The intent has been canceled best-effort by the time this surfaces.
type GatewayInitError struct {
	Err error
}

func (e *GatewayInitError) Error() string {
	return fmt.Sprintf("gateway init failed: %v", e.Err)
}

func (e *GatewayInitError) Unwrap() error { return e.Err }

func (e *GatewayInitError) UserMessage() string { return msgGatewayInit }

// UserCanceledError: the user dismissed the payment sheet. Benign; the intent
// has been canceled best-effort.
type UserCanceledError struct{}

func (e *UserCanceledError) Error() string { return "payment canceled by user" }

func (e *UserCanceledError) UserMessage() string { return msgUserCanceled }

// GatewayPresentError: the collection step failed for a reason other than
// user cancellation (declined card, gateway network error).
type GatewayPresentError struct {
	Code    string
	Message string
}

func (e *GatewayPresentError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway present failed: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("gateway present failed: %s", e.Message)
}

func (e *GatewayPresentError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return msgPresentFallback
}

// ConfirmationError: every confirm attempt failed. The payment is authorized
// on the gateway side, so the true booking state is ambiguous from here; no
// compensation is issued.
type ConfirmationError struct {
	Attempts int
	Err      error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("confirmation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

func (e *ConfirmationError) UserMessage() string { return msgConfirmation }
