package entity

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutState is the explicit state machine of one checkout run. Confirmed
// is terminal success; Failed is terminal but re-armable (the user may start
// a fresh run for the same draft).
type CheckoutState string

const (
	StateIdle           CheckoutState = "idle"
	StateCreatingIntent CheckoutState = "creating_intent"
	StateGatewayInit    CheckoutState = "gateway_init"
	StateGatewayPresent CheckoutState = "gateway_present"
	StateConfirming     CheckoutState = "confirming"
	StateConfirmed      CheckoutState = "confirmed"
	StateFailed         CheckoutState = "failed"
)

// CheckoutRun is the journal row for one saga run: which draft it served, how
// far it got, which payment intent it owns, and the user-facing message it
// ended with. Written best-effort; the saga never fails on journal errors.
type CheckoutRun struct {
	Base
	DraftKey        string        `db:"draft_key"`
	ListingID       uuid.UUID     `db:"listing_id"`
	StartTime       time.Time     `db:"start_time"`
	EndTime         time.Time     `db:"end_time"`
	AmountCents     int64         `db:"amount_cents"`
	VehiclePlate    *string       `db:"vehicle_plate"`
	State           CheckoutState `db:"state"`
	Canceled        bool          `db:"canceled"`
	PaymentIntentID *string       `db:"payment_intent_id"`
	Message         *string       `db:"message"`
}
