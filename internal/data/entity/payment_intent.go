package entity

// PaymentIntent holds the gateway-side record of an authorized-but-not-yet
// finalized charge, plus the short-lived credentials the payment sheet needs.
// Owned exclusively by the checkout run that created it; if that run does not
// reach the confirmed state the intent is canceled best-effort.
type PaymentIntent struct {
	ID                 string
	ClientSecret       string
	CustomerID         string
	EphemeralKeySecret string
}
