package response

import (
	"time"

	"parking-booking/internal/data/entity"
)

type QuoteResponse struct {
	ListingID     string  `json:"listing_id"`
	Title         string  `json:"title"`
	Address       string  `json:"address"`
	PricePerDay   float64 `json:"price_per_day"`
	Days          int     `json:"days"`
	DurationHours int     `json:"duration_hours"`
	Total         float64 `json:"total"`
	TotalCents    int64   `json:"total_cents"`
}

type BookingResponse struct {
	Reference       string    `json:"reference"`
	ListingID       string    `json:"listing_id"`
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	AmountCents     int64     `json:"amount_cents"`
	VehiclePlate    *string   `json:"vehicle_plate,omitempty"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Status          string    `json:"status"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}

type CheckoutResponse struct {
	RunID   string           `json:"run_id"`
	State   string           `json:"state"`
	Booking *BookingResponse `json:"booking"`
}

type CheckoutRunResponse struct {
	ID              string    `json:"id"`
	ListingID       string    `json:"listing_id"`
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	AmountCents     int64     `json:"amount_cents"`
	State           string    `json:"state"`
	Canceled        bool      `json:"canceled"`
	PaymentIntentID *string   `json:"payment_intent_id,omitempty"`
	Message         *string   `json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Helper converters
func BookingToResponse(booking *entity.Booking) *BookingResponse {
	return &BookingResponse{
		Reference:       booking.Reference,
		ListingID:       booking.ListingID.String(),
		From:            booking.StartTime,
		To:              booking.EndTime,
		AmountCents:     booking.AmountCents,
		VehiclePlate:    booking.VehiclePlate,
		PaymentIntentID: booking.PaymentIntentID,
		Status:          string(booking.Status),
		ConfirmedAt:     booking.ConfirmedAt,
	}
}

func CheckoutRunToResponse(run *entity.CheckoutRun) *CheckoutRunResponse {
	return &CheckoutRunResponse{
		ID:              run.ID.String(),
		ListingID:       run.ListingID.String(),
		From:            run.StartTime,
		To:              run.EndTime,
		AmountCents:     run.AmountCents,
		State:           string(run.State),
		Canceled:        run.Canceled,
		PaymentIntentID: run.PaymentIntentID,
		Message:         run.Message,
		CreatedAt:       run.CreatedAt,
		UpdatedAt:       run.UpdatedAt,
	}
}
