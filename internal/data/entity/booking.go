package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BookingDraft is the user's intended reservation: a listing plus a time
// window. Immutable once payment begins, except the vehicle plate which is
// editable until submit.
type BookingDraft struct {
	ListingID    uuid.UUID
	StartTime    time.Time
	EndTime      time.Time
	AmountCents  int64
	VehiclePlate *string
}

// Key identifies the draft for single-flight purposes: one listing and one
// time window map to one draft regardless of how often the user taps pay.
func (d BookingDraft) Key() string {
	return fmt.Sprintf("%s|%d|%d", d.ListingID, d.StartTime.Unix(), d.EndTime.Unix())
}

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
)

// Booking is the confirmed reservation reported back to the caller after the
// checkout run reaches its terminal success state.
type Booking struct {
	Reference       string
	ListingID       uuid.UUID
	StartTime       time.Time
	EndTime         time.Time
	AmountCents     int64
	VehiclePlate    *string
	PaymentIntentID string
	Status          BookingStatus
	ConfirmedAt     time.Time
}
