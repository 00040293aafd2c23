package entity

import "time"

// Reminder is a scheduled local notification for a confirmed booking. A nil
// TriggerAt means "deliver immediately".
type Reminder struct {
	BaseSimple
	BookingReference string     `db:"booking_reference"`
	Title            string     `db:"title"`
	Body             string     `db:"body"`
	TriggerAt        *time.Time `db:"trigger_at"`
}
