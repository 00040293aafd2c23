package usecase

import (
	"math"
	"time"
)

// PriceSummary is the authoritative charge for a booking window. Used both
// for the quote display and as the amount sent to the payment intent request.
type PriceSummary struct {
	Days          int
	DurationHours int
	Total         float64
	TotalCents    int64
}

// ComputePrice bills per started day: any window up to 24h is one day.
// The caller guarantees end is after start.
func ComputePrice(start, end time.Time, pricePerDay float64) PriceSummary {
	duration := end.Sub(start)

	hours := int(math.Ceil(duration.Hours()))
	if hours < 1 {
		hours = 1
	}

	days := int(math.Ceil(duration.Hours() / 24))
	if days < 1 {
		days = 1
	}

	total := pricePerDay * float64(days)

	return PriceSummary{
		Days:          days,
		DurationHours: hours,
		Total:         total,
		TotalCents:    int64(math.Round(total * 100)),
	}
}
