package entity

import "github.com/google/uuid"

// Listing is the backend's view of a parking space. Retrieval is the
// backend's concern; this service only reads what the quote needs.
type Listing struct {
	ID          uuid.UUID
	Title       string
	Address     string
	PricePerDay float64
}
