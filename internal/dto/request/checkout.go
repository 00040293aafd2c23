package request

type CheckoutRequest struct {
	ListingID    string  `json:"listing_id" validate:"required,uuid4"`
	From         string  `json:"from" validate:"required"`
	To           string  `json:"to" validate:"required"`
	VehiclePlate *string `json:"vehicle_plate,omitempty" validate:"omitempty,min=2,max=12"`
}
