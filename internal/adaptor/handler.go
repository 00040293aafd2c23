package adaptor

import (
	"parking-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Checkout *CheckoutHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Checkout: NewCheckoutHandler(service.Checkout, log),
	}
}
