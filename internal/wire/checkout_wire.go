package wire

import (
	"parking-booking/internal/adaptor"
	"parking-booking/pkg/middleware"
	"parking-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCheckout(
	r chi.Router,
	checkoutHandler *adaptor.CheckoutHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(log))

		// POST /api/checkout - run the pay-and-reserve flow
		r.Post("/api/checkout", checkoutHandler.Checkout)

		// GET /api/listings/{id}/quote - price preview for a window
		r.Get("/api/listings/{id}/quote", checkoutHandler.GetQuote)

		// GET /api/checkout/runs/{id} - checkout run journal entry
		r.Get("/api/checkout/runs/{id}", checkoutHandler.GetRun)
	})
}
