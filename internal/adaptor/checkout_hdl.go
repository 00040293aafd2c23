package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"parking-booking/internal/dto/request"
	"parking-booking/internal/usecase"
	"parking-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	service usecase.CheckoutService
	log     *zap.Logger
}

func NewCheckoutHandler(service usecase.CheckoutService, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		log:     log.With(zap.String("handler", "checkout")),
	}
}

// Checkout handles POST /api/checkout (protected)
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	token, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	// Validate request
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.Checkout(r.Context(), token, &req)
	if err != nil {
		h.handleServiceError(w, err, "checkout")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// GetQuote handles GET /api/listings/{id}/quote (protected)
func (h *CheckoutHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	token, ok := utils.GetTokenFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	listingID := chi.URLParam(r, "id")
	if listingID == "" {
		utils.ResponseBadRequest(w, "Listing ID is required", nil)
		return
	}

	query := r.URL.Query()
	from := query.Get("from")
	to := query.Get("to")
	if from == "" || to == "" {
		utils.ResponseBadRequest(w, "from and to query parameters are required", nil)
		return
	}

	quote, err := h.service.GetQuote(r.Context(), token, listingID, from, to)
	if err != nil {
		h.handleServiceError(w, err, "get quote")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}

// GetRun handles GET /api/checkout/runs/{id} (protected)
func (h *CheckoutHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		utils.ResponseBadRequest(w, "Run ID is required", nil)
		return
	}

	run, err := h.service.GetRun(r.Context(), runID)
	if err != nil {
		h.handleServiceError(w, err, "get checkout run")
		return
	}

	utils.ResponseSuccess(w, "success", run)
}

// handleServiceError maps checkout errors to HTTP responses. The saga's
// typed failures carry their own user-facing copy.
func (h *CheckoutHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	var intentErr *usecase.IntentCreationError
	var initErr *usecase.GatewayInitError
	var canceledErr *usecase.UserCanceledError
	var presentErr *usecase.GatewayPresentError
	var confirmErr *usecase.ConfirmationError

	switch {
	case errors.Is(err, usecase.ErrCheckoutInProgress):
		h.log.Warn(operation+" rejected - already in progress",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, "A checkout for this booking is already in progress")

	case errors.As(err, &intentErr):
		h.log.Error(operation+" failed - intent creation",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadGateway(w, intentErr.UserMessage())

	case errors.As(err, &initErr):
		h.log.Error(operation+" failed - gateway init",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadGateway(w, initErr.UserMessage())

	case errors.As(err, &canceledErr):
		h.log.Info(operation+" canceled by user",
			zap.String("operation", operation))
		utils.ResponsePaymentRequired(w, canceledErr.UserMessage())

	case errors.As(err, &presentErr):
		h.log.Warn(operation+" failed - gateway present",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponsePaymentRequired(w, presentErr.UserMessage())

	case errors.As(err, &confirmErr):
		h.log.Error(operation+" failed - confirmation",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadGateway(w, confirmErr.UserMessage())

	case strings.Contains(err.Error(), "not found"):
		h.log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case strings.Contains(err.Error(), "validation failed"),
		strings.Contains(err.Error(), "invalid"):
		h.log.Warn("Invalid input for "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
