package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BackendClient talks to the booking backend. The backend owns booking
// persistence, availability, and the ledger; its confirm endpoint is
// idempotent per payment intent id.
type BackendClient interface {
	CreatePaymentIntent(ctx context.Context, token string, draft entity.BookingDraft) (*entity.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, token string, paymentIntentID string) error
	CancelPaymentIntent(ctx context.Context, token string, paymentIntentID string) error
	GetListing(ctx context.Context, token string, listingID uuid.UUID) (*entity.Listing, error)
}

type backendClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewBackendClient(config utils.BackendConfig, log *zap.Logger) BackendClient {
	return &backendClient{
		baseURL: config.BaseURL,
		client:  &http.Client{Timeout: config.Timeout},
		log:     log.With(zap.String("client", "backend")),
	}
}

type paymentIntentRequest struct {
	ListingID    string  `json:"listingId"`
	From         string  `json:"from"`
	To           string  `json:"to"`
	AmountCents  int64   `json:"amountCents"`
	VehiclePlate *string `json:"vehiclePlate,omitempty"`
}

type paymentIntentResponse struct {
	PaymentIntentClientSecret string `json:"paymentIntentClientSecret"`
	PaymentIntentID           string `json:"paymentIntentId"`
	CustomerID                string `json:"customerId"`
	EphemeralKeySecret        string `json:"ephemeralKeySecret"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status,omitempty"`
}

type listingResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Address     string  `json:"address"`
	PricePerDay float64 `json:"price_per_day"`
}

func (c *backendClient) CreatePaymentIntent(ctx context.Context, token string, draft entity.BookingDraft) (*entity.PaymentIntent, error) {
	body := paymentIntentRequest{
		ListingID:    draft.ListingID.String(),
		From:         draft.StartTime.Format(time.RFC3339),
		To:           draft.EndTime.Format(time.RFC3339),
		AmountCents:  draft.AmountCents,
		VehiclePlate: draft.VehiclePlate,
	}

	var result paymentIntentResponse
	if err := c.do(ctx, token, http.MethodPost, "/api/bookings/payment-intent", body, &result); err != nil {
		c.log.Error("Failed to create payment intent",
			zap.Error(err),
			zap.String("listing_id", draft.ListingID.String()),
		)
		return nil, fmt.Errorf("create payment intent for listing %s: %w", draft.ListingID.String(), err)
	}

	return &entity.PaymentIntent{
		ID:                 result.PaymentIntentID,
		ClientSecret:       result.PaymentIntentClientSecret,
		CustomerID:         result.CustomerID,
		EphemeralKeySecret: result.EphemeralKeySecret,
	}, nil
}

func (c *backendClient) ConfirmPayment(ctx context.Context, token string, paymentIntentID string) error {
	body := confirmPaymentRequest{PaymentIntentID: paymentIntentID}

	if err := c.do(ctx, token, http.MethodPost, "/api/bookings/confirm", body, nil); err != nil {
		return fmt.Errorf("confirm payment %s: %w", paymentIntentID, err)
	}

	return nil
}

func (c *backendClient) CancelPaymentIntent(ctx context.Context, token string, paymentIntentID string) error {
	// The backend treats a confirm with status "canceled" as "this intent was
	// abandoned, release the draft booking".
	body := confirmPaymentRequest{PaymentIntentID: paymentIntentID, Status: "canceled"}

	if err := c.do(ctx, token, http.MethodPost, "/api/bookings/confirm", body, nil); err != nil {
		return fmt.Errorf("cancel payment intent %s: %w", paymentIntentID, err)
	}

	return nil
}

func (c *backendClient) GetListing(ctx context.Context, token string, listingID uuid.UUID) (*entity.Listing, error) {
	var result listingResponse
	path := fmt.Sprintf("/api/listings/%s", listingID.String())
	if err := c.do(ctx, token, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("get listing %s: %w", listingID.String(), err)
	}

	id, err := uuid.Parse(result.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid listing ID in response %s: %w", result.ID, err)
	}

	return &entity.Listing{
		ID:          id,
		Title:       result.Title,
		Address:     result.Address,
		PricePerDay: result.PricePerDay,
	}, nil
}

// do sends one JSON request and decodes the response into out when non-nil.
// Any non-2xx status is an error carrying the backend's message.
func (c *backendClient) do(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Message != "" {
			return fmt.Errorf("backend returned %d: %s", resp.StatusCode, errBody.Message)
		}
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
