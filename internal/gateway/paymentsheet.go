package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

// PresentCodeCanceled is the gateway's code for "the user dismissed the
// payment sheet". It is an expected outcome, not a payment failure.
const PresentCodeCanceled = "Canceled"

// InitParams wires a gateway payment-sheet session to one payment intent and
// one customer via short-lived credentials.
type InitParams struct {
	MerchantDisplayName         string
	CustomerID                  string
	CustomerEphemeralKeySecret  string
	PaymentIntentClientSecret   string
	AllowsDelayedPaymentMethods bool
	ReturnURL                   string
}

// PresentError is the gateway's outcome for a presentation that did not
// collect a payment: a user cancellation or a real failure (declined card,
// gateway network error).
type PresentError struct {
	Code    string
	Message string
}

func (e *PresentError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

// UserCanceled reports whether the user dismissed the sheet on purpose
func (e *PresentError) UserCanceled() bool {
	return e.Code == PresentCodeCanceled
}

// PaymentSheet drives the gateway's two-phase collection flow. Initialize
// must succeed before Present may be called.
type PaymentSheet interface {
	Initialize(ctx context.Context, params InitParams) error
	Present(ctx context.Context) error
}

type paymentSheet struct {
	baseURL   string
	client    *http.Client
	log       *zap.Logger
	sessionID string
}

// NewPaymentSheet returns a sheet bound to one checkout run. Not safe for
// concurrent use; create one per run.
func NewPaymentSheet(config utils.GatewayConfig, log *zap.Logger) PaymentSheet {
	return &paymentSheet{
		baseURL: config.BaseURL,
		client:  &http.Client{Timeout: config.Timeout},
		log:     log.With(zap.String("client", "payment_sheet")),
	}
}

type initSheetRequest struct {
	MerchantDisplayName         string `json:"merchantDisplayName"`
	CustomerID                  string `json:"customerId"`
	CustomerEphemeralKeySecret  string `json:"customerEphemeralKeySecret"`
	PaymentIntentClientSecret   string `json:"paymentIntentClientSecret"`
	AllowsDelayedPaymentMethods bool   `json:"allowsDelayedPaymentMethods"`
	ReturnURL                   string `json:"returnURL"`
}

type sheetResponse struct {
	SessionID string `json:"sessionId,omitempty"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *paymentSheet) Initialize(ctx context.Context, params InitParams) error {
	body := initSheetRequest{
		MerchantDisplayName:         params.MerchantDisplayName,
		CustomerID:                  params.CustomerID,
		CustomerEphemeralKeySecret:  params.CustomerEphemeralKeySecret,
		PaymentIntentClientSecret:   params.PaymentIntentClientSecret,
		AllowsDelayedPaymentMethods: params.AllowsDelayedPaymentMethods,
		ReturnURL:                   params.ReturnURL,
	}

	result, err := s.post(ctx, "/v1/payment_sheets", body)
	if err != nil {
		return fmt.Errorf("initialize payment sheet: %w", err)
	}

	if result.Error != nil {
		s.log.Warn("Payment sheet init rejected",
			zap.String("code", result.Error.Code),
			zap.String("message", result.Error.Message),
		)
		return fmt.Errorf("initialize payment sheet: %s", result.Error.Message)
	}

	s.sessionID = result.SessionID
	return nil
}

func (s *paymentSheet) Present(ctx context.Context) error {
	if s.sessionID == "" {
		return fmt.Errorf("present payment sheet: no session, initialize first")
	}

	path := fmt.Sprintf("/v1/payment_sheets/%s/present", s.sessionID)
	result, err := s.post(ctx, path, struct{}{})
	if err != nil {
		return fmt.Errorf("present payment sheet: %w", err)
	}

	if result.Error != nil {
		return &PresentError{
			Code:    result.Error.Code,
			Message: result.Error.Message,
		}
	}

	return nil
}

func (s *paymentSheet) post(ctx context.Context, path string, body any) (*sheetResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	var result sheetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
