package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/internal/dto/request"
	"parking-booking/internal/dto/response"
	"parking-booking/internal/gateway"
	"parking-booking/pkg/retry"
	"parking-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConfirmDelays is the bounded backoff schedule for the backend confirm call:
// first attempt immediate, second after 400ms, third after 900ms.
var ConfirmDelays = []time.Duration{0, 400 * time.Millisecond, 900 * time.Millisecond}

var plateRegex = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)

type CheckoutService interface {
	// Checkout runs the full booking-payment flow for one draft and blocks
	// until it reaches a terminal state.
	Checkout(ctx context.Context, token string, req *request.CheckoutRequest) (*response.CheckoutResponse, error)

	// Read models
	GetQuote(ctx context.Context, token string, listingID, from, to string) (*response.QuoteResponse, error)
	GetRun(ctx context.Context, runID string) (*response.CheckoutRunResponse, error)
}

type checkoutService struct {
	repo          *repository.Repository
	backend       gateway.BackendClient
	newSheet      func() gateway.PaymentSheet
	reminders     ReminderService
	confirmPolicy retry.Policy
	merchantName  string
	returnURL     string
	log           *zap.Logger

	// single-flight guard, keyed by draft. Advisory and in-process only; two
	// devices are coordinated by the backend, not here.
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewCheckoutService(
	repo *repository.Repository,
	backend gateway.BackendClient,
	newSheet func() gateway.PaymentSheet,
	reminders ReminderService,
	config *utils.Config,
	log *zap.Logger,
) CheckoutService {
	return &checkoutService{
		repo:          repo,
		backend:       backend,
		newSheet:      newSheet,
		reminders:     reminders,
		confirmPolicy: retry.NewPolicy(ConfirmDelays...),
		merchantName:  config.Gateway.MerchantDisplayName,
		returnURL:     config.Gateway.ReturnURL,
		log:           log.With(zap.String("service", "checkout")),
		inFlight:      make(map[string]struct{}),
	}
}

func (s *checkoutService) Checkout(ctx context.Context, token string, req *request.CheckoutRequest) (*response.CheckoutResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Checkout validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	draft, err := s.buildDraft(req)
	if err != nil {
		return nil, err
	}

	// Single flight: a second run for the same draft while one is in
	// progress is rejected, not queued.
	if !s.acquire(draft.Key()) {
		s.log.Warn("Checkout already in flight",
			zap.String("draft_key", draft.Key()),
		)
		return nil, ErrCheckoutInProgress
	}
	defer s.release(draft.Key())

	s.log.Info("Checkout started",
		zap.String("listing_id", draft.ListingID.String()),
		zap.Time("from", draft.StartTime),
		zap.Time("to", draft.EndTime),
	)

	// The listing's rate is authoritative for the charge amount
	listing, err := s.backend.GetListing(ctx, token, draft.ListingID)
	if err != nil {
		s.log.Error("Failed to load listing for checkout", zap.Error(err))
		return nil, fmt.Errorf("listing %s not found: %w", draft.ListingID.String(), err)
	}

	price := ComputePrice(draft.StartTime, draft.EndTime, listing.PricePerDay)
	draft.AmountCents = price.TotalCents

	run := s.startRun(ctx, draft)

	booking, err := s.run(ctx, token, draft, run)
	if err != nil {
		return nil, err
	}

	return &response.CheckoutResponse{
		RunID:   run.ID.String(),
		State:   string(entity.StateConfirmed),
		Booking: response.BookingToResponse(booking),
	}, nil
}

// run drives the saga: intent → sheet init → sheet present → confirm with
// retry → reminders. Compensation (intent cancel) happens on every failure
// before the confirming state, never after.
func (s *checkoutService) run(ctx context.Context, token string, draft entity.BookingDraft, run *entity.CheckoutRun) (*entity.Booking, error) {
	intent, err := s.backend.CreatePaymentIntent(ctx, token, draft)
	if err != nil {
		s.log.Error("Payment intent creation failed", zap.Error(err))
		s.finishRun(ctx, run, entity.StateFailed, false, msgIntentCreation)
		return nil, &IntentCreationError{Err: err}
	}

	s.log.Info("Payment intent created",
		zap.String("run_id", run.ID.String()),
		zap.String("payment_intent_id", intent.ID),
	)
	s.journal(ctx, run, func(c context.Context) error {
		return s.repo.CheckoutRun.SetPaymentIntent(c, run.ID, intent.ID)
	})
	s.transition(ctx, run, entity.StateGatewayInit)

	sheet := s.newSheet()
	initErr := sheet.Initialize(ctx, gateway.InitParams{
		MerchantDisplayName:         s.merchantName,
		CustomerID:                  intent.CustomerID,
		CustomerEphemeralKeySecret:  intent.EphemeralKeySecret,
		PaymentIntentClientSecret:   intent.ClientSecret,
		AllowsDelayedPaymentMethods: false,
		ReturnURL:                   s.returnURL,
	})
	if initErr != nil {
		s.log.Error("Payment sheet init failed",
			zap.Error(initErr),
			zap.String("payment_intent_id", intent.ID),
		)
		s.compensate(ctx, token, intent.ID)
		s.finishRun(ctx, run, entity.StateFailed, false, msgGatewayInit)
		return nil, &GatewayInitError{Err: initErr}
	}

	s.transition(ctx, run, entity.StateGatewayPresent)

	if presentErr := sheet.Present(ctx); presentErr != nil {
		s.compensate(ctx, token, intent.ID)

		var pe *gateway.PresentError
		if errors.As(presentErr, &pe) && pe.UserCanceled() {
			s.log.Info("Payment canceled by user",
				zap.String("payment_intent_id", intent.ID),
			)
			s.finishRun(ctx, run, entity.StateFailed, true, msgUserCanceled)
			return nil, &UserCanceledError{}
		}

		s.log.Error("Payment sheet present failed",
			zap.Error(presentErr),
			zap.String("payment_intent_id", intent.ID),
		)
		failure := &GatewayPresentError{Message: presentErr.Error()}
		if pe != nil {
			failure = &GatewayPresentError{Code: pe.Code, Message: pe.Message}
		}
		s.finishRun(ctx, run, entity.StateFailed, false, failure.UserMessage())
		return nil, failure
	}

	s.transition(ctx, run, entity.StateConfirming)

	// From here on the payment is authorized on the gateway side; canceling
	// the intent would contradict that, so confirm failures are not
	// compensated.
	attempts := 0
	confirmErr := s.confirmPolicy.Do(ctx, func(c context.Context) error {
		attempts++
		if err := s.backend.ConfirmPayment(c, token, intent.ID); err != nil {
			s.log.Warn("Confirm attempt failed",
				zap.Error(err),
				zap.Int("attempt", attempts),
				zap.String("payment_intent_id", intent.ID),
			)
			return err
		}
		return nil
	})
	if confirmErr != nil {
		s.log.Error("Booking confirmation failed after retries",
			zap.Error(confirmErr),
			zap.Int("attempts", attempts),
			zap.String("payment_intent_id", intent.ID),
		)
		s.finishRun(ctx, run, entity.StateFailed, false, msgConfirmation)
		return nil, &ConfirmationError{Attempts: attempts, Err: confirmErr}
	}

	now := time.Now()
	booking := &entity.Booking{
		Reference:       utils.GenerateBookingReference(),
		ListingID:       draft.ListingID,
		StartTime:       draft.StartTime,
		EndTime:         draft.EndTime,
		AmountCents:     draft.AmountCents,
		VehiclePlate:    draft.VehiclePlate,
		PaymentIntentID: intent.ID,
		Status:          entity.BookingStatusConfirmed,
		ConfirmedAt:     now,
	}

	s.finishRun(ctx, run, entity.StateConfirmed, false, "")

	s.log.Info("Booking confirmed",
		zap.String("run_id", run.ID.String()),
		zap.String("booking_reference", booking.Reference),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount_cents", booking.AmountCents),
	)

	// Fire and forget; a reminder problem never fails a confirmed booking
	s.reminders.ScheduleReminders(ctx, booking)

	return booking, nil
}

// compensate cancels an orphaned payment intent. Best-effort only: failures
// are logged at debug and never surfaced to the caller.
func (s *checkoutService) compensate(ctx context.Context, token, paymentIntentID string) {
	if paymentIntentID == "" {
		return
	}

	if err := s.backend.CancelPaymentIntent(ctx, token, paymentIntentID); err != nil {
		s.log.Debug("Payment intent cancellation failed",
			zap.Error(err),
			zap.String("payment_intent_id", paymentIntentID),
		)
	}
}

func (s *checkoutService) GetQuote(ctx context.Context, token string, listingID, from, to string) (*response.QuoteResponse, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, fmt.Errorf("invalid listing ID format %s: %w", listingID, err)
	}

	start, end, err := parseWindow(from, to)
	if err != nil {
		return nil, err
	}

	listing, err := s.backend.GetListing(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("listing %s not found: %w", listingID, err)
	}

	price := ComputePrice(start, end, listing.PricePerDay)

	return &response.QuoteResponse{
		ListingID:     listing.ID.String(),
		Title:         listing.Title,
		Address:       listing.Address,
		PricePerDay:   listing.PricePerDay,
		Days:          price.Days,
		DurationHours: price.DurationHours,
		Total:         price.Total,
		TotalCents:    price.TotalCents,
	}, nil
}

func (s *checkoutService) GetRun(ctx context.Context, runID string) (*response.CheckoutRunResponse, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID format %s: %w", runID, err)
	}

	run, err := s.repo.CheckoutRun.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get checkout run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("checkout run %s not found", runID)
	}

	return response.CheckoutRunToResponse(run), nil
}

// ==================== HELPER METHODS ====================

func (s *checkoutService) buildDraft(req *request.CheckoutRequest) (entity.BookingDraft, error) {
	var draft entity.BookingDraft

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return draft, fmt.Errorf("invalid listing ID format %s: %w", req.ListingID, err)
	}

	start, end, err := parseWindow(req.From, req.To)
	if err != nil {
		return draft, err
	}

	if req.VehiclePlate != nil && !plateRegex.MatchString(*req.VehiclePlate) {
		return draft, fmt.Errorf("invalid vehicle plate %q: only letters, numbers, and spaces", *req.VehiclePlate)
	}

	draft = entity.BookingDraft{
		ListingID:    listingID,
		StartTime:    start,
		EndTime:      end,
		VehiclePlate: req.VehiclePlate,
	}
	return draft, nil
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from time %s: %w", from, err)
	}

	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to time %s: %w", to, err)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid window: end time must be after start time")
	}

	return start, end, nil
}

func (s *checkoutService) acquire(draftKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[draftKey]; busy {
		return false
	}
	s.inFlight[draftKey] = struct{}{}
	return true
}

func (s *checkoutService) release(draftKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, draftKey)
}

// startRun opens the journal row for this saga run. Journal writes are
// advisory; the saga proceeds even when they fail.
func (s *checkoutService) startRun(ctx context.Context, draft entity.BookingDraft) *entity.CheckoutRun {
	now := time.Now()
	run := &entity.CheckoutRun{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DraftKey:     draft.Key(),
		ListingID:    draft.ListingID,
		StartTime:    draft.StartTime,
		EndTime:      draft.EndTime,
		AmountCents:  draft.AmountCents,
		VehiclePlate: draft.VehiclePlate,
		State:        entity.StateCreatingIntent,
	}

	s.journal(ctx, run, func(c context.Context) error {
		return s.repo.CheckoutRun.Create(c, run)
	})

	return run
}

func (s *checkoutService) transition(ctx context.Context, run *entity.CheckoutRun, state entity.CheckoutState) {
	run.State = state
	s.journal(ctx, run, func(c context.Context) error {
		return s.repo.CheckoutRun.UpdateState(c, run.ID, state)
	})
}

func (s *checkoutService) finishRun(ctx context.Context, run *entity.CheckoutRun, state entity.CheckoutState, canceled bool, message string) {
	run.State = state
	run.Canceled = canceled

	var msg *string
	if message != "" {
		msg = &message
		run.Message = msg
	}

	s.journal(ctx, run, func(c context.Context) error {
		return s.repo.CheckoutRun.Finish(c, run.ID, state, canceled, msg)
	})
}

func (s *checkoutService) journal(ctx context.Context, run *entity.CheckoutRun, write func(context.Context) error) {
	if err := write(ctx); err != nil {
		s.log.Warn("Checkout run journal write failed",
			zap.Error(err),
			zap.String("run_id", run.ID.String()),
		)
	}
}
