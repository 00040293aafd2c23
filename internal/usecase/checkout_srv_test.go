package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/internal/dto/request"
	"parking-booking/internal/gateway"
	"parking-booking/pkg/retry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ==================== MOCKS ====================

type mockBackend struct {
	listing    *entity.Listing
	listingErr error

	intent      *entity.PaymentIntent
	createErr   error
	createCalls int

	confirmErrs  []error
	confirmCalls int

	cancelCalls int
	cancelErr   error
}

func (m *mockBackend) CreatePaymentIntent(_ context.Context, _ string, _ entity.BookingDraft) (*entity.PaymentIntent, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.intent, nil
}

func (m *mockBackend) ConfirmPayment(_ context.Context, _ string, _ string) error {
	idx := m.confirmCalls
	m.confirmCalls++
	if idx < len(m.confirmErrs) {
		return m.confirmErrs[idx]
	}
	return nil
}

func (m *mockBackend) CancelPaymentIntent(_ context.Context, _ string, _ string) error {
	m.cancelCalls++
	return m.cancelErr
}

func (m *mockBackend) GetListing(_ context.Context, _ string, _ uuid.UUID) (*entity.Listing, error) {
	if m.listingErr != nil {
		return nil, m.listingErr
	}
	return m.listing, nil
}

type mockSheet struct {
	initErr    error
	initCalls  int
	presentErr error

	presentCalls int
	presentGate  chan struct{} // when non-nil, Present blocks until closed
}

func (m *mockSheet) Initialize(_ context.Context, _ gateway.InitParams) error {
	m.initCalls++
	return m.initErr
}

func (m *mockSheet) Present(_ context.Context) error {
	m.presentCalls++
	if m.presentGate != nil {
		<-m.presentGate
	}
	return m.presentErr
}

type mockRunRepo struct {
	mu       sync.Mutex
	states   []entity.CheckoutState
	run      *entity.CheckoutRun
	canceled bool
	message  *string
	intentID string
}

func (m *mockRunRepo) Create(_ context.Context, run *entity.CheckoutRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.run = run
	m.states = append(m.states, run.State)
	return nil
}

func (m *mockRunRepo) FindByID(_ context.Context, _ uuid.UUID) (*entity.CheckoutRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.run, nil
}

func (m *mockRunRepo) UpdateState(_ context.Context, _ uuid.UUID, state entity.CheckoutState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
	return nil
}

func (m *mockRunRepo) SetPaymentIntent(_ context.Context, _ uuid.UUID, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intentID = paymentIntentID
	return nil
}

func (m *mockRunRepo) Finish(_ context.Context, _ uuid.UUID, state entity.CheckoutState, canceled bool, message *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, state)
	m.canceled = canceled
	m.message = message
	return nil
}

type mockReminders struct {
	calls int
	last  *entity.Booking
}

func (m *mockReminders) ScheduleReminders(_ context.Context, booking *entity.Booking) {
	m.calls++
	m.last = booking
}

// ==================== FIXTURE ====================

var testListingID = uuid.MustParse("6f1e1f7e-3f6e-4b87-9a40-2f15c5a3b111")

type checkoutFixture struct {
	backend   *mockBackend
	sheet     *mockSheet
	runs      *mockRunRepo
	reminders *mockReminders
	slept     []time.Duration
	service   *checkoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		backend: &mockBackend{
			listing: &entity.Listing{
				ID:          testListingID,
				Title:       "Dawson Street garage",
				Address:     "12 Dawson Street",
				PricePerDay: 12,
			},
			intent: &entity.PaymentIntent{
				ID:                 "pi_123",
				ClientSecret:       "pi_123_secret",
				CustomerID:         "cus_1",
				EphemeralKeySecret: "ek_1",
			},
		},
		sheet:     &mockSheet{},
		runs:      &mockRunRepo{},
		reminders: &mockReminders{},
	}

	policy := retry.NewPolicy(ConfirmDelays...)
	policy.Sleep = func(_ context.Context, d time.Duration) error {
		f.slept = append(f.slept, d)
		return nil
	}

	f.service = &checkoutService{
		repo:          &repository.Repository{CheckoutRun: f.runs},
		backend:       f.backend,
		newSheet:      func() gateway.PaymentSheet { return f.sheet },
		reminders:     f.reminders,
		confirmPolicy: policy,
		merchantName:  "CarParking",
		log:           zap.NewNop(),
		inFlight:      make(map[string]struct{}),
	}

	return f
}

func checkoutRequest() *request.CheckoutRequest {
	return &request.CheckoutRequest{
		ListingID: testListingID.String(),
		From:      "2026-09-10T09:00:00Z",
		To:        "2026-09-10T18:00:00Z",
	}
}

// ==================== TESTS ====================

func TestCheckout_HappyPath(t *testing.T) {
	f := newCheckoutFixture()

	result, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())

	require.NoError(t, err)
	require.NotNil(t, result.Booking)
	assert.Equal(t, "pi_123", result.Booking.PaymentIntentID)
	assert.Equal(t, string(entity.StateConfirmed), result.State)
	assert.Equal(t, int64(1200), result.Booking.AmountCents)

	assert.Equal(t, 1, f.backend.createCalls)
	assert.Equal(t, 1, f.sheet.initCalls)
	assert.Equal(t, 1, f.sheet.presentCalls)
	assert.Equal(t, 1, f.backend.confirmCalls, "confirm is called exactly once on the happy path")
	assert.Equal(t, 0, f.backend.cancelCalls)
	assert.Equal(t, 1, f.reminders.calls)
	assert.Empty(t, f.slept)

	assert.Equal(t, []entity.CheckoutState{
		entity.StateCreatingIntent,
		entity.StateGatewayInit,
		entity.StateGatewayPresent,
		entity.StateConfirming,
		entity.StateConfirmed,
	}, f.runs.states)
	assert.Equal(t, "pi_123", f.runs.intentID)
}

func TestCheckout_IntentCreationFails(t *testing.T) {
	f := newCheckoutFixture()
	f.backend.createErr = errors.New("backend returned 500")

	result, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())

	assert.Nil(t, result)
	var intentErr *IntentCreationError
	require.ErrorAs(t, err, &intentErr)
	assert.Equal(t, "Could not start payment.", intentErr.UserMessage())

	// No intent exists, so nothing to compensate
	assert.Equal(t, 0, f.backend.cancelCalls)
	assert.Equal(t, 0, f.sheet.initCalls)
}

func TestCheckout_InitFailure_CompensatesAndNeverPresents(t *testing.T) {
	f := newCheckoutFixture()
	f.sheet.initErr = errors.New("session rejected")

	result, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())

	assert.Nil(t, result)
	var initErr *GatewayInitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "Couldn't start the payment, try again.", initErr.UserMessage())

	assert.Equal(t, 0, f.sheet.presentCalls, "present must never run after a failed init")
	assert.Equal(t, 1, f.backend.cancelCalls, "the orphaned intent is canceled exactly once")
	assert.Equal(t, 0, f.backend.confirmCalls)
	assert.Equal(t, entity.StateFailed, f.runs.states[len(f.runs.states)-1])
	assert.False(t, f.runs.canceled)
}

func TestCheckout_UserCanceledAtGateway(t *testing.T) {
	f := newCheckoutFixture()
	f.sheet.presentErr = &gateway.PresentError{Code: "Canceled", Message: "Payment canceled"}

	result, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())

	assert.Nil(t, result)
	var canceledErr *UserCanceledError
	require.ErrorAs(t, err, &canceledErr)
	assert.Equal(t, "Payment canceled. You can try again anytime.", canceledErr.UserMessage())

	assert.Equal(t, 1, f.backend.cancelCalls)
	assert.Equal(t, 0, f.backend.confirmCalls)
	assert.True(t, f.runs.canceled)
	assert.Equal(t, entity.StateFailed, f.runs.states[len(f.runs.states)-1])
}

func TestCheckout_PresentFailure_SurfacesGatewayMessage(t *testing.T) {
	f := newCheckoutFixture()
	f.sheet.presentErr = &gateway.PresentError{Code: "Failed", Message: "Your card was declined"}

	result, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())

	assert.Nil(t, result)
	var presentErr *GatewayPresentError
	require.ErrorAs(t, err, &presentErr)
	assert.Equal(t, "Your card was declined", presentErr.UserMessage())

	assert.Equal(t, 1, f.backend.cancelCalls)
	assert.False(t, f.runs.canceled)
}

func TestCheckout_ConfirmRetriesThenSucceeds(t *testing.T) {
	f := newCheckoutFixture()
	f.backend.confirmErrs = []error{
		errors.New("backend returned 503"),
		errors.New("backend returned 503"),
	}

	result, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())

	require.NoError(t, err)
	require.NotNil(t, result.Booking)
	assert.Equal(t, 3, f.backend.confirmCalls)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 900 * time.Millisecond}, f.slept)
	assert.Equal(t, 0, f.backend.cancelCalls, "no compensation once confirming has begun")
	assert.Equal(t, 1, f.reminders.calls)
}

func TestCheckout_ConfirmExhausted_NoCompensation(t *testing.T) {
	f := newCheckoutFixture()
	lastErr := errors.New("backend returned 500")
	f.backend.confirmErrs = []error{
		errors.New("backend returned 503"),
		errors.New("backend returned 503"),
		lastErr,
	}

	result, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())

	assert.Nil(t, result)
	var confirmErr *ConfirmationError
	require.ErrorAs(t, err, &confirmErr)
	assert.Equal(t, 3, confirmErr.Attempts)
	assert.ErrorIs(t, err, lastErr)

	assert.Equal(t, 3, f.backend.confirmCalls)
	assert.Equal(t, 0, f.backend.cancelCalls, "the charged intent must not be canceled")
	assert.Equal(t, 0, f.reminders.calls)
	assert.Equal(t, entity.StateFailed, f.runs.states[len(f.runs.states)-1])

	// The guard is released on failure: the same draft can be retried
	f.backend.confirmErrs = nil
	retryResult, retryErr := f.service.Checkout(context.Background(), "tok", checkoutRequest())
	require.NoError(t, retryErr)
	assert.NotNil(t, retryResult.Booking)
}

func TestCheckout_SingleFlightPerDraft(t *testing.T) {
	f := newCheckoutFixture()
	f.sheet.presentGate = make(chan struct{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())
		firstDone <- err
	}()

	// Wait until the first run is parked inside Present
	require.Eventually(t, func() bool {
		f.runs.mu.Lock()
		defer f.runs.mu.Unlock()
		for _, state := range f.runs.states {
			if state == entity.StateGatewayPresent {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	_, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	close(f.sheet.presentGate)
	require.NoError(t, <-firstDone)

	assert.Equal(t, 1, f.backend.createCalls, "the second invocation must not start a new run")
}

func TestCheckout_CompensationFailureIsSwallowed(t *testing.T) {
	f := newCheckoutFixture()
	f.sheet.initErr = errors.New("session rejected")
	f.backend.cancelErr = errors.New("cancel endpoint down")

	_, err := f.service.Checkout(context.Background(), "tok", checkoutRequest())

	// The original gateway error surfaces, not the cancel failure
	var initErr *GatewayInitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, 1, f.backend.cancelCalls)
}

func TestCheckout_RejectsInvalidWindow(t *testing.T) {
	f := newCheckoutFixture()
	req := checkoutRequest()
	req.From = "2026-09-10T18:00:00Z"
	req.To = "2026-09-10T09:00:00Z"

	_, err := f.service.Checkout(context.Background(), "tok", req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "end time must be after start time")
	assert.Equal(t, 0, f.backend.createCalls)
}

func TestCheckout_RejectsInvalidPlate(t *testing.T) {
	f := newCheckoutFixture()
	plate := "AB-123!"
	req := checkoutRequest()
	req.VehiclePlate = &plate

	_, err := f.service.Checkout(context.Background(), "tok", req)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "vehicle plate")
	assert.Equal(t, 0, f.backend.createCalls)
}

func TestGetQuote(t *testing.T) {
	f := newCheckoutFixture()

	quote, err := f.service.GetQuote(context.Background(), "tok",
		testListingID.String(), "2026-09-10T09:00:00Z", "2026-09-11T15:00:00Z")

	require.NoError(t, err)
	assert.Equal(t, 2, quote.Days)
	assert.Equal(t, 30, quote.DurationHours)
	assert.Equal(t, 24.0, quote.Total)
	assert.Equal(t, int64(2400), quote.TotalCents)
	assert.Equal(t, "Dawson Street garage", quote.Title)
}
