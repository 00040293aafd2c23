package repository

import (
	"context"
	"fmt"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CheckoutRunRepository interface {
	Create(ctx context.Context, run *entity.CheckoutRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.CheckoutRun, error)

	// Business queries
	UpdateState(ctx context.Context, runID uuid.UUID, state entity.CheckoutState) error
	SetPaymentIntent(ctx context.Context, runID uuid.UUID, paymentIntentID string) error
	Finish(ctx context.Context, runID uuid.UUID, state entity.CheckoutState, canceled bool, message *string) error
}

type checkoutRunRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCheckoutRunRepository(db database.PgxIface, log *zap.Logger) CheckoutRunRepository {
	return &checkoutRunRepository{
		db:  db,
		log: log.With(zap.String("repository", "checkout_run")),
	}
}

func (r *checkoutRunRepository) Create(ctx context.Context, run *entity.CheckoutRun) error {
	query := `
		INSERT INTO checkout_runs (id, draft_key, listing_id, start_time, end_time, amount_cents, vehicle_plate, state, canceled, payment_intent_id, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		run.ID,
		run.DraftKey,
		run.ListingID,
		run.StartTime,
		run.EndTime,
		run.AmountCents,
		run.VehiclePlate,
		run.State,
		run.Canceled,
		run.PaymentIntentID,
		run.Message,
		run.CreatedAt,
		run.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create checkout run",
			zap.Error(err),
			zap.String("run_id", run.ID.String()),
			zap.String("listing_id", run.ListingID.String()),
		)
		return fmt.Errorf("create checkout run %s: %w", run.ID.String(), err)
	}

	return nil
}

func (r *checkoutRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.CheckoutRun, error) {
	query := `
		SELECT id, draft_key, listing_id, start_time, end_time, amount_cents, vehicle_plate, state, canceled, payment_intent_id, message, created_at, updated_at
		FROM checkout_runs
		WHERE id = $1
	`

	var run entity.CheckoutRun
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.DraftKey,
		&run.ListingID,
		&run.StartTime,
		&run.EndTime,
		&run.AmountCents,
		&run.VehiclePlate,
		&run.State,
		&run.Canceled,
		&run.PaymentIntentID,
		&run.Message,
		&run.CreatedAt,
		&run.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find checkout run by ID",
			zap.Error(err),
			zap.String("run_id", id.String()),
		)
		return nil, fmt.Errorf("find checkout run by ID %s: %w", id.String(), err)
	}

	return &run, nil
}

func (r *checkoutRunRepository) UpdateState(ctx context.Context, runID uuid.UUID, state entity.CheckoutState) error {
	query := `
		UPDATE checkout_runs
		SET state = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, runID, state)
	if err != nil {
		r.log.Error("Failed to update checkout run state",
			zap.Error(err),
			zap.String("run_id", runID.String()),
			zap.String("state", string(state)),
		)
		return fmt.Errorf("update checkout run %s state to %s: %w", runID.String(), string(state), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("checkout run %s not found", runID.String())
	}

	return nil
}

func (r *checkoutRunRepository) SetPaymentIntent(ctx context.Context, runID uuid.UUID, paymentIntentID string) error {
	query := `
		UPDATE checkout_runs
		SET payment_intent_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, runID, paymentIntentID)
	if err != nil {
		r.log.Error("Failed to set checkout run payment intent",
			zap.Error(err),
			zap.String("run_id", runID.String()),
			zap.String("payment_intent_id", paymentIntentID),
		)
		return fmt.Errorf("set checkout run %s payment intent: %w", runID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("checkout run %s not found", runID.String())
	}

	return nil
}

func (r *checkoutRunRepository) Finish(ctx context.Context, runID uuid.UUID, state entity.CheckoutState, canceled bool, message *string) error {
	query := `
		UPDATE checkout_runs
		SET state = $2, canceled = $3, message = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, runID, state, canceled, message)
	if err != nil {
		r.log.Error("Failed to finish checkout run",
			zap.Error(err),
			zap.String("run_id", runID.String()),
			zap.String("state", string(state)),
		)
		return fmt.Errorf("finish checkout run %s: %w", runID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("checkout run %s not found", runID.String())
	}

	return nil
}
