package repository

import (
	"context"
	"fmt"

	"parking-booking/internal/data/entity"
	"parking-booking/pkg/database"

	"go.uber.org/zap"
)

type ReminderRepository interface {
	Create(ctx context.Context, reminder *entity.Reminder) error
	FindByBookingReference(ctx context.Context, reference string) ([]*entity.Reminder, error)
}

type reminderRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReminderRepository(db database.PgxIface, log *zap.Logger) ReminderRepository {
	return &reminderRepository{
		db:  db,
		log: log.With(zap.String("repository", "reminder")),
	}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *entity.Reminder) error {
	query := `
		INSERT INTO reminders (id, booking_reference, title, body, trigger_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		reminder.ID,
		reminder.BookingReference,
		reminder.Title,
		reminder.Body,
		reminder.TriggerAt,
		reminder.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create reminder",
			zap.Error(err),
			zap.String("booking_reference", reminder.BookingReference),
		)
		return fmt.Errorf("create reminder for booking %s: %w", reminder.BookingReference, err)
	}

	return nil
}

func (r *reminderRepository) FindByBookingReference(ctx context.Context, reference string) ([]*entity.Reminder, error) {
	query := `
		SELECT id, booking_reference, title, body, trigger_at, created_at
		FROM reminders
		WHERE booking_reference = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, reference)
	if err != nil {
		r.log.Error("Failed to find reminders by booking reference",
			zap.Error(err),
			zap.String("booking_reference", reference),
		)
		return nil, fmt.Errorf("find reminders for booking %s: %w", reference, err)
	}
	defer rows.Close()

	var reminders []*entity.Reminder
	for rows.Next() {
		var reminder entity.Reminder
		if err := rows.Scan(
			&reminder.ID,
			&reminder.BookingReference,
			&reminder.Title,
			&reminder.Body,
			&reminder.TriggerAt,
			&reminder.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reminder row: %w", err)
		}
		reminders = append(reminders, &reminder)
	}

	return reminders, rows.Err()
}
