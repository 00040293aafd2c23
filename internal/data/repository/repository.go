package repository

import (
	"parking-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	CheckoutRun CheckoutRunRepository
	Reminder    ReminderRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		CheckoutRun: NewCheckoutRunRepository(db, log),
		Reminder:    NewReminderRepository(db, log),
	}
}
