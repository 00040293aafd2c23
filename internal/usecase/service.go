package usecase

import (
	"parking-booking/internal/data/repository"
	"parking-booking/internal/gateway"
	"parking-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Checkout CheckoutService
	Reminder ReminderService
}

func NewService(
	repo *repository.Repository,
	backend gateway.BackendClient,
	newSheet func() gateway.PaymentSheet,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	reminder := NewReminderService(repo.Reminder, config.Reminder, log)

	return &Service{
		Checkout: NewCheckoutService(repo, backend, newSheet, reminder, config, log),
		Reminder: reminder,
	}
}
