package usecase

import (
	"context"
	"time"

	"parking-booking/internal/data/entity"
	"parking-booking/internal/data/repository"
	"parking-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReminderService schedules local notifications for a confirmed booking.
// Strictly best-effort: a booking that is already confirmed must never be
// downgraded to an error by a reminder problem, so nothing is returned.
type ReminderService interface {
	ScheduleReminders(ctx context.Context, booking *entity.Booking)
}

type reminderService struct {
	repo      repository.ReminderRepository
	startLead time.Duration
	endLead   time.Duration
	log       *zap.Logger

	// now is replaceable in tests
	now func() time.Time
}

func NewReminderService(repo repository.ReminderRepository, config utils.ReminderConfig, log *zap.Logger) ReminderService {
	return &reminderService{
		repo:      repo,
		startLead: time.Duration(config.StartLeadMinutes) * time.Minute,
		endLead:   time.Duration(config.EndLeadMinutes) * time.Minute,
		log:       log.With(zap.String("service", "reminder")),
		now:       time.Now,
	}
}

func (s *reminderService) ScheduleReminders(ctx context.Context, booking *entity.Booking) {
	now := s.now()

	// Immediate confirmation notice
	s.schedule(ctx, booking, "Booking confirmed", "Your reservation is saved in Upcoming.", nil)

	startAt := booking.StartTime.Add(-s.startLead)
	if startAt.After(now) {
		s.schedule(ctx, booking, "Parking starts soon", "Your parking session starts in an hour.", &startAt)
	}

	endAt := booking.EndTime.Add(-s.endLead)
	if endAt.After(now) {
		s.schedule(ctx, booking, "Parking ends soon", "Your parking session ends in 30 minutes.", &endAt)
	}
}

func (s *reminderService) schedule(ctx context.Context, booking *entity.Booking, title, body string, triggerAt *time.Time) {
	reminder := &entity.Reminder{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		BookingReference: booking.Reference,
		Title:            title,
		Body:             body,
		TriggerAt:        triggerAt,
	}

	if err := s.repo.Create(ctx, reminder); err != nil {
		s.log.Warn("Failed to schedule reminder",
			zap.Error(err),
			zap.String("booking_reference", booking.Reference),
			zap.String("title", title),
		)
		return
	}

	s.log.Debug("Reminder scheduled",
		zap.String("booking_reference", booking.Reference),
		zap.String("title", title),
		zap.Timep("trigger_at", triggerAt),
	)
}
