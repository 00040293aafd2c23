package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"parking-booking/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockReminderRepo struct {
	created   []*entity.Reminder
	createErr error
}

func (m *mockReminderRepo) Create(_ context.Context, reminder *entity.Reminder) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, reminder)
	return nil
}

func (m *mockReminderRepo) FindByBookingReference(_ context.Context, _ string) ([]*entity.Reminder, error) {
	return m.created, nil
}

func newReminderFixture(repo *mockReminderRepo, now time.Time) *reminderService {
	return &reminderService{
		repo:      repo,
		startLead: time.Hour,
		endLead:   30 * time.Minute,
		log:       zap.NewNop(),
		now:       func() time.Time { return now },
	}
}

func futureBooking(now time.Time) *entity.Booking {
	return &entity.Booking{
		Reference: "PARK-20260910-090000-0001",
		StartTime: now.Add(4 * time.Hour),
		EndTime:   now.Add(8 * time.Hour),
		Status:    entity.BookingStatusConfirmed,
	}
}

func TestScheduleReminders_AllInFuture(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockReminderRepo{}
	svc := newReminderFixture(repo, now)
	booking := futureBooking(now)

	svc.ScheduleReminders(context.Background(), booking)

	require.Len(t, repo.created, 3)

	assert.Equal(t, "Booking confirmed", repo.created[0].Title)
	assert.Nil(t, repo.created[0].TriggerAt, "confirmation notice fires immediately")

	assert.Equal(t, "Parking starts soon", repo.created[1].Title)
	assert.Equal(t, booking.StartTime.Add(-time.Hour), *repo.created[1].TriggerAt)

	assert.Equal(t, "Parking ends soon", repo.created[2].Title)
	assert.Equal(t, booking.EndTime.Add(-30*time.Minute), *repo.created[2].TriggerAt)
}

func TestScheduleReminders_SkipsPastTriggers(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockReminderRepo{}
	svc := newReminderFixture(repo, now)

	// Session already started; only the end reminder is still ahead
	booking := &entity.Booking{
		Reference: "PARK-20260910-090000-0002",
		StartTime: now.Add(-2 * time.Hour),
		EndTime:   now.Add(2 * time.Hour),
	}

	svc.ScheduleReminders(context.Background(), booking)

	require.Len(t, repo.created, 2)
	assert.Equal(t, "Booking confirmed", repo.created[0].Title)
	assert.Equal(t, "Parking ends soon", repo.created[1].Title)
}

func TestScheduleReminders_SwallowsRepositoryErrors(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	repo := &mockReminderRepo{createErr: errors.New("db down")}
	svc := newReminderFixture(repo, now)

	// Must not panic or propagate anything
	svc.ScheduleReminders(context.Background(), futureBooking(now))

	assert.Empty(t, repo.created)
}
