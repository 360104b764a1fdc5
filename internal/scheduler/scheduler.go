// Package scheduler delivers the time-driven side of the diary: the morning
// focus message, per-plan reminders and the evening wrap-up.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"diarybot/internal/core/domain"
	"diarybot/internal/core/ports"
)

// DefaultNotificationTime is used for users who never answered the time prompt.
const DefaultNotificationTime = "09:00"

// Scheduler wakes up every minute and checks each user's wall clock. All
// comparisons happen in the user's own timezone.
type Scheduler struct {
	store    ports.DiaryStore
	msg      ports.Messenger
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
}

func New(store ports.DiaryStore, messenger ports.Messenger, log *zap.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		msg:      messenger,
		log:      log,
		interval: time.Minute,
		now:      time.Now,
	}
}

// Run ticks until the context is cancelled. A failing tick is logged and the
// loop keeps going; one user's error never blocks the others.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one pass over all users.
func (s *Scheduler) Tick(ctx context.Context) {
	users, err := s.store.Users()
	if err != nil {
		s.log.Error("failed to load users", zap.Error(err))
		return
	}
	now := s.now()

	for id, u := range users {
		userNow := u.Now(now)
		clock := userNow.Format("15:04")
		today := userNow.Format("2006-01-02")
		dayName := domain.WeekdayName(userNow)

		notifyAt := u.NotificationTime
		if notifyAt == "" {
			notifyAt = DefaultNotificationTime
		}
		if clock == notifyAt && u.SetupComplete {
			s.sendMorning(ctx, id, u, userNow, dayName)
		}

		s.sendDueReminders(ctx, id, u, clock, today, dayName)

		if clock == domain.SummaryTime && u.SetupComplete && u.LastSummaryDate != today {
			s.sendSummary(ctx, id, u, userNow, dayName, today)
		}
	}
}

// sendMorning replaces yesterday's focus message with today's.
func (s *Scheduler) sendMorning(ctx context.Context, id int64, u *domain.User, userNow time.Time, dayName string) {
	global, err := s.store.GlobalPlans(id)
	if err != nil {
		s.log.Warn("failed to load global plans", zap.Int64("user", id), zap.Error(err))
	}
	text := domain.MorningMessage(userNow, u.Plans[dayName], global)

	if u.LastMessageID != 0 {
		if err := s.msg.Delete(ctx, id, u.LastMessageID); err != nil {
			s.log.Warn("failed to delete old focus message", zap.Int64("user", id), zap.Error(err))
		}
	}
	msgID, err := s.msg.Send(ctx, id, text, nil)
	if err != nil {
		s.log.Error("failed to send focus message", zap.Int64("user", id), zap.Error(err))
		return
	}
	u.LastMessageID = msgID
	if err := s.store.SaveUser(id, u); err != nil {
		s.log.Warn("failed to save user", zap.Int64("user", id), zap.Error(err))
	}
	s.log.Info("morning notification sent", zap.Int64("user", id))
}

// sendDueReminders fires per-plan reminders whose HH:MM matches now, at most
// once per plan per day.
func (s *Scheduler) sendDueReminders(ctx context.Context, id int64, u *domain.User, clock, today, dayName string) {
	for _, p := range u.Plans[dayName] {
		if p.Time != clock {
			continue
		}
		key := fmt.Sprintf("%s_%s_%s", today, p.Time, p.Text)
		if u.SentReminders[key] {
			continue
		}
		if _, err := s.msg.Send(ctx, id, fmt.Sprintf("⏰ Сейчас %s — %s", p.Time, p.Text), nil); err != nil {
			s.log.Error("failed to send reminder", zap.Int64("user", id), zap.Error(err))
			continue
		}
		u.SentReminders[key] = true
		if err := s.store.SaveUser(id, u); err != nil {
			s.log.Warn("failed to save user", zap.Int64("user", id), zap.Error(err))
		}
	}
}

func (s *Scheduler) sendSummary(ctx context.Context, id int64, u *domain.User, userNow time.Time, dayName, today string) {
	text := domain.EveningSummary(userNow, u.Plans[dayName])
	if _, err := s.msg.Send(ctx, id, text, nil); err != nil {
		s.log.Error("failed to send evening summary", zap.Int64("user", id), zap.Error(err))
		return
	}
	u.LastSummaryDate = today
	if err := s.store.SaveUser(id, u); err != nil {
		s.log.Warn("failed to save user", zap.Int64("user", id), zap.Error(err))
	}
	s.log.Info("evening summary sent", zap.Int64("user", id))
}
