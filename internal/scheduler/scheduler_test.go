package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"diarybot/internal/adapters/storage"
	"diarybot/internal/core/domain"
)

type fakeMessenger struct {
	nextID  int
	texts   []string
	deleted []int
}

func (f *fakeMessenger) Send(_ context.Context, _ int64, text string, _ *domain.Keyboard) (int, error) {
	f.nextID++
	f.texts = append(f.texts, text)
	return f.nextID, nil
}

func (f *fakeMessenger) SendHTML(_ context.Context, _ int64, text string) (int, error) {
	f.nextID++
	f.texts = append(f.texts, text)
	return f.nextID, nil
}

func (f *fakeMessenger) EditHTML(context.Context, int64, int, string) error { return nil }

func (f *fakeMessenger) Delete(_ context.Context, _ int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) all() string { return strings.Join(f.texts, "\n---\n") }

func newTestScheduler(t *testing.T) (*Scheduler, *fakeMessenger, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	msg := &fakeMessenger{}
	s := New(store, msg, zap.NewNop())
	return s, msg, store
}

// at fixes the scheduler clock to the given Monday-week time in UTC.
func at(s *Scheduler, hour, minute int) {
	s.now = func() time.Time {
		return time.Date(2025, 5, 12, hour, minute, 0, 0, time.UTC)
	}
}

func utcUser(name string) *domain.User {
	u := domain.NewUser(name)
	u.Timezone = "UTC"
	u.NotificationTime = "09:00"
	u.SetupComplete = true
	return u
}

func TestMorningFiresAtNotificationTime(t *testing.T) {
	s, msg, store := newTestScheduler(t)
	u := utcUser("Аня")
	u.Plans["Понедельник"] = []domain.Plan{{Text: "зарядка"}}
	require.NoError(t, store.SaveUser(1, u))

	at(s, 8, 59)
	s.Tick(context.Background())
	assert.Empty(t, msg.texts)

	at(s, 9, 0)
	s.Tick(context.Background())
	require.Len(t, msg.texts, 1)
	assert.Contains(t, msg.texts[0], "Понедельник")
	assert.Contains(t, msg.texts[0], "• зарядка")

	got, _ := store.User(1)
	assert.NotZero(t, got.LastMessageID)
}

func TestMorningReplacesPreviousFocusMessage(t *testing.T) {
	s, msg, store := newTestScheduler(t)
	u := utcUser("Аня")
	u.LastMessageID = 77
	require.NoError(t, store.SaveUser(1, u))

	at(s, 9, 0)
	s.Tick(context.Background())
	assert.Contains(t, msg.deleted, 77)
}

func TestMorningSkippedBeforeSetupComplete(t *testing.T) {
	s, msg, store := newTestScheduler(t)
	u := utcUser("Аня")
	u.SetupComplete = false
	require.NoError(t, store.SaveUser(1, u))

	at(s, 9, 0)
	s.Tick(context.Background())
	assert.Empty(t, msg.texts)
}

func TestMorningUsesDefaultTimeWhenUnset(t *testing.T) {
	s, msg, store := newTestScheduler(t)
	u := utcUser("Аня")
	u.NotificationTime = ""
	require.NoError(t, store.SaveUser(1, u))

	at(s, 9, 0)
	s.Tick(context.Background())
	assert.Len(t, msg.texts, 1)
}

func TestReminderFiresOncePerDay(t *testing.T) {
	s, msg, store := newTestScheduler(t)
	u := utcUser("Аня")
	u.Plans["Понедельник"] = []domain.Plan{{Time: "14:30", Text: "позвонить врачу"}}
	require.NoError(t, store.SaveUser(1, u))

	at(s, 14, 30)
	s.Tick(context.Background())
	require.Len(t, msg.texts, 1)
	assert.Contains(t, msg.texts[0], "⏰ Сейчас 14:30 — позвонить врачу")

	// A second tick in the same minute must not repeat the reminder.
	s.Tick(context.Background())
	assert.Len(t, msg.texts, 1)

	got, _ := store.User(1)
	assert.True(t, got.SentReminders["2025-05-12_14:30_позвонить врачу"])
}

func TestReminderIgnoresUntimedPlans(t *testing.T) {
	s, msg, store := newTestScheduler(t)
	u := utcUser("Аня")
	u.Plans["Понедельник"] = []domain.Plan{{Text: "без времени"}}
	require.NoError(t, store.SaveUser(1, u))

	at(s, 14, 30)
	s.Tick(context.Background())
	assert.Empty(t, msg.texts)
}

func TestSummaryAtEndOfDayOnce(t *testing.T) {
	s, msg, store := newTestScheduler(t)
	u := utcUser("Аня")
	u.Plans["Понедельник"] = []domain.Plan{{Text: "зарядка"}}
	require.NoError(t, store.SaveUser(1, u))

	at(s, 23, 59)
	s.Tick(context.Background())
	require.Len(t, msg.texts, 1)
	assert.Contains(t, msg.texts[0], "/itog")

	s.Tick(context.Background())
	assert.Len(t, msg.texts, 1, "summary must be deduped by last_summary_date")

	got, _ := store.User(1)
	assert.Equal(t, "2025-05-12", got.LastSummaryDate)
}

func TestTickUsesUserTimezone(t *testing.T) {
	s, msg, store := newTestScheduler(t)
	u := utcUser("Аня")
	u.Timezone = "Asia/Irkutsk" // UTC+8
	require.NoError(t, store.SaveUser(1, u))

	// 01:00 UTC is 09:00 in Irkutsk.
	at(s, 1, 0)
	s.Tick(context.Background())
	assert.Len(t, msg.texts, 1)
	assert.Contains(t, msg.all(), "Понедельник")
}
