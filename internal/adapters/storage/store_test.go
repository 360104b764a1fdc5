package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diarybot/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestUserRoundtrip(t *testing.T) {
	s := newTestStore(t)

	u := domain.NewUser("Аня")
	u.NotificationTime = "09:00"
	u.Plans["Понедельник"] = []domain.Plan{{Time: "08:00", Text: "зарядка"}}
	require.NoError(t, s.SaveUser(42, u))

	got, err := s.User(42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Аня", got.Name)
	assert.Equal(t, "09:00", got.NotificationTime)
	assert.Equal(t, []domain.Plan{{Time: "08:00", Text: "зарядка"}}, got.Plans["Понедельник"])

	missing, err := s.User(7)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUsersSnapshot(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveUser(1, domain.NewUser("a")))
	require.NoError(t, s.SaveUser(2, domain.NewUser("b")))

	users, err := s.Users()
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "a", users[1].Name)
}

func TestLoadFillsLegacyDefaults(t *testing.T) {
	dir := t.TempDir()
	// A record the way an early bot version wrote it: no timezone, no
	// reminder bookkeeping, partial week.
	raw := `{"100": {"name": "старый", "plans": {"Понедельник": [{"text": "дело"}]},
		"sent_2025-05-12_14:30_позвонить врачу": true}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users_data.json"), []byte(raw), 0o644))

	s, err := New(dir)
	require.NoError(t, err)

	u, err := s.User(100)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, domain.DefaultTimezone, u.Timezone)
	assert.Len(t, u.Plans, len(domain.Weekdays))
	assert.Equal(t, "дело", u.Plans["Понедельник"][0].Text)
	assert.True(t, u.SentReminders["2025-05-12_14:30_позвонить врачу"])

	// The migrated flag must survive the first save in the new format.
	require.NoError(t, s.SaveUser(100, u))
	u, err = s.User(100)
	require.NoError(t, err)
	assert.True(t, u.SentReminders["2025-05-12_14:30_позвонить врачу"])
}

func TestGlobalPlans(t *testing.T) {
	s := newTestStore(t)

	plans, err := s.GlobalPlans(1)
	require.NoError(t, err)
	assert.Empty(t, plans)

	require.NoError(t, s.SaveGlobalPlans(1, []string{"выучить Go", "пробежать марафон"}))
	plans, err = s.GlobalPlans(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"выучить Go", "пробежать марафон"}, plans)

	require.NoError(t, s.DeleteGlobalPlans(1))
	plans, err = s.GlobalPlans(1)
	require.NoError(t, err)
	assert.Empty(t, plans)

	// Deleting a missing record is not an error.
	require.NoError(t, s.DeleteGlobalPlans(99))
}

func TestCorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users_data.json"), []byte("{broken"), 0o644))

	s, err := New(dir)
	require.NoError(t, err)
	_, err = s.User(1)
	assert.Error(t, err)
}

func TestSaveIsAtomic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveUser(1, domain.NewUser("a")))

	// No temp leftovers after a successful save.
	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
