package ports

import "diarybot/internal/core/domain"

// DiaryStore persists users and their global plans. Implementations must be
// safe for concurrent use: the conversation engine and the scheduler both
// read-modify-write user records.
type DiaryStore interface {
	// User returns the stored user or nil when unknown.
	User(id int64) (*domain.User, error)
	SaveUser(id int64, u *domain.User) error
	// Users returns a snapshot of all users; mutating it does not persist.
	Users() (map[int64]*domain.User, error)

	GlobalPlans(id int64) ([]string, error)
	SaveGlobalPlans(id int64, plans []string) error
	DeleteGlobalPlans(id int64) error
}
