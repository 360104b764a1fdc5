// Package storage persists diary data in the two JSON files the bot has
// always used: users_data.json and global_plans.json.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"diarybot/internal/core/domain"
)

const (
	usersFile       = "users_data.json"
	globalPlansFile = "global_plans.json"
)

// Store implements ports.DiaryStore on top of JSON files. Every operation
// re-reads from disk, so an operator can inspect or fix the files while the
// bot is running; a mutex serializes handler and scheduler access.
type Store struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) usersPath() string  { return filepath.Join(s.dir, usersFile) }
func (s *Store) globalPath() string { return filepath.Join(s.dir, globalPlansFile) }

func (s *Store) User(id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	return users[keyOf(id)], nil
}

func (s *Store) SaveUser(id int64, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.loadUsers()
	if err != nil {
		return err
	}
	users[keyOf(id)] = u
	return s.saveJSON(s.usersPath(), users)
}

func (s *Store) Users() (map[int64]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	users := make(map[int64]*domain.User, len(raw))
	for key, u := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			// Foreign keys in a hand-edited file are skipped, not fatal.
			continue
		}
		users[id] = u
	}
	return users, nil
}

func (s *Store) GlobalPlans(id int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plans, err := s.loadGlobal()
	if err != nil {
		return nil, err
	}
	return plans[keyOf(id)], nil
}

func (s *Store) SaveGlobalPlans(id int64, userPlans []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plans, err := s.loadGlobal()
	if err != nil {
		return err
	}
	plans[keyOf(id)] = userPlans
	return s.saveJSON(s.globalPath(), plans)
}

func (s *Store) DeleteGlobalPlans(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plans, err := s.loadGlobal()
	if err != nil {
		return err
	}
	if _, ok := plans[keyOf(id)]; !ok {
		return nil
	}
	delete(plans, keyOf(id))
	return s.saveJSON(s.globalPath(), plans)
}

func (s *Store) loadUsers() (map[string]*domain.User, error) {
	users := make(map[string]*domain.User)
	if err := s.loadJSON(s.usersPath(), &users); err != nil {
		return nil, err
	}
	// Records written by older bot versions get their defaults filled here.
	for _, u := range users {
		u.Normalize()
	}
	return users, nil
}

func (s *Store) loadGlobal() (map[string][]string, error) {
	plans := make(map[string][]string)
	if err := s.loadJSON(s.globalPath(), &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *Store) loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// saveJSON writes via a temp file and rename so a crash mid-write never
// leaves a truncated data file behind.
func (s *Store) saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func keyOf(id int64) string { return strconv.FormatInt(id, 10) }
