package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pastprep-server/catalog"
	"pastprep-server/models"
)

// MemoryStore is an in-process Store with the same semantics as the Mongo
// backend. It backs the test suite and runs the server without a mongod
// for local development.
type MemoryStore struct {
	mu    sync.RWMutex
	goals map[string]models.Goal
	mocks map[string]models.MockExam
	users map[string]models.User
	prefs map[string][]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		goals: map[string]models.Goal{},
		mocks: map[string]models.MockExam{},
		users: map[string]models.User{},
		prefs: map[string][]string{},
	}
}

func (s *MemoryStore) AddGoal(_ context.Context, goal models.Goal) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal.Path = catalog.NormalizePath(goal.Path)
	for _, g := range s.goals {
		if g.UserEmail == goal.UserEmail && g.Path == goal.Path {
			return nil, ErrAlreadyExists
		}
	}
	goal.ID = uuid.NewString()
	goal.Added = time.Now().UTC()
	goal.Completed = false
	goal.CompletedDate = nil
	goal.CompletedAsMock = false
	goal.MockScore = nil
	s.goals[goal.ID] = goal
	return &goal, nil
}

func (s *MemoryStore) ListGoals(_ context.Context, userEmail string) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var goals []models.Goal
	for _, g := range s.goals {
		if g.UserEmail == userEmail {
			goals = append(goals, g)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].Added.After(goals[j].Added) })
	return goals, nil
}

func (s *MemoryStore) SetGoalCompletion(_ context.Context, userEmail, goalID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok || g.UserEmail != userEmail {
		return ErrNotFound
	}
	g.Completed = completed
	if completed {
		now := time.Now().UTC()
		g.CompletedDate = &now
	} else {
		g.CompletedDate = nil
	}
	s.goals[goalID] = g
	return nil
}

func (s *MemoryStore) DeleteGoal(_ context.Context, userEmail, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok || g.UserEmail != userEmail {
		return ErrNotFound
	}
	delete(s.goals, goalID)
	return nil
}

func (s *MemoryStore) AutoCompleteOnMock(_ context.Context, userEmail, path string, score float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := catalog.NormalizePath(path)
	now := time.Now().UTC()
	var count int64
	for id, g := range s.goals {
		if g.UserEmail != userEmail || g.Path != norm {
			continue
		}
		sc := score
		g.Completed = true
		g.CompletedDate = &now
		g.CompletedAsMock = true
		g.MockScore = &sc
		s.goals[id] = g
		count++
	}
	return count, nil
}

func (s *MemoryStore) RecordMockExam(_ context.Context, exam models.MockExam) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exam.ID = uuid.NewString()
	exam.RawPath = catalog.NormalizePath(exam.RawPath)
	if exam.CompletedAt.IsZero() {
		exam.CompletedAt = time.Now().UTC()
	}
	s.mocks[exam.ID] = exam
	return exam.ID, nil
}

func (s *MemoryStore) GetMockExam(_ context.Context, examID string) (*models.MockExam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.mocks[examID]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *MemoryStore) AttachMockScore(_ context.Context, examID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mocks[examID]
	if !ok {
		return ErrNotFound
	}
	m.Score = &score
	s.mocks[examID] = m
	return nil
}

func (s *MemoryStore) ListMockExams(_ context.Context, userEmail string) ([]models.MockExam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exams []models.MockExam
	for _, m := range s.mocks {
		if m.UserEmail == userEmail {
			exams = append(exams, m)
		}
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].CompletedAt.After(exams[j].CompletedAt) })
	return exams, nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored, ok := s.users[user.Email]
	if !ok {
		stored = models.User{
			Email:     user.Email,
			Status:    models.StatusActive,
			CreatedAt: now,
		}
	}
	stored.Name = user.Name
	stored.Picture = user.Picture
	stored.Role = user.Role
	stored.LastLogin = now
	s.users[user.Email] = stored
	return &stored, nil
}

func (s *MemoryStore) GetUser(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []models.User
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (s *MemoryStore) SetUserBanned(_ context.Context, email string, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return ErrNotFound
	}
	u.IsBanned = banned
	if banned {
		u.Status = models.StatusBanned
	} else {
		u.Status = models.StatusActive
	}
	s.users[email] = u
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; !ok {
		return ErrNotFound
	}
	delete(s.users, email)
	return nil
}

func (s *MemoryStore) GetSubjectPreferences(_ context.Context, email string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs := s.prefs[email]
	out := make([]string, len(prefs))
	copy(out, prefs)
	return out, nil
}

func (s *MemoryStore) SetSubjectPreferences(_ context.Context, email string, subjects []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := make([]string, len(subjects))
	copy(prefs, subjects)
	s.prefs[email] = prefs
	return nil
}
