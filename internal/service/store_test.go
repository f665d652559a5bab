package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
)

// memStore mimics the repository's ownership and error contract in memory.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	expenses map[string]*model.Expense
	keys     map[string]*model.APIKey
	failWith error
}

func newMemStore(userIDs ...string) *memStore {
	s := &memStore{
		users:    make(map[string]*model.User),
		expenses: make(map[string]*model.Expense),
		keys:     make(map[string]*model.APIKey),
	}
	for _, id := range userIDs {
		s.users[id] = &model.User{ID: id, Email: id + "@example.com"}
	}
	return s
}

func (s *memStore) CreateExpense(_ context.Context, e *model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.users[e.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	s.expenses[e.ID] = e.Clone()
	return nil
}

func (s *memStore) GetExpenseForUser(_ context.Context, id, userID string) (*model.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return nil, repository.ErrExpenseNotFound
	}
	return e.Clone(), nil
}

func (s *memStore) ListExpensesByUser(_ context.Context, userID string, filter repository.ExpenseFilter) ([]*model.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([]*model.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Date.After(*filter.To) {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *memStore) UpdateExpenseForUser(_ context.Context, e *model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	cur, ok := s.expenses[e.ID]
	if !ok || cur.UserID != e.UserID {
		return repository.ErrExpenseNotFound
	}
	s.expenses[e.ID] = e.Clone()
	return nil
}

func (s *memStore) DeleteExpenseForUser(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	cur, ok := s.expenses[id]
	if !ok || cur.UserID != userID {
		return repository.ErrExpenseNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) UpsertUser(_ context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for id, other := range s.users {
		if id != user.ID && other.Email == user.Email {
			return nil, repository.ErrEmailExists
		}
	}
	cp := *user
	if existing, ok := s.users[user.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.users[user.ID] = &cp
	out := cp
	return &out, nil
}

func (s *memStore) CreateAPIKey(_ context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *key
	s.keys[key.ID] = &cp
	return nil
}

func (s *memStore) ListAPIKeysByUserID(_ context.Context, userID string) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.APIKey, 0)
	for _, k := range s.keys {
		if k.UserID == userID {
			cp := *k
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) RevokeAPIKeyForUser(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok || k.UserID != userID || k.RevokedAt != nil {
		return repository.ErrAPIKeyNotFound
	}
	now := time.Now().UTC()
	k.RevokedAt = &now
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expenses)
}

var errBoom = errors.New("connection reset by peer")
