package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
)

// memExpenses is an in-memory service.ExpenseStore with the repository's
// ownership contract.
type memExpenses struct {
	mu       sync.Mutex
	users    map[string]bool
	expenses map[string]*model.Expense
	failWith error
}

func newMemExpenses(userIDs ...string) *memExpenses {
	s := &memExpenses{users: make(map[string]bool), expenses: make(map[string]*model.Expense)}
	for _, id := range userIDs {
		s.users[id] = true
	}
	return s
}

func (s *memExpenses) CreateExpense(_ context.Context, e *model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if !s.users[e.UserID] {
		return repository.ErrUserNotFound
	}
	s.expenses[e.ID] = e.Clone()
	return nil
}

func (s *memExpenses) GetExpenseForUser(_ context.Context, id, userID string) (*model.Expense, error) {
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

func (s *memExpenses) ListExpensesByUser(_ context.Context, userID string, filter repository.ExpenseFilter) ([]*model.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []*model.Expense
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
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *memExpenses) UpdateExpenseForUser(_ context.Context, e *model.Expense) error {
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

func (s *memExpenses) DeleteExpenseForUser(_ context.Context, id, userID string) error {
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

func (s *memExpenses) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expenses)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asCaller injects a session principal for userID. An empty userID leaves
// the request anonymous.
func asCaller(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				r = r.WithContext(auth.ContextWithAuth(r.Context(), &model.AuthContext{
					UserID: userID,
					Source: model.SourceSession,
					Scopes: model.ValidScopes,
				}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// expenseRouter mounts the expense routes the way the server does,
// minus auth and rate limiting.
func expenseRouter(h *ExpenseHandler, callerID string) http.Handler {
	r := chi.NewRouter()
	r.Use(asCaller(callerID))
	r.Get("/expense", h.List)
	r.Post("/expense", h.Create)
	r.Put("/expense", h.Replace)
	r.Delete("/expense", h.Delete)
	r.Get("/expense/{id}", h.Get)
	r.Patch("/expense/{id}", h.Patch)
	r.Delete("/expense/{id}", h.DeleteByPath)
	return r
}
