package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
)

var (
	// ErrIdentityWithoutEmail means a session carried no email to mirror.
	ErrIdentityWithoutEmail = errors.New("identity has no email claim")
	// ErrEmailTaken means another mirrored account already owns the email.
	ErrEmailTaken = errors.New("email belongs to another user")
)

// UserStore is the persistence the user service needs.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpsertUser(ctx context.Context, user *model.User) (*model.User, error)
}

// UserService manages the local mirror of identity-provider accounts.
type UserService struct {
	store UserStore
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Profile returns the caller's mirrored account.
func (s *UserService) Profile(ctx context.Context, callerID string) (*model.User, error) {
	if callerID == "" {
		return nil, auth.ErrUnauthenticated
	}

	user, err := s.store.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Mirror records the identity claims of a verified session.
func (s *UserService) Mirror(ctx context.Context, identity *auth.Identity) (*model.User, error) {
	if identity == nil || identity.UserID == "" {
		return nil, auth.ErrUnauthenticated
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, ErrIdentityWithoutEmail
	}

	user, err := s.store.UpsertUser(ctx, &model.User{
		ID:        identity.UserID,
		Email:     email,
		FirstName: nonEmpty(identity.FirstName),
		LastName:  nonEmpty(identity.LastName),
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to mirror user: %w", err)
	}

	return user, nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
