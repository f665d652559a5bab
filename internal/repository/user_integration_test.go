//go:build integration

package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/testutil"
)

func TestIntegrationUserRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t)
	require.NoError(t, repo.CreateUser(ctx, user))

	byID, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
	assert.Equal(t, user.FirstName, byID.FirstName)
}

func TestIntegrationUserRepository_NotFound(t *testing.T) {
	ctx, repo := newTestEnv(t)

	_, err := repo.GetUserByID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestIntegrationUserRepository_DuplicateEmail(t *testing.T) {
	ctx, repo := newTestEnv(t)

	first := testutil.NewTestUser(t)
	require.NoError(t, repo.CreateUser(ctx, first))

	second := testutil.NewTestUser(t)
	second.Email = first.Email
	assert.ErrorIs(t, repo.CreateUser(ctx, second), ErrEmailExists)
}

func TestIntegrationUserRepository_UpsertRefreshesProfile(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t)
	created, err := repo.UpsertUser(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, created.FirstName)
	assert.Equal(t, "Test", *created.FirstName)
	assert.Nil(t, created.LastName)

	last := "Person"
	renamed := &model.User{
		ID:        user.ID,
		Email:     "renamed-" + user.Email,
		FirstName: user.FirstName,
		LastName:  &last,
	}
	updated, err := repo.UpsertUser(ctx, renamed)
	require.NoError(t, err)

	assert.Equal(t, renamed.Email, updated.Email)
	require.NotNil(t, updated.LastName)
	assert.Equal(t, "Person", *updated.LastName)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt), "created_at must survive an upsert")
}

func TestIntegrationUserRepository_UpsertEmailConflict(t *testing.T) {
	ctx, repo := newTestEnv(t)

	owner := mustCreateUser(t, ctx, repo)
	_, err := repo.UpsertUser(ctx, &model.User{ID: "someone-else", Email: owner.Email})
	assert.ErrorIs(t, err, ErrEmailExists)
}
