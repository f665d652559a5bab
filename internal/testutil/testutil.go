package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/spendwise/spendwise/internal/model"
)

// RequireEnv returns the variable or skips the test when it is unset.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731905

// AcquireDBLock holds a session advisory lock so packages sharing one
// database run their integration tests one at a time.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// Migration file stems, in apply order.
var schemaMigrations = []string{
	"000001_users",
	"000002_expenses",
	"000003_api_keys",
}

// ResetSchema drops every table and reapplies the up migrations.
// Down files run in reverse order so foreign keys unwind cleanly.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i := len(schemaMigrations) - 1; i >= 0; i-- {
		if err := execMigrationFile(ctx, pool, schemaMigrations[i]+".down.sql"); err != nil {
			return err
		}
	}
	for _, stem := range schemaMigrations {
		if err := execMigrationFile(ctx, pool, stem+".up.sql"); err != nil {
			return err
		}
	}
	return nil
}

// ExecMigrationFile runs one migration file by name against pool.
func ExecMigrationFile(ctx context.Context, pool *pgxpool.Pool, name string) error {
	return execMigrationFile(ctx, pool, name)
}

func execMigrationFile(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	sql, err := os.ReadFile(filepath.Join(root, "internal", "repository", "migrations", name))
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot resolves the module root from this file's location.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// NewTestUser creates a user with a unique id and email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	now := time.Now().UTC()
	id := UniqueID("user")
	first := "Test"
	return &model.User{
		ID:        id,
		Email:     id + "@example.com",
		FirstName: &first,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestExpense creates an expense owned by userID with sensible defaults.
func NewTestExpense(t testing.TB, userID string) *model.Expense {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Expense{
		ID:        ulid.Make().String(),
		UserID:    userID,
		Name:      "Lunch",
		Amount:    1250,
		Date:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Category:  model.CategoryFood,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestAPIKey creates a test API key with sensible defaults.
func NewTestAPIKey(t testing.TB, userID string) *model.APIKey {
	t.Helper()
	now := time.Now().UTC()
	return &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        userID,
		KeyHash:       UniqueID("hash"),
		KeyPrefix:     "a1b2c3",
		Scopes:        []string{model.ScopeRead, model.ScopeWrite},
		RateLimitTier: model.TierFree,
		Name:          "Test Key",
		CreatedAt:     now,
	}
}

// UniqueID returns prefix joined to a fresh lower-case ULID.
func UniqueID(prefix string) string {
	return prefix + "-" + strings.ToLower(ulid.Make().String())
}
