package repository

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	files := make(map[string]bool, len(names))
	for _, name := range names {
		files[name] = true
	}

	for _, name := range names {
		if stem, ok := strings.CutSuffix(name, ".up.sql"); ok {
			assert.True(t, files[stem+".down.sql"], "%s has no down migration", name)
			continue
		}
		stem, ok := strings.CutSuffix(name, ".down.sql")
		require.True(t, ok, "unexpected migration file %s", name)
		assert.True(t, files[stem+".up.sql"], "%s has no up migration", name)
	}
}

func TestExpensesMigrationPinsCategories(t *testing.T) {
	sql, err := fs.ReadFile(migrationsFS, "migrations/000002_expenses.up.sql")
	require.NoError(t, err)

	for _, category := range []string{"FOOD", "TRANSPORT", "ENTERTAINMENT", "HOUSING", "SHOPPING", "HEALTH", "UTILITIES", "OTHER"} {
		assert.Contains(t, string(sql), "'"+category+"'")
	}
	assert.Contains(t, string(sql), "CHECK (amount > 0)")
}
