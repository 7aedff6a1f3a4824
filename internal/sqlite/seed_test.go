// Tests for default reference data seeding.
package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

func defaultSubcategoryCount() int {
	n := 0
	for _, dc := range defaultCategories {
		n += len(dc.subcategories)
	}
	return n
}

func TestSeedDefaults(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend, userID string)
	}{
		{
			name: "flag is false until seeded",
			check: func(t *testing.T, b *Backend, userID string) {
				done, err := b.IsInitialized()
				require.NoError(t, err)
				assert.False(t, done)

				require.NoError(t, b.SeedDefaults(userID))

				done, err = b.IsInitialized()
				require.NoError(t, err)
				assert.True(t, done)
			},
		},
		{
			name: "seed inserts every default category and subcategory",
			check: func(t *testing.T, b *Backend, userID string) {
				require.NoError(t, b.SeedDefaults(userID))

				cats, err := b.GetTable(types.CategoriesTable)
				require.NoError(t, err)
				rows, err := cats.Fetch(types.Filter{"user_id": userID})
				require.NoError(t, err)
				assert.Len(t, rows, len(defaultCategories))

				subs, err := b.GetTable(types.SubcategoriesTable)
				require.NoError(t, err)
				rows, err = subs.Fetch(types.Filter{"user_id": userID})
				require.NoError(t, err)
				assert.Len(t, rows, defaultSubcategoryCount())
			},
		},
		{
			name: "seeding twice inserts nothing new",
			check: func(t *testing.T, b *Backend, userID string) {
				require.NoError(t, b.SeedDefaults(userID))
				require.NoError(t, b.SeedDefaults(userID))

				db, err := b.conn()
				require.NoError(t, err)
				assert.Equal(t, len(defaultCategories), countRows(t, db, "categories"))
				assert.Equal(t, defaultSubcategoryCount(), countRows(t, db, "subcategories"))
			},
		},
		{
			name: "seeded ids are stable per user",
			check: func(t *testing.T, b *Backend, userID string) {
				require.NoError(t, b.SeedDefaults(userID))

				cats, err := b.GetTable(types.CategoriesTable)
				require.NoError(t, err)
				got, err := cats.Get(seedID(userID, "food"))
				require.NoError(t, err)
				assert.Equal(t, "Food & Dining", got.(*types.Category).Name)

				assert.NotEqual(t, seedID(userID, "food"), seedID("someone-else", "food"))
			},
		},
		{
			name: "subcategories sit under their seeded category",
			check: func(t *testing.T, b *Backend, userID string) {
				require.NoError(t, b.SeedDefaults(userID))

				subs, err := b.GetTable(types.SubcategoriesTable)
				require.NoError(t, err)
				got, err := subs.Get(seedID(userID, "food/groceries"))
				require.NoError(t, err)
				assert.Equal(t, seedID(userID, "food"), got.(*types.Subcategory).CategoryID)
			},
		},
		{
			name: "unknown user is not found and leaves the flag unset",
			check: func(t *testing.T, b *Backend, userID string) {
				assert.ErrorIs(t, b.SeedDefaults("missing"), types.ErrNotFound)

				done, err := b.IsInitialized()
				require.NoError(t, err)
				assert.False(t, done)
			},
		},
		{
			name: "empty user id is rejected",
			check: func(t *testing.T, b *Backend, userID string) {
				assert.ErrorIs(t, b.SeedDefaults(""), types.ErrInvalidID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := openTestBackend(t)
			userID := createUser(t, b, "Ana")
			tt.check(t, b, userID)
		})
	}
}

func TestIsInitialized_AcceptsLegacyFlagValues(t *testing.T) {
	db, _ := openTestDB(t)
	_, err := newTestMigrator(db).Run(context.Background())
	require.NoError(t, err)

	for value, want := range map[string]bool{"true": true, "1": true, "false": false, "0": false} {
		_, err := db.Exec(
			`INSERT INTO app_settings (key, value) VALUES (?, ?)
             ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			settingInitialized, value,
		)
		require.NoError(t, err)

		got, err := isInitialized(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, want, got, "value %q", value)
	}
}

func TestBackend_SeedsOnFirstStartOnly(t *testing.T) {
	dir := t.TempDir()

	b := openBackendAt(t, dir, "")
	userID := createUser(t, b, "Ana")
	require.NoError(t, b.Close())

	b = openBackendAt(t, dir, userID)
	done, err := b.IsInitialized()
	require.NoError(t, err)
	assert.True(t, done)

	// A category removed by the user is not brought back by later starts.
	cats, err := b.GetTable(types.CategoriesTable)
	require.NoError(t, err)
	require.NoError(t, cats.Delete(seedID(userID, "gifts")))
	require.NoError(t, b.Close())

	b = openBackendAt(t, dir, userID)
	cats, err = b.GetTable(types.CategoriesTable)
	require.NoError(t, err)
	_, err = cats.Get(seedID(userID, "gifts"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}
