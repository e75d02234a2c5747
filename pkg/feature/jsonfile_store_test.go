package feature_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanyze/flagkit/pkg/feature"
)

func TestJSONFileStore_InitializesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := feature.NewJSONFileStore(dir)
	require.NoError(t, err)

	for _, name := range []string{"feature_flags.json", "feature_overrides.json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(data))
	}
}

func TestJSONFileStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	store, err := feature.NewJSONFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.InsertFlag(ctx, feature.NewFlag("dark-mode", "Dark mode",
		feature.WithMinTier(feature.TierPro), feature.WithRollout(50))))
	require.NoError(t, store.UpsertOverride(ctx, &feature.Override{
		FlagKey: "dark-mode", UserID: "u1", Enabled: true,
	}))

	// A second store over the same directory sees everything: the files are
	// the source of truth, nothing lives only in memory.
	reopened, err := feature.NewJSONFileStore(dir)
	require.NoError(t, err)

	flag, err := reopened.GetFlag(ctx, "dark-mode")
	require.NoError(t, err)
	assert.Equal(t, "Dark mode", flag.Name)
	require.NotNil(t, flag.MinTier)
	assert.Equal(t, feature.TierPro, *flag.MinTier)
	assert.Equal(t, 50, flag.PercentageRollout)

	o, err := reopened.GetOverride(ctx, "dark-mode", "u1")
	require.NoError(t, err)
	assert.True(t, o.Enabled)
}

func TestJSONFileStore_Flags(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	newStore := func(t *testing.T) *feature.JSONFileStore {
		t.Helper()
		store, err := feature.NewJSONFileStore(t.TempDir())
		require.NoError(t, err)
		return store
	}

	t.Run("duplicate insert", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		require.NoError(t, store.InsertFlag(ctx, feature.NewFlag("a", "A")))
		assert.ErrorIs(t, store.InsertFlag(ctx, feature.NewFlag("a", "A again")), feature.ErrDuplicateKey)

		list, err := store.ListFlags(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "A", list[0].Name)
	})

	t.Run("update replaces the record", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		require.NoError(t, store.InsertFlag(ctx, feature.NewFlag("a", "A")))
		require.NoError(t, store.UpdateFlag(ctx, feature.NewFlag("a", "A renamed", feature.Disabled())))

		flag, err := store.GetFlag(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "A renamed", flag.Name)
		assert.False(t, flag.Enabled)
	})

	t.Run("update and delete unknown", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		assert.ErrorIs(t, store.UpdateFlag(ctx, feature.NewFlag("ghost", "Ghost")), feature.ErrFlagNotFound)
		assert.ErrorIs(t, store.DeleteFlag(ctx, "ghost"), feature.ErrFlagNotFound)
	})
}

func TestJSONFileStore_Overrides(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := feature.NewJSONFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.UpsertOverride(ctx, &feature.Override{FlagKey: "a", UserID: "u1", Enabled: true}))
	require.NoError(t, store.UpsertOverride(ctx, &feature.Override{FlagKey: "a", UserID: "u2", Enabled: true}))

	// Upsert on an existing pair replaces, never appends.
	require.NoError(t, store.UpsertOverride(ctx, &feature.Override{FlagKey: "a", UserID: "u1", Enabled: false}))

	o, err := store.GetOverride(ctx, "a", "u1")
	require.NoError(t, err)
	assert.False(t, o.Enabled)

	n, err := store.DeleteOverridesForFlag(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.DeleteOverridesForFlag(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.ErrorIs(t, store.DeleteOverride(ctx, "a", "u1"), feature.ErrOverrideNotFound)
}

func TestJSONFileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := feature.NewJSONFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "feature_flags.json"), []byte("{not json"), 0o644))

	_, err = store.ListFlags(ctx)
	assert.ErrorIs(t, err, feature.ErrStoreFailure)
}
