package feature_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanyze/flagkit/pkg/feature"
)

func ptr[T any](v T) *T { return &v }

func TestRegistry_CreateFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("sets timestamps and defaults", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		registry := feature.NewRegistry(feature.NewMemoryStore(),
			feature.WithClock(func() time.Time { return now }))

		created, err := registry.CreateFlag(ctx, feature.NewFlag("dark-mode", "Dark mode"))
		require.NoError(t, err)

		assert.Equal(t, "dark-mode", created.Key)
		assert.True(t, created.Enabled)
		assert.Equal(t, 100, created.PercentageRollout)
		assert.Equal(t, now, created.CreatedAt)
		assert.Equal(t, now, created.UpdatedAt)

		stored, err := registry.GetFlag(ctx, "dark-mode")
		require.NoError(t, err)
		assert.Equal(t, created, stored)
	})

	t.Run("rejects duplicate key and keeps original", func(t *testing.T) {
		t.Parallel()

		registry := feature.NewRegistry(feature.NewMemoryStore())

		_, err := registry.CreateFlag(ctx, feature.NewFlag("dark-mode", "Dark mode"))
		require.NoError(t, err)

		_, err = registry.CreateFlag(ctx, feature.NewFlag("dark-mode", "Imposter", feature.Disabled()))
		require.ErrorIs(t, err, feature.ErrDuplicateKey)

		stored, err := registry.GetFlag(ctx, "dark-mode")
		require.NoError(t, err)
		assert.Equal(t, "Dark mode", stored.Name)
		assert.True(t, stored.Enabled)
	})

	t.Run("rejects invalid flags", func(t *testing.T) {
		t.Parallel()

		registry := feature.NewRegistry(feature.NewMemoryStore())

		_, err := registry.CreateFlag(ctx, feature.NewFlag("", "No key"))
		assert.ErrorIs(t, err, feature.ErrInvalidFlag)

		_, err = registry.CreateFlag(ctx, feature.NewFlag("over", "Over", feature.WithRollout(101)))
		assert.ErrorIs(t, err, feature.ErrInvalidFlag)

		_, err = registry.CreateFlag(ctx, feature.NewFlag("neg", "Neg", feature.WithRollout(-1)))
		assert.ErrorIs(t, err, feature.ErrInvalidFlag)
	})
}

func TestRegistry_UpdateFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	newRegistry := func(t *testing.T, now *time.Time) *feature.Registry {
		t.Helper()
		return feature.NewRegistry(feature.NewMemoryStore(),
			feature.WithClock(func() time.Time { return *now }))
	}

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		registry := newRegistry(t, &now)

		_, err := registry.CreateFlag(ctx, feature.NewFlag("dark-mode", "Dark mode",
			feature.WithMinTier(feature.TierPro), feature.WithRollout(25)))
		require.NoError(t, err)

		now = now.Add(time.Hour)
		updated, err := registry.UpdateFlag(ctx, "dark-mode", feature.FlagPatch{
			Enabled: ptr(false),
		})
		require.NoError(t, err)

		assert.False(t, updated.Enabled)
		assert.Equal(t, 25, updated.PercentageRollout, "untouched field survives")
		require.NotNil(t, updated.MinTier)
		assert.Equal(t, feature.TierPro, *updated.MinTier)
		assert.Equal(t, now, updated.UpdatedAt, "updated_at refreshed")
		assert.Equal(t, now.Add(-time.Hour), updated.CreatedAt, "created_at untouched")
	})

	t.Run("explicit clear of nullable fields", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		registry := newRegistry(t, &now)

		_, err := registry.CreateFlag(ctx, feature.NewFlag("seasonal", "Seasonal",
			feature.WithMinTier(feature.TierBasic),
			feature.WithStartAt(now), feature.WithEndAt(now.Add(24*time.Hour))))
		require.NoError(t, err)

		updated, err := registry.UpdateFlag(ctx, "seasonal", feature.FlagPatch{
			MinTier: feature.ClearField[feature.Tier](),
			EndAt:   feature.ClearField[time.Time](),
		})
		require.NoError(t, err)

		assert.Nil(t, updated.MinTier)
		assert.Nil(t, updated.EndAt)
		assert.NotNil(t, updated.StartAt, "unmentioned nullable field survives")
	})

	t.Run("set nullable fields", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		registry := newRegistry(t, &now)

		_, err := registry.CreateFlag(ctx, feature.NewFlag("plain", "Plain"))
		require.NoError(t, err)

		start := now.Add(time.Hour)
		updated, err := registry.UpdateFlag(ctx, "plain", feature.FlagPatch{
			MinTier: feature.SetField(feature.TierEnterprise),
			StartAt: feature.SetField(start),
		})
		require.NoError(t, err)

		require.NotNil(t, updated.MinTier)
		assert.Equal(t, feature.TierEnterprise, *updated.MinTier)
		require.NotNil(t, updated.StartAt)
		assert.Equal(t, start, *updated.StartAt)
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC()
		registry := newRegistry(t, &now)

		_, err := registry.UpdateFlag(ctx, "missing", feature.FlagPatch{Enabled: ptr(true)})
		assert.ErrorIs(t, err, feature.ErrFlagNotFound)
	})

	t.Run("invalid patch is rejected before persisting", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC()
		registry := newRegistry(t, &now)

		_, err := registry.CreateFlag(ctx, feature.NewFlag("dark-mode", "Dark mode"))
		require.NoError(t, err)

		_, err = registry.UpdateFlag(ctx, "dark-mode", feature.FlagPatch{
			PercentageRollout: ptr(150),
		})
		require.ErrorIs(t, err, feature.ErrInvalidFlag)

		stored, err := registry.GetFlag(ctx, "dark-mode")
		require.NoError(t, err)
		assert.Equal(t, 100, stored.PercentageRollout)
	})
}

func TestRegistry_DeleteFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("cascades overrides", func(t *testing.T) {
		t.Parallel()

		store := feature.NewMemoryStore()
		registry := feature.NewRegistry(store)

		_, err := registry.CreateFlag(ctx, feature.NewFlag("beta", "Beta"))
		require.NoError(t, err)
		_, err = registry.SetOverride(ctx, "beta", "u1", true)
		require.NoError(t, err)
		_, err = registry.SetOverride(ctx, "beta", "u2", false)
		require.NoError(t, err)

		require.NoError(t, registry.DeleteFlag(ctx, "beta"))

		_, err = registry.GetFlag(ctx, "beta")
		assert.ErrorIs(t, err, feature.ErrFlagNotFound)
		_, err = registry.GetOverride(ctx, "beta", "u1")
		assert.ErrorIs(t, err, feature.ErrOverrideNotFound)
		_, err = registry.GetOverride(ctx, "beta", "u2")
		assert.ErrorIs(t, err, feature.ErrOverrideNotFound)
	})

	t.Run("leaves other flags' overrides alone", func(t *testing.T) {
		t.Parallel()

		registry := feature.NewRegistry(feature.NewMemoryStore())

		_, err := registry.CreateFlag(ctx, feature.NewFlag("beta", "Beta"))
		require.NoError(t, err)
		_, err = registry.CreateFlag(ctx, feature.NewFlag("gamma", "Gamma"))
		require.NoError(t, err)
		_, err = registry.SetOverride(ctx, "gamma", "u1", true)
		require.NoError(t, err)

		require.NoError(t, registry.DeleteFlag(ctx, "beta"))

		o, err := registry.GetOverride(ctx, "gamma", "u1")
		require.NoError(t, err)
		assert.True(t, o.Enabled)
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()

		registry := feature.NewRegistry(feature.NewMemoryStore())
		assert.ErrorIs(t, registry.DeleteFlag(ctx, "missing"), feature.ErrFlagNotFound)
	})
}

func TestRegistry_SetOverride(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("requires an existing flag", func(t *testing.T) {
		t.Parallel()

		registry := feature.NewRegistry(feature.NewMemoryStore())
		_, err := registry.SetOverride(ctx, "missing", "u1", true)
		assert.ErrorIs(t, err, feature.ErrFlagNotFound)
	})

	t.Run("upsert keeps a single record per pair", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		registry := feature.NewRegistry(feature.NewMemoryStore(),
			feature.WithClock(func() time.Time { return now }))

		_, err := registry.CreateFlag(ctx, feature.NewFlag("beta", "Beta"))
		require.NoError(t, err)

		first, err := registry.SetOverride(ctx, "beta", "u1", true)
		require.NoError(t, err)
		assert.True(t, first.Enabled)
		assert.Equal(t, now, first.CreatedAt)

		now = now.Add(time.Hour)
		second, err := registry.SetOverride(ctx, "beta", "u1", false)
		require.NoError(t, err)
		assert.False(t, second.Enabled)
		assert.Equal(t, first.CreatedAt, second.CreatedAt, "created_at survives the upsert")
		assert.Equal(t, now, second.UpdatedAt)

		n, err := registry.DeleteOverridesForFlag(ctx, "beta")
		require.NoError(t, err)
		assert.Equal(t, 1, n, "upsert must not accumulate records")
	})
}

func TestRegistry_DeleteOverride(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	registry := feature.NewRegistry(feature.NewMemoryStore())

	_, err := registry.CreateFlag(ctx, feature.NewFlag("beta", "Beta"))
	require.NoError(t, err)
	_, err = registry.SetOverride(ctx, "beta", "u1", true)
	require.NoError(t, err)

	require.NoError(t, registry.DeleteOverride(ctx, "beta", "u1"))
	assert.ErrorIs(t, registry.DeleteOverride(ctx, "beta", "u1"), feature.ErrOverrideNotFound)
}
