package flags_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanyze/flagkit/pkg/feature"
	"github.com/humanyze/flagkit/svc/flags"
)

func gatedHandler(svc *flags.Service, flagKey string, identify flags.IdentityFunc) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("exported"))
	})
	return svc.RequireFeature(flagKey, identify)(ok)
}

func identityOf(userID string, tier feature.Tier) flags.IdentityFunc {
	return func(r *http.Request) (flags.Identity, bool) {
		return flags.Identity{UserID: userID, Tier: tier}, true
	}
}

func anonymous(r *http.Request) (flags.Identity, bool) {
	return flags.Identity{}, false
}

func TestRequireFeature(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("allows an eligible user", func(t *testing.T) {
		t.Parallel()

		svc, registry := newTestService(t)
		_, err := registry.CreateFlag(ctx, feature.NewFlag("beta-export", "Beta export"))
		require.NoError(t, err)

		h := gatedHandler(svc, "beta-export", identityOf("u1", feature.TierPro))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "exported", rec.Body.String())
	})

	t.Run("denies below the tier gate", func(t *testing.T) {
		t.Parallel()

		svc, registry := newTestService(t)
		_, err := registry.CreateFlag(ctx, feature.NewFlag("beta-export", "Beta export",
			feature.WithMinTier(feature.TierPro)))
		require.NoError(t, err)

		h := gatedHandler(svc, "beta-export", identityOf("u1", feature.TierBasic))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Feature not available")
	})

	t.Run("denies on an unknown flag", func(t *testing.T) {
		t.Parallel()

		svc, _ := newTestService(t)
		h := gatedHandler(svc, "never-created", identityOf("u1", feature.TierEnterprise))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("denies anonymous requests", func(t *testing.T) {
		t.Parallel()

		svc, registry := newTestService(t)
		_, err := registry.CreateFlag(ctx, feature.NewFlag("beta-export", "Beta export"))
		require.NoError(t, err)

		h := gatedHandler(svc, "beta-export", anonymous)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "feature_not_available")
	})

	t.Run("decisions ride the cache until a mutation clears it", func(t *testing.T) {
		t.Parallel()

		svc, registry := newTestService(t)
		_, err := registry.CreateFlag(ctx, feature.NewFlag("beta-export", "Beta export"))
		require.NoError(t, err)

		h := gatedHandler(svc, "beta-export", identityOf("u1", feature.TierPro))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		// Flipping the flag behind the service's back leaves the memoized
		// decision in place.
		_, err = registry.UpdateFlag(ctx, "beta-export", feature.FlagPatch{
			Enabled: boolPtr(false),
		})
		require.NoError(t, err)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))
		assert.Equal(t, http.StatusOK, rec.Code, "stale decision served from cache")

		// A mutation through the service clears the cache.
		_, err = svc.UpdateFlag(ctx, "beta-export", feature.FlagPatch{
			Enabled: boolPtr(false),
		})
		require.NoError(t, err)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func boolPtr(b bool) *bool { return &b }
