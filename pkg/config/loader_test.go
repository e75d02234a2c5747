package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanyze/flagkit/pkg/config"
)

func TestLoad(t *testing.T) {
	t.Run("parses env tags", func(t *testing.T) {
		type cacheConfig struct {
			TTL      time.Duration `env:"TEST_FLAG_CACHE_TTL" envDefault:"60s"`
			Capacity int           `env:"TEST_FLAG_CACHE_CAPACITY" envDefault:"100000"`
		}

		t.Setenv("TEST_FLAG_CACHE_TTL", "90s")

		var cfg cacheConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 90*time.Second, cfg.TTL)
		assert.Equal(t, 100000, cfg.Capacity, "default applies when the variable is unset")
	})

	t.Run("missing required variable", func(t *testing.T) {
		type strictConfig struct {
			URL string `env:"TEST_REQUIRED_URL_NEVER_SET,required"`
		}

		var cfg strictConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("same type loads once", func(t *testing.T) {
		type cachedConfig struct {
			Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
		}

		var first cachedConfig
		require.NoError(t, config.Load(&first))
		assert.Equal(t, "first", first.Value)

		// A later change to the environment is not observed: the type was
		// already parsed and cached.
		t.Setenv("TEST_CACHED_VALUE", "second")

		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[struct{}](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		type brokenConfig struct {
			Port int `env:"TEST_MUSTLOAD_PORT,required"`
		}

		assert.Panics(t, func() {
			var cfg brokenConfig
			config.MustLoad(&cfg)
		})
	})
}
