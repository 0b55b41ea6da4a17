package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/tripcraft/tierkit/pkg/tier"
)

func TestAppConfig(t *testing.T) {
	t.Parallel()

	t.Run("backend", func(t *testing.T) {
		t.Parallel()
		for in, want := range map[string]string{
			"postgres": backendPostgres,
			" Redis ":  backendRedis,
			"MEMORY":   backendMemory,
		} {
			got, err := appConfig{UsageBackend: in}.backend()
			require.NoError(t, err, in)
			assert.Equal(t, want, got)
		}

		_, err := appConfig{UsageBackend: "mongo"}.backend()
		require.Error(t, err)
	})

	t.Run("location", func(t *testing.T) {
		t.Parallel()
		loc, err := appConfig{UsageTimezone: "UTC"}.location()
		require.NoError(t, err)
		assert.Equal(t, "UTC", loc.String())

		_, err = appConfig{UsageTimezone: "Mars/Olympus"}.location()
		require.Error(t, err)
	})

	t.Run("language", func(t *testing.T) {
		t.Parallel()
		tag, err := appConfig{MessageLanguage: "de"}.language()
		require.NoError(t, err)
		assert.Equal(t, language.German, tag)

		_, err = appConfig{MessageLanguage: "!!"}.language()
		require.Error(t, err)
	})
}

func TestExampleCatalogMatchesDefault(t *testing.T) {
	t.Parallel()

	c, err := tier.LoadCatalogFile("catalog.example.yaml")
	require.NoError(t, err)

	def := tier.DefaultCatalog()
	for _, p := range tier.Plans() {
		assert.Equal(t, def.Features(p), c.Features(p), p)
		assert.Equal(t, def.Limits(p), c.Limits(p), p)
		assert.Equal(t, def.Info(p).Name, c.Info(p).Name, p)
	}
}
