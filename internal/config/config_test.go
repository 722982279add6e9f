package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askip/internal/corpus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "askip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 30, cfg.Corpus.MinLength)
	assert.Equal(t, 0.97, cfg.Vectorizer.MaxDF)
	assert.Equal(t, 0.01, cfg.Vectorizer.MinDF)
	assert.Equal(t, 16, cfg.Clustering.MinClusters)
	assert.Equal(t, 10, cfg.Clustering.PassagesPerCluster)
	assert.Equal(t, 4, cfg.Answer.MaxResults)
	assert.Equal(t, 0.05, cfg.Answer.Window.Lower)
	assert.Equal(t, 0.95, cfg.Answer.Window.Upper)
	assert.Equal(t, 2, cfg.Summarizer.MaxSentences)
	assert.True(t, cfg.Fetch.Cache.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
language: fr
vectorizer:
  min_df: 0.02
clustering:
  min_clusters: 8
  seed: 7
answer:
  max_results: 2
  window:
    disabled: true
fetch:
  cache:
    enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fr", cfg.Language)
	assert.Equal(t, 0.02, cfg.Vectorizer.MinDF)
	assert.Equal(t, 0.97, cfg.Vectorizer.MaxDF)
	assert.Equal(t, 8, cfg.Clustering.MinClusters)
	assert.Equal(t, 10, cfg.Clustering.PassagesPerCluster)
	assert.Equal(t, uint64(7), cfg.Clustering.Seed)
	assert.Equal(t, 2, cfg.Answer.MaxResults)
	assert.False(t, cfg.Fetch.Cache.Enabled)
	assert.Equal(t, "=", cfg.Corpus.TitleMarker)

	opts := cfg.ModelOptions()
	assert.False(t, opts.Window.Enabled)
	assert.True(t, opts.Vectorizer.StripAccents)
	assert.Equal(t, uint64(7), opts.Cluster.Seed)
	assert.Equal(t, 8, opts.MinClusters)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "language: [fr"},
		{"inverted df band", "vectorizer:\n  min_df: 0.5\n  max_df: 0.2\n"},
		{"max_df above one", "vectorizer:\n  max_df: 1.5\n"},
		{"inverted window", "answer:\n  window:\n    lower: 0.9\n    upper: 0.1\n"},
		{"long title marker", "corpus:\n  title_marker: '=='\n"},
		{"odd quote pair", "corpus:\n  quote_pairs: ['«']\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLanguage, "es")
	t.Setenv(EnvUserAgent, "my-bot/2.0")
	t.Setenv(EnvCacheDir, "/tmp/askip-cache")

	cfg, err := Load(writeConfig(t, "language: fr\n"))
	require.NoError(t, err)

	assert.Equal(t, "es", cfg.Language)
	assert.Equal(t, "my-bot/2.0", cfg.Fetch.UserAgent)
	assert.Equal(t, "/tmp/askip-cache", cfg.Fetch.Cache.Dir)
	assert.Equal(t, "my-bot/2.0", cfg.WikipediaConfig().UserAgent)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Language = "it"
	cfg.Answer.MaxResults = 6

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "askip", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, defaultConfig(), cfg)

	require.NoError(t, os.WriteFile("askip.yaml", []byte("language: pt\n"), 0o644))
	cfg, path, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "askip.yaml", path)
	assert.Equal(t, "pt", cfg.Language)
}

func TestConversions(t *testing.T) {
	cfg := defaultConfig()
	cfg.Corpus.TitleMarker = "#"
	cfg.Fetch.TimeoutSecs = 5
	cfg.Fetch.Cache.TTLHours = 2

	opts := cfg.CorpusOptions()
	assert.Equal(t, '#', opts.TitleMarker)
	assert.Equal(t, 30, opts.MinLength)
	assert.Equal(t, []corpus.QuotePair{{Open: "«", Close: "»"}, {Open: "“", Close: "”"}}, opts.QuotePairs)

	assert.Equal(t, 5*time.Second, cfg.WikipediaConfig().Timeout)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL())
}
