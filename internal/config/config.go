package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"askip/internal/cluster"
	"askip/internal/corpus"
	"askip/internal/embedding/tfidf"
	"askip/internal/fetch/wikipedia"
	"askip/internal/model"
	"askip/internal/summarizer"
)

// Environment variables overriding the file.
const (
	EnvLanguage  = "ASKIP_LANG"
	EnvUserAgent = "ASKIP_USER_AGENT"
	EnvCacheDir  = "ASKIP_CACHE_DIR"
)

// CorpusConfig configures how raw text is cut into passages.
type CorpusConfig struct {
	MinLength   int      `yaml:"min_length"`
	TitleMarker string   `yaml:"title_marker"`
	QuotePairs  []string `yaml:"quote_pairs"`
}

// VectorizerConfig configures the TF-IDF vocabulary.
type VectorizerConfig struct {
	MinDF       float64 `yaml:"min_df"`
	MaxDF       float64 `yaml:"max_df"`
	KeepAccents bool    `yaml:"keep_accents"`
	Workers     int     `yaml:"workers"`
}

// ClusteringConfig configures the cluster count heuristic and k-means.
type ClusteringConfig struct {
	MinClusters        int     `yaml:"min_clusters"`
	PassagesPerCluster int     `yaml:"passages_per_cluster"`
	MaxIterations      int     `yaml:"max_iterations"`
	NInit              int     `yaml:"n_init"`
	Tolerance          float64 `yaml:"tolerance"`
	Seed               uint64  `yaml:"seed"`
}

// WindowConfig configures the percentile band kept from a cluster.
type WindowConfig struct {
	Disabled bool    `yaml:"disabled"`
	Lower    float64 `yaml:"lower"`
	Upper    float64 `yaml:"upper"`
}

// AnswerConfig configures what a question returns.
type AnswerConfig struct {
	MaxResults int          `yaml:"max_results"`
	Window     WindowConfig `yaml:"window"`
}

// CacheConfig configures the local document cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	TTLHours int    `yaml:"ttl_hours"`
}

// FetchConfig configures document acquisition.
type FetchConfig struct {
	UserAgent         string      `yaml:"user_agent"`
	TimeoutSecs       int         `yaml:"timeout_secs"`
	MaxRetries        int         `yaml:"max_retries"`
	RequestsPerSecond float64     `yaml:"requests_per_second"`
	Cache             CacheConfig `yaml:"cache"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Language   string           `yaml:"language"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Answer     AnswerConfig     `yaml:"answer"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./askip.yaml first, then ~/.config/askip/config.yaml.
// If neither exists, it writes defaults to ~/.config/askip/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "askip.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports settings no component could work with.
func (c *AppConfig) Validate() error {
	v := c.Vectorizer
	if v.MinDF < 0 || v.MinDF >= 1 {
		return fmt.Errorf("vectorizer.min_df must be in [0, 1), got %g", v.MinDF)
	}
	if v.MaxDF <= 0 || v.MaxDF > 1 {
		return fmt.Errorf("vectorizer.max_df must be in (0, 1], got %g", v.MaxDF)
	}
	if v.MaxDF < v.MinDF {
		return fmt.Errorf("vectorizer.max_df %g is below min_df %g", v.MaxDF, v.MinDF)
	}
	w := c.Answer.Window
	if w.Lower < 0 || w.Upper > 1 || w.Lower > w.Upper {
		return fmt.Errorf("answer.window needs 0 <= lower <= upper <= 1, got %g..%g", w.Lower, w.Upper)
	}
	if utf8.RuneCountInString(c.Corpus.TitleMarker) != 1 {
		return fmt.Errorf("corpus.title_marker must be a single character, got %q", c.Corpus.TitleMarker)
	}
	for _, pair := range c.Corpus.QuotePairs {
		if utf8.RuneCountInString(pair) != 2 {
			return fmt.Errorf("corpus.quote_pairs entries must be two characters, got %q", pair)
		}
	}
	return nil
}

// CorpusOptions converts the corpus section.
func (c *AppConfig) CorpusOptions() corpus.Options {
	marker, _ := utf8.DecodeRuneInString(c.Corpus.TitleMarker)
	opts := corpus.Options{MinLength: c.Corpus.MinLength, TitleMarker: marker}
	for _, pair := range c.Corpus.QuotePairs {
		r := []rune(pair)
		if len(r) == 2 {
			opts.QuotePairs = append(opts.QuotePairs, corpus.QuotePair{Open: string(r[0]), Close: string(r[1])})
		}
	}
	return opts
}

// ModelOptions converts the vectorizer, clustering and answer sections.
func (c *AppConfig) ModelOptions() model.Options {
	return model.Options{
		MinClusters:        c.Clustering.MinClusters,
		PassagesPerCluster: c.Clustering.PassagesPerCluster,
		Vectorizer: tfidf.Options{
			MinDF:        c.Vectorizer.MinDF,
			MaxDF:        c.Vectorizer.MaxDF,
			StripAccents: !c.Vectorizer.KeepAccents,
			Workers:      c.Vectorizer.Workers,
		},
		Cluster: cluster.Options{
			MaxIterations: c.Clustering.MaxIterations,
			NInit:         c.Clustering.NInit,
			Tolerance:     c.Clustering.Tolerance,
			Seed:          c.Clustering.Seed,
			Workers:       c.Vectorizer.Workers,
		},
		Window: model.Window{
			Enabled: !c.Answer.Window.Disabled,
			Lower:   c.Answer.Window.Lower,
			Upper:   c.Answer.Window.Upper,
		},
	}
}

// WikipediaConfig converts the fetch section.
func (c *AppConfig) WikipediaConfig() wikipedia.Config {
	return wikipedia.Config{
		UserAgent:         c.Fetch.UserAgent,
		Timeout:           time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:        c.Fetch.MaxRetries,
		RequestsPerSecond: c.Fetch.RequestsPerSecond,
	}
}

// CacheTTL returns the document cache lifetime, zero meaning forever.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Fetch.Cache.TTLHours) * time.Hour
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "askip", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Language: "en",
		Corpus: CorpusConfig{
			MinLength:   corpus.DefaultMinLength,
			TitleMarker: string(corpus.DefaultTitleMarker),
			QuotePairs:  []string{"«»", "“”"},
		},
		Vectorizer: VectorizerConfig{MinDF: tfidf.DefaultMinDF, MaxDF: tfidf.DefaultMaxDF},
		Clustering: ClusteringConfig{
			MinClusters:        model.DefaultMinClusters,
			PassagesPerCluster: model.DefaultPassagesPerCluster,
			MaxIterations:      cluster.DefaultMaxIterations,
			NInit:              cluster.DefaultNInit,
			Tolerance:          cluster.DefaultTolerance,
			Seed:               model.DefaultSeed,
		},
		Answer: AnswerConfig{
			MaxResults: 4,
			Window:     WindowConfig{Lower: model.DefaultLowerPercentile, Upper: model.DefaultUpperPercentile},
		},
		Fetch: FetchConfig{
			UserAgent:         wikipedia.DefaultUserAgent,
			TimeoutSecs:       30,
			MaxRetries:        wikipedia.DefaultMaxRetries,
			RequestsPerSecond: wikipedia.DefaultRequestsPerSecond,
			Cache:             CacheConfig{Enabled: true, TTLHours: 24 * 7},
		},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: summarizer.DefaultMaxSentences},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.Corpus.MinLength == 0 {
		cfg.Corpus.MinLength = def.Corpus.MinLength
	}
	if cfg.Corpus.TitleMarker == "" {
		cfg.Corpus.TitleMarker = def.Corpus.TitleMarker
	}
	if cfg.Corpus.QuotePairs == nil {
		cfg.Corpus.QuotePairs = def.Corpus.QuotePairs
	}
	if cfg.Vectorizer.MaxDF == 0 {
		cfg.Vectorizer.MaxDF = def.Vectorizer.MaxDF
	}
	if cfg.Clustering.MinClusters == 0 {
		cfg.Clustering.MinClusters = def.Clustering.MinClusters
	}
	if cfg.Clustering.PassagesPerCluster == 0 {
		cfg.Clustering.PassagesPerCluster = def.Clustering.PassagesPerCluster
	}
	if cfg.Clustering.MaxIterations == 0 {
		cfg.Clustering.MaxIterations = def.Clustering.MaxIterations
	}
	if cfg.Clustering.NInit == 0 {
		cfg.Clustering.NInit = def.Clustering.NInit
	}
	if cfg.Clustering.Tolerance == 0 {
		cfg.Clustering.Tolerance = def.Clustering.Tolerance
	}
	if cfg.Answer.MaxResults == 0 {
		cfg.Answer.MaxResults = def.Answer.MaxResults
	}
	if cfg.Answer.Window.Lower == 0 && cfg.Answer.Window.Upper == 0 {
		cfg.Answer.Window.Lower = def.Answer.Window.Lower
		cfg.Answer.Window.Upper = def.Answer.Window.Upper
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = def.Fetch.UserAgent
	}
	if cfg.Fetch.TimeoutSecs == 0 {
		cfg.Fetch.TimeoutSecs = def.Fetch.TimeoutSecs
	}
	if cfg.Fetch.RequestsPerSecond == 0 {
		cfg.Fetch.RequestsPerSecond = def.Fetch.RequestsPerSecond
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = def.Summarizer.Type
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = def.Summarizer.MaxSentences
	}
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv(EnvLanguage); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		cfg.Fetch.UserAgent = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Fetch.Cache.Dir = v
	}
}
