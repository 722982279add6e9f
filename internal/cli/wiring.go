package cli

import (
	"fmt"

	"go.uber.org/zap"

	"askip/internal/config"
	"askip/internal/domain"
	"askip/internal/fetch"
	"askip/internal/fetch/cache"
	"askip/internal/fetch/file"
	"askip/internal/fetch/pdf"
	"askip/internal/fetch/wikipedia"
	"askip/internal/logger"
	"askip/internal/service"
)

// newFetcher assembles the document fetcher. Replaced in tests.
var newFetcher = defaultFetcher

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, path, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("config loaded", zap.String("path", path))
	return cfg, nil
}

func applyFlagOverrides(cfg *config.AppConfig) {
	if langFlag != "" {
		cfg.Language = langFlag
	}
	if maxResults > 0 {
		cfg.Answer.MaxResults = maxResults
	}
	if seed >= 0 {
		cfg.Clustering.Seed = uint64(seed)
	}
	if noCache {
		cfg.Fetch.Cache.Enabled = false
	}
}

func serviceOptions(cfg *config.AppConfig) (service.Options, error) {
	opts := service.Options{
		Corpus:           cfg.CorpusOptions(),
		Model:            cfg.ModelOptions(),
		MaxResults:       cfg.Answer.MaxResults,
		SummarySentences: cfg.Summarizer.MaxSentences,
	}
	switch cfg.Summarizer.Type {
	case "frequency", "":
		opts.Summarizer = service.FrequencySummaries
	case "none":
	default:
		return service.Options{}, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}
	return opts, nil
}

func defaultFetcher(cfg *config.AppConfig) (domain.Fetcher, func(), error) {
	var wiki domain.Fetcher = wikipedia.NewClient(cfg.WikipediaConfig())
	closeFn := func() {}
	if cfg.Fetch.Cache.Enabled {
		store, err := cache.Open(cfg.Fetch.Cache.Dir, cfg.CacheTTL())
		if err != nil {
			logger.Warn("document cache disabled", zap.Error(err))
		} else {
			logger.Debug("document cache", zap.String("path", store.Path()))
			wiki = store.Wrap(wiki)
			closeFn = func() { _ = store.Close() }
		}
	}
	r := fetch.NewRouter().
		Register(domain.SourceWikipedia, wiki).
		Register(domain.SourceFile, file.NewReader()).
		Register(domain.SourcePDF, pdf.NewReader())
	return r, closeFn, nil
}
