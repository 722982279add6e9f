// Package service owns the current topic model: it loads documents into
// models and answers questions against the latest one.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"askip/internal/corpus"
	"askip/internal/domain"
	"askip/internal/fetch"
	"askip/internal/language"
	"askip/internal/logger"
	"askip/internal/model"
	"askip/internal/summarizer"
)

const DefaultMaxResults = 4

// SummarizerFactory builds the summarizer for a document language.
type SummarizerFactory func(*language.Pipeline) domain.Summarizer

// FrequencySummaries is the default SummarizerFactory.
func FrequencySummaries(p *language.Pipeline) domain.Summarizer {
	return summarizer.NewFrequencySummarizer(p)
}

// Options configures loading and answering.
type Options struct {
	Corpus           corpus.Options
	Model            model.Options
	MaxResults       int
	SummarySentences int
	// Summarizer may be nil to skip summaries.
	Summarizer SummarizerFactory
}

// DefaultOptions mirrors config.defaultConfig.
func DefaultOptions() Options {
	return Options{
		Model:            model.DefaultOptions(),
		MaxResults:       DefaultMaxResults,
		SummarySentences: summarizer.DefaultMaxSentences,
		Summarizer:       FrequencySummaries,
	}
}

// loaded is everything derived from one document. It is replaced as a whole.
type loaded struct {
	model   *model.Model
	source  domain.Source
	summary string
}

// Service loads documents and answers questions. Safe for concurrent use:
// readers always see either the previous or the new model.
type Service struct {
	fetcher domain.Fetcher
	opts    Options
	current atomic.Pointer[loaded]
}

func New(fetcher domain.Fetcher, opts Options) *Service {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	return &Service{fetcher: fetcher, opts: opts}
}

// LoadModel fetches the document named by identifier, fits a model on it and
// makes it current. lang applies to bare titles and files; Wikipedia URLs
// carry their own language. On failure the previous model stays current.
func (s *Service) LoadModel(ctx context.Context, identifier, lang string) (*model.Model, error) {
	start := time.Now()
	src, err := fetch.ParseSource(identifier, lang)
	if err != nil {
		return nil, err
	}
	raw, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	pipe := language.NewPipelineFor(src.Language)
	if pipe.Language() == language.Unsupported {
		logger.Warn("unsupported language, indexing without stopwords or stemming", zap.String("lang", src.Language))
	}
	corp := corpus.NewPreparer(pipe.Splitter(), s.opts.Corpus).Prepare(raw)
	m, err := model.Fit(corp, pipe, s.opts.Model)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	next := &loaded{model: m, source: src, summary: s.summarize(pipe, corp)}
	s.current.Store(next)
	logger.Info("model loaded",
		zap.String("source", src.String()),
		zap.String("model", m.ID()),
		zap.Int("passages", len(corp.Passages)),
		zap.Int("clusters", m.K()),
		zap.Duration("took", time.Since(start)),
	)
	return m, nil
}

func (s *Service) summarize(pipe *language.Pipeline, corp domain.Corpus) string {
	if s.opts.Summarizer == nil || len(corp.Passages) == 0 {
		return ""
	}
	summary, err := s.opts.Summarizer(pipe).Summarize(strings.Join(corp.Texts(), "\n"), s.opts.SummarySentences)
	if err != nil {
		logger.Warn("summary unavailable", zap.Error(err))
		return ""
	}
	return summary
}

// Ask answers query with at most MaxResults passages of the current model.
func (s *Service) Ask(query string) ([]domain.Passage, error) {
	cur := s.current.Load()
	if cur == nil {
		return nil, domain.ErrNoModel
	}
	passages := cur.model.Ask(query)
	if len(passages) > s.opts.MaxResults {
		passages = passages[:s.opts.MaxResults]
	}
	return passages, nil
}

// Current returns the current model, nil before the first successful load.
func (s *Service) Current() *model.Model {
	if cur := s.current.Load(); cur != nil {
		return cur.model
	}
	return nil
}

// Source returns the source of the current model.
func (s *Service) Source() (domain.Source, bool) {
	if cur := s.current.Load(); cur != nil {
		return cur.source, true
	}
	return domain.Source{}, false
}

// Summary returns a short extractive summary of the current document.
func (s *Service) Summary() string {
	if cur := s.current.Load(); cur != nil {
		return cur.summary
	}
	return ""
}

// MaxResults returns the answer size limit.
func (s *Service) MaxResults() int { return s.opts.MaxResults }
