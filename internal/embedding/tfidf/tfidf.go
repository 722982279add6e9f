package tfidf

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"askip/internal/domain"
	"askip/internal/language"
)

const (
	DefaultMinDF = 0.01
	DefaultMaxDF = 0.97
)

// Options configures the document-frequency band and the preprocessing.
// MinDF and MaxDF are proportions of the corpus size.
type Options struct {
	MinDF        float64
	MaxDF        float64
	StripAccents bool
	Workers      int
}

// DefaultOptions mirrors the settings the topic model is tuned for.
func DefaultOptions() Options {
	return Options{MinDF: DefaultMinDF, MaxDF: DefaultMaxDF, StripAccents: true}
}

// Vectorizer implements TF-IDF over a fitted vocabulary.
// Rows are raw term counts weighted by smoothed IDF, then L2 normalised.
type Vectorizer struct {
	pipeline     *language.Pipeline
	opts         Options
	tokenPattern *regexp.Regexp
	vocabulary   map[string]int
	terms        []string
	idf          []float64
	prepared     bool
}

// NewVectorizer creates an unfitted vectorizer using p for stopwords and stemming.
func NewVectorizer(p *language.Pipeline, opts Options) *Vectorizer {
	if p == nil {
		p = language.NewPipeline(language.Unsupported)
	}
	if opts.MaxDF <= 0 {
		opts.MaxDF = 1.0
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Vectorizer{
		pipeline:     p,
		opts:         opts,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+`),
		vocabulary:   make(map[string]int),
	}
}

// Fit builds the vocabulary and IDF values from the corpus.
func (v *Vectorizer) Fit(corpus []string) error {
	if len(corpus) == 0 {
		return fmt.Errorf("%w: empty corpus", domain.ErrModelFit)
	}
	docs := v.analyzeAll(corpus)

	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	n := float64(len(corpus))
	minCount := v.opts.MinDF * n
	maxCount := v.opts.MaxDF * n
	if maxCount < minCount {
		return fmt.Errorf("%w: max_df %.3f keeps fewer documents than min_df %.3f", domain.ErrModelFit, v.opts.MaxDF, v.opts.MinDF)
	}
	terms := make([]string, 0, len(df))
	for term, count := range df {
		c := float64(count)
		if c < minCount || c > maxCount {
			continue
		}
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return fmt.Errorf("%w: no terms remain after document-frequency pruning", domain.ErrModelFit)
	}
	// Stable column order
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocabulary[term] = i
		// Smoothed IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.terms = terms
	v.prepared = true
	return nil
}

// FitTransform fits the vectorizer and returns one row per corpus entry.
func (v *Vectorizer) FitTransform(corpus []string) ([]SparseVector, error) {
	if err := v.Fit(corpus); err != nil {
		return nil, err
	}
	return v.TransformAll(corpus)
}

// Transform computes the TF-IDF row of text. Out-of-vocabulary terms are
// ignored, so text without known terms yields the zero vector.
func (v *Vectorizer) Transform(text string) SparseVector {
	if !v.prepared {
		return SparseVector{}
	}
	tf := make(map[int]int)
	for _, tok := range v.Analyze(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return SparseVector{}
	}
	indices := make([]int, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	values := make([]float64, len(indices))
	norm := 0.0
	for k, idx := range indices {
		values[k] = float64(tf[idx]) * v.idf[idx]
		norm += values[k] * values[k]
	}
	// L2 normalize
	norm = math.Sqrt(norm)
	if norm > 0 {
		for k := range values {
			values[k] /= norm
		}
	}
	return SparseVector{Indices: indices, Values: values}
}

// TransformAll transforms texts concurrently. Every row is computed
// independently, so the output does not depend on the worker count.
func (v *Vectorizer) TransformAll(texts []string) ([]SparseVector, error) {
	if !v.prepared {
		return nil, errors.New("tfidf vectorizer not fitted")
	}
	out := make([]SparseVector, len(texts))
	var g errgroup.Group
	g.SetLimit(v.opts.Workers)
	for i, text := range texts {
		g.Go(func() error {
			out[i] = v.Transform(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Analyze returns the normalised tokens of text: lower-cased, accent-folded,
// at least two runes long, stopwords removed, stemmed.
func (v *Vectorizer) Analyze(text string) []string {
	text = strings.ToLower(text)
	if v.opts.StripAccents {
		text = language.FoldAccents(text)
	}
	raw := v.tokenPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if v.pipeline.IsStopword(tok) {
			continue
		}
		out = append(out, v.pipeline.Stem(tok))
	}
	return out
}

func (v *Vectorizer) analyzeAll(texts []string) [][]string {
	out := make([][]string, len(texts))
	var g errgroup.Group
	g.SetLimit(v.opts.Workers)
	for i, text := range texts {
		g.Go(func() error {
			out[i] = v.Analyze(text)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Dimension returns the vocabulary size.
func (v *Vectorizer) Dimension() int { return len(v.terms) }

// Terms returns the vocabulary in column order.
func (v *Vectorizer) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Vocabulary returns a copy of the term to column mapping.
func (v *Vectorizer) Vocabulary() map[string]int {
	out := make(map[string]int, len(v.vocabulary))
	for k, i := range v.vocabulary {
		out[k] = i
	}
	return out
}

// IDF returns the inverse document frequency of a column.
func (v *Vectorizer) IDF(column int) float64 {
	if column < 0 || column >= len(v.idf) {
		return 0
	}
	return v.idf[column]
}
