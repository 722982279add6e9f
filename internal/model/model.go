// Package model builds the topic model of one document and answers
// questions with the passages of the cluster nearest to the query.
package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"askip/internal/cluster"
	"askip/internal/domain"
	"askip/internal/embedding/tfidf"
	"askip/internal/language"
	"askip/internal/logger"
)

const (
	DefaultMinClusters        = 16
	DefaultPassagesPerCluster = 10
	DefaultSeed               = 42
)

// Options holds the fit parameters. Cluster.K is ignored; the cluster count
// comes from ClusterCount.
type Options struct {
	MinClusters        int
	PassagesPerCluster int
	Vectorizer         tfidf.Options
	Cluster            cluster.Options
	Window             Window
}

func DefaultOptions() Options {
	return Options{
		MinClusters:        DefaultMinClusters,
		PassagesPerCluster: DefaultPassagesPerCluster,
		Vectorizer:         tfidf.DefaultOptions(),
		Cluster: cluster.Options{
			MaxIterations: cluster.DefaultMaxIterations,
			NInit:         cluster.DefaultNInit,
			Tolerance:     cluster.DefaultTolerance,
			Seed:          DefaultSeed,
		},
		Window: DefaultWindow(),
	}
}

// Model is a fitted topic model. It is immutable after Fit and safe for
// concurrent queries.
type Model struct {
	id           string
	lang         language.Language
	passages     []domain.Passage
	sectionCount int
	vectorizer   *tfidf.Vectorizer
	rows         []tfidf.SparseVector
	clusters     *cluster.Result
	window       Window
}

// ClusterCount returns max(sectionCount, MinClusters, n/PassagesPerCluster)
// clamped to the passage count n.
func ClusterCount(sectionCount, n int, opts Options) int {
	minClusters := opts.MinClusters
	if minClusters <= 0 {
		minClusters = DefaultMinClusters
	}
	per := opts.PassagesPerCluster
	if per <= 0 {
		per = DefaultPassagesPerCluster
	}
	k := max(sectionCount, minClusters, n/per)
	return min(k, n)
}

// Fit vectorises the corpus passages and partitions them into topics.
// Every failure wraps domain.ErrModelFit.
func Fit(corpus domain.Corpus, pipe *language.Pipeline, opts Options) (*Model, error) {
	start := time.Now()
	if pipe == nil {
		pipe = language.NewPipeline(language.Unsupported)
	}
	n := len(corpus.Passages)
	if n == 0 {
		return nil, fmt.Errorf("%w: corpus has no passages", domain.ErrModelFit)
	}

	vec := tfidf.NewVectorizer(pipe, opts.Vectorizer)
	rows, err := vec.FitTransform(corpus.Texts())
	if err != nil {
		return nil, err
	}

	k := ClusterCount(corpus.SectionCount, n, opts)
	copts := opts.Cluster
	copts.K = k
	if copts.Workers <= 0 {
		copts.Workers = opts.Vectorizer.Workers
	}
	res, err := cluster.KMeans(rows, vec.Dimension(), copts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelFit, err)
	}

	passages := make([]domain.Passage, n)
	copy(passages, corpus.Passages)
	m := &Model{
		id:           uuid.NewString(),
		lang:         pipe.Language(),
		passages:     passages,
		sectionCount: corpus.SectionCount,
		vectorizer:   vec,
		rows:         rows,
		clusters:     res,
		window:       opts.Window,
	}
	logger.Debug("topic model fitted",
		zap.String("id", m.id),
		zap.String("lang", m.lang.Name()),
		zap.Int("passages", n),
		zap.Int("sections", corpus.SectionCount),
		zap.Int("terms", vec.Dimension()),
		zap.Int("k", k),
		zap.Int("iterations", res.Iterations),
		zap.Float64("inertia", res.Inertia),
		zap.Duration("took", time.Since(start)),
	)
	return m, nil
}

// Ask returns the passages of the cluster predicted for query, in corpus
// order, narrowed by the answer window. It never fails: a query without
// known terms lands in the cluster closest to the origin.
func (m *Model) Ask(query string) []domain.Passage {
	id := m.Predict(NormalizeQuery(query))
	idx := m.window.Apply(m.clusters.Members(id))
	out := make([]domain.Passage, len(idx))
	for i, j := range idx {
		out[i] = m.passages[j]
	}
	logger.Debug("query answered",
		zap.String("query", query),
		zap.Int("cluster", id),
		zap.Int("passages", len(out)),
	)
	return out
}

// Predict returns the cluster id of text without query normalisation.
func (m *Model) Predict(text string) int {
	return m.clusters.Predict(m.vectorizer.Transform(text))
}

// Cluster returns every passage labelled id, in corpus order.
func (m *Model) Cluster(id int) []domain.Passage {
	var out []domain.Passage
	for _, j := range m.clusters.Members(id) {
		out = append(out, m.passages[j])
	}
	return out
}

// TopTerms returns up to n vocabulary terms with the largest weight in the
// centroid of cluster id.
func (m *Model) TopTerms(id, n int) []string {
	if id < 0 || id >= m.K() || n <= 0 {
		return nil
	}
	centroid := m.clusters.Centroids[id]
	cols := make([]int, 0, len(centroid))
	for j, w := range centroid {
		if w > 0 {
			cols = append(cols, j)
		}
	}
	sort.SliceStable(cols, func(a, b int) bool { return centroid[cols[a]] > centroid[cols[b]] })
	if len(cols) > n {
		cols = cols[:n]
	}
	terms := m.vectorizer.Terms()
	out := make([]string, len(cols))
	for i, j := range cols {
		out[i] = terms[j]
	}
	return out
}

func (m *Model) ID() string { return m.id }

func (m *Model) Language() language.Language { return m.lang }

// K returns the number of clusters.
func (m *Model) K() int { return m.clusters.K() }

func (m *Model) SectionCount() int { return m.sectionCount }

func (m *Model) Inertia() float64 { return m.clusters.Inertia }

func (m *Model) Vectorizer() *tfidf.Vectorizer { return m.vectorizer }

func (m *Model) Window() Window { return m.window }

// Passages returns the indexed passages in corpus order.
func (m *Model) Passages() []domain.Passage {
	out := make([]domain.Passage, len(m.passages))
	copy(out, m.passages)
	return out
}

// Labels returns the cluster id of every passage.
func (m *Model) Labels() []int {
	out := make([]int, len(m.clusters.Labels))
	copy(out, m.clusters.Labels)
	return out
}

// Row returns the TF-IDF row of passage i.
func (m *Model) Row(i int) tfidf.SparseVector { return m.rows[i] }
