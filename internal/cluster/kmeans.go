// Package cluster partitions TF-IDF rows into topics with k-means.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"askip/internal/embedding/tfidf"
)

const (
	DefaultMaxIterations = 300
	DefaultNInit         = 4
	DefaultTolerance     = 1e-4
)

// ErrInvalidK is returned when k is not in [1, number of rows].
var ErrInvalidK = errors.New("invalid cluster count")

// Options configures a k-means run. Seed fixes the k-means++ sampling so
// identical inputs always give identical labels.
type Options struct {
	K             int
	MaxIterations int
	NInit         int
	Tolerance     float64
	Seed          uint64
	Workers       int
}

// Result is a fitted partition. Every cluster id in [0, K) has at least one member.
type Result struct {
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int

	norms []float64
}

// KMeans clusters rows of dimension dim into opts.K groups.
func KMeans(rows []tfidf.SparseVector, dim int, opts Options) (*Result, error) {
	n := len(rows)
	if opts.K <= 0 || opts.K > n {
		return nil, fmt.Errorf("%w: k=%d for %d rows", ErrInvalidK, opts.K, n)
	}
	if dim <= 0 {
		return nil, errors.New("kmeans: dimension must be positive")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.NInit <= 0 {
		opts.NInit = DefaultNInit
	}
	if opts.Tolerance < 0 {
		opts.Tolerance = 0
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	km := &solver{
		rows:    rows,
		dim:     dim,
		k:       opts.K,
		opts:    opts,
		rowNorm: make([]float64, n),
		rng:     rand.New(rand.NewPCG(opts.Seed, 0x9e3779b97f4a7c15)),
	}
	for i, r := range rows {
		km.rowNorm[i] = r.SquaredNorm()
	}
	km.tol = opts.Tolerance * km.meanVariance()

	var best *Result
	for run := 0; run < opts.NInit; run++ {
		res, err := km.run()
		if err != nil {
			return nil, err
		}
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

// K returns the number of clusters.
func (r *Result) K() int { return len(r.Centroids) }

// Predict returns the id of the centroid nearest to x. The zero vector goes
// to the centroid closest to the origin. Ties resolve to the lowest id.
func (r *Result) Predict(x tfidf.SparseVector) int {
	norms := r.norms
	if len(norms) != len(r.Centroids) {
		norms = centroidNorms(r.Centroids)
	}
	c, _ := nearest(x, x.SquaredNorm(), r.Centroids, norms)
	return c
}

// Members returns the row indices labelled with cluster id, ascending.
func (r *Result) Members(id int) []int {
	var out []int
	for i, l := range r.Labels {
		if l == id {
			out = append(out, i)
		}
	}
	return out
}

// Sizes returns the member count of every cluster.
func (r *Result) Sizes() []int {
	out := make([]int, r.K())
	for _, l := range r.Labels {
		out[l]++
	}
	return out
}

type solver struct {
	rows    []tfidf.SparseVector
	rowNorm []float64
	dim     int
	k       int
	opts    Options
	tol     float64
	rng     *rand.Rand
}

func (s *solver) run() (*Result, error) {
	centroids := s.seed()
	norms := centroidNorms(centroids)
	labels := make([]int, len(s.rows))
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for iter < s.opts.MaxIterations {
		iter++
		changed, err := s.assign(centroids, norms, labels)
		if err != nil {
			return nil, err
		}
		if changed == 0 {
			break
		}
		next := s.means(labels)
		s.relocateEmpty(next, labels)
		shift := 0.0
		for c := range next {
			shift += squaredDistance(next[c], centroids[c])
		}
		centroids = next
		norms = centroidNorms(centroids)
		if shift <= s.tol {
			break
		}
	}
	// labels must agree with the final centroids
	if _, err := s.assign(centroids, norms, labels); err != nil {
		return nil, err
	}
	if s.relocateEmpty(centroids, labels) {
		norms = centroidNorms(centroids)
	}

	inertia := 0.0
	for i, r := range s.rows {
		inertia += distance(r, s.rowNorm[i], centroids[labels[i]], norms[labels[i]])
	}
	return &Result{
		Labels:     labels,
		Centroids:  centroids,
		Inertia:    inertia,
		Iterations: iter,
		norms:      norms,
	}, nil
}

// seed picks initial centroids with greedy k-means++: each step samples a few
// candidates proportionally to their squared distance and keeps the one that
// lowers the potential most.
func (s *solver) seed() [][]float64 {
	n := len(s.rows)
	trials := 2 + int(math.Log(float64(s.k)))
	centroids := make([][]float64, 0, s.k)
	chosen := make(map[int]bool, s.k)

	first := s.rng.IntN(n)
	centroids = append(centroids, s.rows[first].Dense(s.dim))
	chosen[first] = true
	closest := s.distancesTo(first)

	for len(centroids) < s.k {
		total := sumOf(closest)
		if total <= 0 {
			// remaining rows duplicate chosen centroids
			for i := 0; i < n; i++ {
				if !chosen[i] {
					centroids = append(centroids, s.rows[i].Dense(s.dim))
					chosen[i] = true
					closest = minInto(closest, s.distancesTo(i))
					break
				}
			}
			continue
		}
		bestIdx, bestPot := -1, math.Inf(1)
		var bestDist []float64
		for t := 0; t < trials; t++ {
			cand := sample(closest, total, s.rng.Float64())
			if cand < 0 || chosen[cand] {
				continue
			}
			d := minInto(append([]float64(nil), closest...), s.distancesTo(cand))
			if pot := sumOf(d); pot < bestPot {
				bestIdx, bestPot, bestDist = cand, pot, d
			}
		}
		if bestIdx < 0 {
			continue
		}
		centroids = append(centroids, s.rows[bestIdx].Dense(s.dim))
		chosen[bestIdx] = true
		closest = bestDist
	}
	return centroids
}

func (s *solver) distancesTo(idx int) []float64 {
	c := s.rows[idx].Dense(s.dim)
	cn := s.rowNorm[idx]
	out := make([]float64, len(s.rows))
	for i, r := range s.rows {
		out[i] = distance(r, s.rowNorm[i], c, cn)
	}
	return out
}

// assign labels every row with its nearest centroid. Workers own disjoint
// row ranges, so the result does not depend on the worker count.
func (s *solver) assign(centroids [][]float64, norms []float64, labels []int) (int, error) {
	n := len(s.rows)
	workers := min(s.opts.Workers, n)
	size := (n + workers - 1) / workers
	changes := make([]int, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo, hi := w*size, min((w+1)*size, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				c, _ := nearest(s.rows[i], s.rowNorm[i], centroids, norms)
				if labels[i] != c {
					labels[i] = c
					changes[w]++
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return sumOf(changes), nil
}

// means recomputes centroids in row order. An empty cluster keeps a zero centroid
// until relocateEmpty fills it.
func (s *solver) means(labels []int) [][]float64 {
	out := make([][]float64, s.k)
	counts := make([]int, s.k)
	for c := range out {
		out[c] = make([]float64, s.dim)
	}
	for i, r := range s.rows {
		c := labels[i]
		counts[c]++
		for k, j := range r.Indices {
			out[c][j] += r.Values[k]
		}
	}
	for c := range out {
		if counts[c] == 0 {
			continue
		}
		inv := 1 / float64(counts[c])
		for j := range out[c] {
			out[c][j] *= inv
		}
	}
	return out
}

// relocateEmpty gives every empty cluster the row farthest from its own
// centroid, taken from a cluster with more than one member, then recomputes
// the centroids in place. It reports whether anything moved.
func (s *solver) relocateEmpty(centroids [][]float64, labels []int) bool {
	counts := make([]int, s.k)
	for _, l := range labels {
		counts[l]++
	}
	moved := false
	for c := 0; c < s.k; c++ {
		if counts[c] > 0 {
			continue
		}
		norms := centroidNorms(centroids)
		far, farDist := -1, -1.0
		for i, r := range s.rows {
			if counts[labels[i]] < 2 {
				continue
			}
			if d := distance(r, s.rowNorm[i], centroids[labels[i]], norms[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			continue
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c]++
		moved = true
	}
	if moved {
		copy(centroids, s.means(labels))
	}
	return moved
}

func (s *solver) meanVariance() float64 {
	n := float64(len(s.rows))
	mean := make([]float64, s.dim)
	sq := 0.0
	for i, r := range s.rows {
		sq += s.rowNorm[i]
		for k, j := range r.Indices {
			mean[j] += r.Values[k]
		}
	}
	meanSq := 0.0
	for j := range mean {
		mean[j] /= n
		meanSq += mean[j] * mean[j]
	}
	return (sq/n - meanSq) / float64(s.dim)
}

func nearest(x tfidf.SparseVector, xNorm float64, centroids [][]float64, norms []float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for c := range centroids {
		if d := distance(x, xNorm, centroids[c], norms[c]); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}

// distance is the squared Euclidean distance between a sparse row and a dense centroid.
func distance(x tfidf.SparseVector, xNorm float64, c []float64, cNorm float64) float64 {
	d := xNorm - 2*x.Dot(c) + cNorm
	if d < 0 {
		return 0
	}
	return d
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func centroidNorms(centroids [][]float64) []float64 {
	out := make([]float64, len(centroids))
	for c, v := range centroids {
		for _, x := range v {
			out[c] += x * x
		}
	}
	return out
}

func sample(weights []float64, total, u float64) int {
	target := u * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if acc > target {
			return i
		}
	}
	return last
}

func minInto(dst, src []float64) []float64 {
	for i := range dst {
		if src[i] < dst[i] {
			dst[i] = src[i]
		}
	}
	return dst
}

func sumOf[T int | float64](xs []T) T {
	var s T
	for _, x := range xs {
		s += x
	}
	return s
}
