package cluster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askip/internal/embedding/tfidf"
)

func vec(dense ...float64) tfidf.SparseVector {
	var s tfidf.SparseVector
	for i, v := range dense {
		if v != 0 {
			s.Indices = append(s.Indices, i)
			s.Values = append(s.Values, v)
		}
	}
	return s
}

// three tight groups on separate axes
func groups() []tfidf.SparseVector {
	return []tfidf.SparseVector{
		vec(1, 0.1, 0), vec(0.9, 0, 0.1), vec(1, 0, 0),
		vec(0, 1, 0.1), vec(0.1, 0.9, 0), vec(0, 1, 0),
		vec(0, 0.1, 1), vec(0.1, 0, 0.9), vec(0, 0, 1),
	}
}

func TestKMeans_SeparatesGroups(t *testing.T) {
	res, err := KMeans(groups(), 3, Options{K: 3, Seed: 7})
	require.NoError(t, err)

	require.Equal(t, 3, res.K())
	for g := 0; g < 3; g++ {
		l := res.Labels[3*g]
		assert.Equal(t, l, res.Labels[3*g+1])
		assert.Equal(t, l, res.Labels[3*g+2])
	}
	assert.ElementsMatch(t, []int{3, 3, 3}, res.Sizes())
	assert.Greater(t, res.Iterations, 0)
	assert.Greater(t, res.Inertia, 0.0)
}

func TestKMeans_Deterministic(t *testing.T) {
	rows := groups()
	a, err := KMeans(rows, 3, Options{K: 4, Seed: 42})
	require.NoError(t, err)
	b, err := KMeans(rows, 3, Options{K: 4, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, a.Labels, b.Labels)
	assert.Equal(t, a.Centroids, b.Centroids)
	assert.Equal(t, a.Inertia, b.Inertia)
}

func TestKMeans_IndependentOfWorkers(t *testing.T) {
	rows := groups()
	one, err := KMeans(rows, 3, Options{K: 3, Seed: 3, Workers: 1})
	require.NoError(t, err)
	many, err := KMeans(rows, 3, Options{K: 3, Seed: 3, Workers: 5})
	require.NoError(t, err)

	assert.Equal(t, one.Labels, many.Labels)
	assert.Equal(t, one.Centroids, many.Centroids)
}

func TestKMeans_InvalidK(t *testing.T) {
	rows := groups()
	for _, k := range []int{0, -1, len(rows) + 1} {
		_, err := KMeans(rows, 3, Options{K: k})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidK), "k=%d", k)
	}

	_, err := KMeans(rows, 0, Options{K: 1})
	assert.Error(t, err)
}

func TestKMeans_KEqualsRows(t *testing.T) {
	rows := groups()
	res, err := KMeans(rows, 3, Options{K: len(rows), Seed: 1})
	require.NoError(t, err)

	for _, size := range res.Sizes() {
		assert.Equal(t, 1, size)
	}
	assert.InDelta(t, 0.0, res.Inertia, 1e-12)
}

func TestKMeans_DuplicateRowsKeepClustersNonEmpty(t *testing.T) {
	rows := []tfidf.SparseVector{vec(1, 0), vec(1, 0), vec(1, 0), vec(1, 0)}
	res, err := KMeans(rows, 2, Options{K: 3, Seed: 9})
	require.NoError(t, err)

	for c, size := range res.Sizes() {
		assert.GreaterOrEqual(t, size, 1, "cluster %d", c)
	}
}

func TestKMeans_ZeroRows(t *testing.T) {
	rows := []tfidf.SparseVector{{}, {}, vec(1, 0), vec(0.9, 0.1)}
	res, err := KMeans(rows, 2, Options{K: 2, Seed: 5})
	require.NoError(t, err)

	assert.Equal(t, res.Labels[0], res.Labels[1])
	assert.Equal(t, res.Labels[2], res.Labels[3])
	assert.NotEqual(t, res.Labels[0], res.Labels[2])
}

func TestResult_PredictRoundTrip(t *testing.T) {
	rows := groups()
	res, err := KMeans(rows, 3, Options{K: 3, Seed: 11})
	require.NoError(t, err)

	for i, r := range rows {
		assert.Equal(t, res.Labels[i], res.Predict(r), "row %d", i)
	}
}

func TestResult_PredictZeroVector(t *testing.T) {
	res := &Result{Centroids: [][]float64{{1, 1}, {0.1, 0}, {2, 0}}}

	assert.Equal(t, 1, res.Predict(tfidf.SparseVector{}))
	assert.Equal(t, 2, res.Predict(vec(3, 0)))
}

func TestResult_PredictTieGoesToLowestID(t *testing.T) {
	res := &Result{Centroids: [][]float64{{1, 0}, {1, 0}}}
	assert.Equal(t, 0, res.Predict(vec(1, 0)))
}

func TestResult_Members(t *testing.T) {
	res := &Result{Labels: []int{1, 0, 1, 1, 0}, Centroids: make([][]float64, 2)}

	assert.Equal(t, []int{1, 4}, res.Members(0))
	assert.Equal(t, []int{0, 2, 3}, res.Members(1))
	assert.Empty(t, res.Members(2))
	assert.Equal(t, []int{2, 3}, res.Sizes())
}
