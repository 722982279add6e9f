package tfidf

// SparseVector stores the non-zero entries of a row, Indices ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored entries.
func (s SparseVector) Len() int { return len(s.Indices) }

// IsZero reports whether the vector has no non-zero entry.
func (s SparseVector) IsZero() bool {
	for _, v := range s.Values {
		if v != 0 {
			return false
		}
	}
	return true
}

// Dot returns the inner product with a dense vector.
func (s SparseVector) Dot(dense []float64) float64 {
	sum := 0.0
	for k, i := range s.Indices {
		if i < len(dense) {
			sum += s.Values[k] * dense[i]
		}
	}
	return sum
}

// SquaredNorm returns the squared L2 norm.
func (s SparseVector) SquaredNorm() float64 {
	sum := 0.0
	for _, v := range s.Values {
		sum += v * v
	}
	return sum
}

// Dense expands the vector to dim columns.
func (s SparseVector) Dense(dim int) []float64 {
	out := make([]float64, dim)
	for k, i := range s.Indices {
		if i < dim {
			out[i] = s.Values[k]
		}
	}
	return out
}

// Get returns the value at column i.
func (s SparseVector) Get(i int) float64 {
	lo, hi := 0, len(s.Indices)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s.Indices[mid] == i:
			return s.Values[mid]
		case s.Indices[mid] < i:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}
