package model

const (
	DefaultLowerPercentile = 0.05
	DefaultUpperPercentile = 0.95
)

// Window narrows the passage indices of a cluster to the band between two
// percentile ranks. A disabled window keeps every index.
type Window struct {
	Enabled bool
	Lower   float64
	Upper   float64
}

func DefaultWindow() Window {
	return Window{Enabled: true, Lower: DefaultLowerPercentile, Upper: DefaultUpperPercentile}
}

// Apply keeps the indices i with L[int(n*Lower)] <= i <= L[int(n*Upper)],
// where L is the ascending input of length n. Ranks are clamped to [0, n-1].
func (w Window) Apply(indices []int) []int {
	out := make([]int, 0, len(indices))
	n := len(indices)
	if !w.Enabled || n == 0 {
		return append(out, indices...)
	}
	lo := indices[rank(n, w.Lower)]
	hi := indices[rank(n, w.Upper)]
	for _, i := range indices {
		if i >= lo && i <= hi {
			out = append(out, i)
		}
	}
	return out
}

func rank(n int, p float64) int {
	r := int(float64(n) * p)
	return max(0, min(r, n-1))
}
