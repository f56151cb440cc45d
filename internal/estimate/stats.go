package estimate

import "slices"

// Stats summarizes a €/m² price series drawn from market listings.
type Stats struct {
	N      int     `json:"n"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// Compute sorts the series and derives count, median and quartiles. The
// quartiles use the nearest-rank index int(q*(n-1)) over the sorted series;
// the median is the true sample median (mean of the middle pair when the
// count is even). Returns nil for an empty series.
func Compute(prices []float64) *Stats {
	if len(prices) == 0 {
		return nil
	}

	sorted := slices.Clone(prices)
	slices.Sort(sorted)
	n := len(sorted)

	return &Stats{
		N:      n,
		Median: median(sorted),
		P25:    sorted[int(0.25*float64(n-1))],
		P75:    sorted[int(0.75*float64(n-1))],
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
