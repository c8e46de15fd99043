// Package histogram bins price samples against a set of edges and produces
// view-models describing how much of each bin sits under a filter value.
package histogram

import (
	"math"
	"sort"
	"strconv"
)

// CurrencySymbol prefixes formatted filter values.
const CurrencySymbol = "€"

// Bin is one price interval. Lower is inclusive; Upper is exclusive except
// for the last bin of a histogram.
type Bin struct {
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Total    int     `json:"total"`
	Included int     `json:"included"`
	Label    string  `json:"label"`

	// Height is Total scaled against the fullest bin, in [0, 1].
	Height float64 `json:"height"`
	// IncludedShare is the part of Height at or under the filter, in [0, 1].
	IncludedShare float64 `json:"included_share"`
}

// Histogram is the full render result for one filter value.
type Histogram struct {
	Bins        []Bin   `json:"bins"`
	FilterValue float64 `json:"filter_value"`
	FilterLabel string  `json:"filter_label"`
	Samples     int     `json:"samples"`
	Included    int     `json:"included"`
	MaxTotal    int     `json:"max_total"`
	// Empty marks the no-data state; Bins is nil when set.
	Empty bool `json:"empty"`
}

// Compute places every value into the bins described by edges and counts
// those at or under filter. Values outside the edge range clamp into the
// first or last bin. An empty dataset, or fewer than two edges, yields an
// Empty histogram.
func Compute(values []float64, filter float64, edges []float64) Histogram {
	h := Histogram{
		FilterValue: filter,
		FilterLabel: FormatPrice(filter),
	}
	binCount := len(edges) - 1
	if len(values) == 0 || binCount < 1 {
		h.Empty = true
		return h
	}

	h.Bins = make([]Bin, binCount)
	for i := range h.Bins {
		h.Bins[i].Lower = edges[i]
		h.Bins[i].Upper = edges[i+1]
		h.Bins[i].Label = FormatNumber(edges[i]) + " – " + FormatNumber(edges[i+1])
	}

	for _, v := range values {
		b := &h.Bins[Locate(edges, v)]
		b.Total++
		h.Samples++
		if v <= filter {
			b.Included++
			h.Included++
		}
	}

	for _, b := range h.Bins {
		if b.Total > h.MaxTotal {
			h.MaxTotal = b.Total
		}
	}
	for i := range h.Bins {
		b := &h.Bins[i]
		if b.Total == 0 {
			continue
		}
		b.Height = float64(b.Total) / float64(h.MaxTotal)
		b.IncludedShare = float64(b.Included) / float64(b.Total)
	}
	return h
}

// Locate returns the index of the bin holding v. edges must be ascending and
// hold at least two entries.
func Locate(edges []float64, v float64) int {
	last := len(edges) - 2
	// first edge strictly greater than v
	j := sort.Search(len(edges), func(i int) bool { return edges[i] > v })
	idx := j - 1
	if idx < 0 {
		return 0
	}
	if idx > last {
		return last
	}
	return idx
}

// FormatNumber renders a bin edge or price for display.
func FormatNumber(v float64) string {
	switch {
	case v < 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case v < 100:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
}

// FormatPrice is FormatNumber with the currency symbol.
func FormatPrice(v float64) string {
	return CurrencySymbol + FormatNumber(v)
}
