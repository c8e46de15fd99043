// Package pricemap converts slider positions into prices.
//
// Every mapping exposes the same formula twice: once for the current filter
// value and once for the histogram bin edges. Edges are never derived by
// inverting the curve, so a sample sitting exactly on an edge and a filter
// value at the same position always compare equal.
package pricemap

import (
	"errors"
	"fmt"
	"math"
)

// Mode names a mapping strategy.
type Mode string

const (
	ModePiecewise  Mode = "piecewise"
	ModeLogLinear  Mode = "loglinear"
	ModeDatasetLog Mode = "datasetlog"
)

// splitAt is the fraction of slider travel spent on the exponential segment.
const splitAt = 0.7

var (
	ErrInvalidRange    = errors.New("pricemap: invalid price range")
	ErrInvalidMidpoint = errors.New("pricemap: midpoint outside price range")
	ErrUnknownMode     = errors.New("pricemap: unknown mapping mode")
)

// Mapping turns a slider position into a price.
type Mapping interface {
	Mode() Mode
	// Bounds returns the slider's native [min, max] position range.
	Bounds() (lo, hi float64)
	// Price maps a position in the native range to a price.
	Price(position float64) float64
	// Edges returns binCount+1 ascending bin boundaries.
	Edges(binCount int) []float64
}

// ParseMode accepts the names used in config files.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePiecewise, ModeLogLinear, ModeDatasetLog:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Piecewise is exponential from Min to Mid over the first 70% of travel and
// linear from Mid to Max over the rest.
type Piecewise struct {
	Min, Mid, Max float64
}

// NewPiecewise validates the bounds.
func NewPiecewise(minVal, midVal, maxVal float64) (*Piecewise, error) {
	if err := checkRange(minVal, maxVal); err != nil {
		return nil, err
	}
	if midVal < minVal || midVal > maxVal {
		return nil, fmt.Errorf("%w: mid=%g not in [%g, %g]", ErrInvalidMidpoint, midVal, minVal, maxVal)
	}
	return &Piecewise{Min: minVal, Mid: midVal, Max: maxVal}, nil
}

func (m *Piecewise) Mode() Mode { return ModePiecewise }

func (m *Piecewise) Bounds() (float64, float64) { return 0, 100 }

func (m *Piecewise) Price(position float64) float64 {
	return m.at(position / 100)
}

func (m *Piecewise) Edges(binCount int) []float64 {
	return edges(binCount, m.at)
}

func (m *Piecewise) at(pct float64) float64 {
	if pct <= splitAt {
		return m.Min * math.Pow(m.Mid/m.Min, pct/splitAt)
	}
	return m.Mid + (m.Max-m.Mid)*((pct-splitAt)/(1-splitAt))
}

// LogLinear is a single exponential curve from Min to Max.
type LogLinear struct {
	Min, Max float64
}

func NewLogLinear(minVal, maxVal float64) (*LogLinear, error) {
	if err := checkRange(minVal, maxVal); err != nil {
		return nil, err
	}
	return &LogLinear{Min: minVal, Max: maxVal}, nil
}

func (m *LogLinear) Mode() Mode { return ModeLogLinear }

func (m *LogLinear) Bounds() (float64, float64) { return 0, 100 }

func (m *LogLinear) Price(position float64) float64 {
	return m.at(position / 100)
}

func (m *LogLinear) Edges(binCount int) []float64 {
	return edges(binCount, m.at)
}

func (m *LogLinear) at(pct float64) float64 {
	lo, hi := math.Log10(m.Min), math.Log10(m.Max)
	return math.Pow(10, lo+pct*(hi-lo))
}

// DatasetLog takes its range from the data: the slider moves through
// log10(v+1) space directly and the position is the log coordinate.
// Positions at either bound map back to the observed min and max exactly.
type DatasetLog struct {
	MinLog, MaxLog     float64
	MinValue, MaxValue float64
}

// NewDatasetLog derives the log range from values. Values are expected to be
// sanitised already; an empty slice yields a zero range.
func NewDatasetLog(values []float64) *DatasetLog {
	if len(values) == 0 {
		return &DatasetLog{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return &DatasetLog{
		MinLog:   math.Log10(lo + 1),
		MaxLog:   math.Log10(hi + 1),
		MinValue: lo,
		MaxValue: hi,
	}
}

func (m *DatasetLog) Mode() Mode { return ModeDatasetLog }

func (m *DatasetLog) Bounds() (float64, float64) { return m.MinLog, m.MaxLog }

func (m *DatasetLog) Price(position float64) float64 {
	if m.MaxValue > 0 {
		if position >= m.MaxLog {
			return m.MaxValue
		}
		if position <= m.MinLog {
			return m.MinValue
		}
		return math.Min(math.Max(math.Pow(10, position)-1, m.MinValue), m.MaxValue)
	}
	return math.Pow(10, position) - 1
}

func (m *DatasetLog) Edges(binCount int) []float64 {
	size := (m.MaxLog - m.MinLog) / float64(binCount)
	out := make([]float64, binCount+1)
	for i := range out {
		x := m.MinLog + float64(i)*size
		if i == binCount {
			x = m.MaxLog
		}
		out[i] = m.Price(x)
	}
	return out
}

func edges(binCount int, at func(float64) float64) []float64 {
	out := make([]float64, binCount+1)
	for i := range out {
		out[i] = at(float64(i) / float64(binCount))
	}
	return out
}

func checkRange(minVal, maxVal float64) error {
	if !(minVal > 0) || math.IsInf(minVal, 0) {
		return fmt.Errorf("%w: min=%g must be > 0", ErrInvalidRange, minVal)
	}
	if maxVal < minVal || math.IsInf(maxVal, 0) || math.IsNaN(maxVal) {
		return fmt.Errorf("%w: max=%g below min=%g", ErrInvalidRange, maxVal, minVal)
	}
	return nil
}
