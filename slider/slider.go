// Package slider ties a price mapping, a dataset and a position together
// into one price-filter instance. Every interaction recomputes the histogram
// from scratch and pushes it to the instance's View.
package slider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"price-slider/dataset"
	"price-slider/histogram"
	"price-slider/pricemap"
	"price-slider/utils"
)

var (
	ErrInvalidBinCount = errors.New("slider: bin count must be at least 1")
	ErrInvalidPosition = errors.New("slider: default position outside [0, 100]")
)

// Options configures one slider instance. Mid selects the piecewise curve
// when Mode is empty.
type Options struct {
	Name            string
	Kind            string
	Mode            pricemap.Mode
	Min             float64
	Mid             float64
	Max             float64
	DefaultPosition float64
	BinCount        int
}

// View receives every redraw. Implementations stand in for the host page's
// range input, price output and chart container.
type View interface {
	SetPosition(position, lo, hi float64)
	SetOutput(text string)
	RenderBins(h histogram.Histogram)
}

// PriceSlider is one independent slider + histogram instance.
type PriceSlider struct {
	opts   Options
	view   View
	logger *utils.Logger

	mu       sync.Mutex
	mapping  pricemap.Mapping
	values   []float64
	position float64
	last     histogram.Histogram

	loadGen    uint64
	cancelLoad context.CancelFunc
}

// New validates opts, builds the mapping and draws the initial empty state.
// view may be nil.
func New(opts Options, view View, logger *utils.Logger) (*PriceSlider, error) {
	if opts.BinCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBinCount, opts.BinCount)
	}
	mode, err := resolveMode(opts)
	if err != nil {
		return nil, err
	}
	opts.Mode = mode

	var mapping pricemap.Mapping
	switch mode {
	case pricemap.ModePiecewise:
		mapping, err = pricemap.NewPiecewise(opts.Min, opts.Mid, opts.Max)
	case pricemap.ModeLogLinear:
		mapping, err = pricemap.NewLogLinear(opts.Min, opts.Max)
	case pricemap.ModeDatasetLog:
		mapping = pricemap.NewDatasetLog(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("slider %q: %w", opts.Name, err)
	}
	if mode != pricemap.ModeDatasetLog && (math.IsNaN(opts.DefaultPosition) || opts.DefaultPosition < 0 || opts.DefaultPosition > 100) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidPosition, opts.DefaultPosition)
	}

	s := &PriceSlider{
		opts:     opts,
		view:     view,
		logger:   logger,
		mapping:  mapping,
		values:   []float64{},
		position: opts.DefaultPosition,
	}
	s.mu.Lock()
	s.redraw()
	s.mu.Unlock()
	return s, nil
}

func resolveMode(opts Options) (pricemap.Mode, error) {
	if opts.Mode != "" {
		return pricemap.ParseMode(string(opts.Mode))
	}
	if opts.Mid > 0 {
		return pricemap.ModePiecewise, nil
	}
	return pricemap.ModeLogLinear, nil
}

// Options returns the resolved configuration.
func (s *PriceSlider) Options() Options { return s.opts }

// UpdateDataset replaces the dataset wholesale and redraws at the current
// position. Inadmissible values are dropped.
func (s *PriceSlider) UpdateDataset(values []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(dataset.Sanitize(values))
}

// OnPositionChange handles a user move of the control.
func (s *PriceSlider) OnPositionChange(position float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = position
	s.redraw()
}

// SetPosition moves the control programmatically and redraws.
func (s *PriceSlider) SetPosition(position float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = position
	if s.view != nil {
		lo, hi := s.mapping.Bounds()
		s.view.SetPosition(position, lo, hi)
	}
	s.redraw()
}

// Price maps a position without touching the instance's state.
func (s *PriceSlider) Price(position float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapping.Price(position)
}

// Position returns the current control position.
func (s *PriceSlider) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Bounds returns the control's native range.
func (s *PriceSlider) Bounds() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapping.Bounds()
}

// Snapshot returns the most recent render.
func (s *PriceSlider) Snapshot() histogram.Histogram {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Load fetches a dataset from src and installs it. A Load started later
// cancels this one; results of a superseded load are discarded. A failed
// load is logged and leaves the slider showing no data.
func (s *PriceSlider) Load(ctx context.Context, src dataset.Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.loadGen++
	gen := s.loadGen
	s.cancelLoad = cancel
	s.mu.Unlock()

	values, err := src.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		return context.Canceled
	}
	s.cancelLoad = nil
	if err != nil {
		s.logf("[slider] %s: dataset load failed: %v", s.opts.Name, err)
		s.replace([]float64{})
		return fmt.Errorf("slider %q: load: %w", s.opts.Name, err)
	}
	s.replace(dataset.Sanitize(values))
	return nil
}

// replace installs values and redraws. Caller holds mu.
func (s *PriceSlider) replace(values []float64) {
	s.values = values
	if s.opts.Mode == pricemap.ModeDatasetLog {
		s.mapping = pricemap.NewDatasetLog(values)
		lo, hi := s.mapping.Bounds()
		s.position = hi
		if s.view != nil {
			s.view.SetPosition(hi, lo, hi)
		}
	}
	s.redraw()
}

// redraw recomputes the histogram for the current state. Caller holds mu.
func (s *PriceSlider) redraw() {
	filter := s.mapping.Price(s.position)
	s.last = histogram.Compute(s.values, filter, s.mapping.Edges(s.opts.BinCount))
	if s.view == nil {
		return
	}
	s.view.SetOutput(s.last.FilterLabel)
	s.view.RenderBins(s.last)
}

func (s *PriceSlider) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Error(format, args...)
	}
}
