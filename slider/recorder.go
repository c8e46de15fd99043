package slider

import (
	"sync"

	"price-slider/histogram"
)

// Recorder is a View that keeps the latest state pushed to it. It backs
// server-side rendering, where the page elements live in a template.
type Recorder struct {
	mu        sync.Mutex
	Position  float64
	Lo, Hi    float64
	Output    string
	Histogram histogram.Histogram
	Renders   int
}

func (r *Recorder) SetPosition(position, lo, hi float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Position, r.Lo, r.Hi = position, lo, hi
}

func (r *Recorder) SetOutput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Output = text
}

func (r *Recorder) RenderBins(h histogram.Histogram) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Histogram = h
	r.Renders++
}
