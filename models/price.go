package models

import "time"

// Dataset kinds stored per city.
const (
	KindFlight        = "flight"
	KindAccommodation = "accommodation"
)

// RawPrice holds an unprocessed price string as scraped from a page.
type RawPrice struct {
	Kind      string
	City      string
	Text      string
	URL       string
	ScrapedAt time.Time
}

// PriceSample is a cleaned price ready for storage. Samples for one
// (Kind, City) pair form a histogram dataset.
type PriceSample struct {
	ID        int64
	Kind      string
	City      string
	Price     float64
	Source    string
	CreatedAt time.Time
}

// DatasetSummary holds descriptive statistics over one dataset.
type DatasetSummary struct {
	Kind    string
	City    string
	Count   int
	Min     float64
	Max     float64
	Average float64
	Median  float64
}
