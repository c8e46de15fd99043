package scraper

import (
	"context"

	"price-slider/config"
	"price-slider/dataset"
	"price-slider/services"
)

// Source scrapes a single target on demand and serves the cleaned prices
// as a dataset.
type Source struct {
	Scraper *Scraper
	Cleaner *services.Cleaner
	Target  config.ScrapeTarget
}

func (src Source) Fetch(ctx context.Context) ([]float64, error) {
	raw, err := src.Scraper.Scrape(ctx, []config.ScrapeTarget{src.Target})
	if err != nil {
		return nil, err
	}
	return dataset.Sanitize(services.Prices(src.Cleaner.Clean(raw))), nil
}
