package storage

import (
	"context"

	"price-slider/models"
)

// PriceWriter is the interface any storage backend must satisfy.
type PriceWriter interface {
	// Replace swaps the whole dataset for kind and city.
	Replace(ctx context.Context, kind, city string, samples []*models.PriceSample) error
	Close() error
}

// PriceReader serves histogram datasets.
type PriceReader interface {
	Prices(ctx context.Context, kind, city string) ([]float64, error)
	Cities(ctx context.Context, kind string) ([]string, error)
}
