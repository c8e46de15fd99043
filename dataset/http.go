package dataset

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"price-slider/utils"
)

// HTTPSource fetches a CSV dataset over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
	Retry  *utils.RetryConfig
}

// NewHTTPSource returns a source with a 30s client and the given retry policy.
func NewHTTPSource(url string, retry *utils.RetryConfig) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
		Retry:  retry,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]float64, error) {
	var values []float64
	get := func(ctx context.Context) error {
		v, err := s.get(ctx)
		if err != nil {
			return err
		}
		values = v
		return nil
	}

	if s.Retry == nil {
		if err := get(ctx); err != nil {
			return nil, err
		}
		return values, nil
	}
	if err := s.Retry.Do(ctx, "fetch "+s.URL, get); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *HTTPSource) get(ctx context.Context) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset: build request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset: get %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset: get %s: unexpected status %s", s.URL, resp.Status)
	}
	return ParseCSV(resp.Body)
}
