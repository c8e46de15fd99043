package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"price-slider/dataset"
	"price-slider/models"
	"price-slider/utils"
)

var (
	// priceRegexp captures numeric price values
	priceRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
	// nightsRegexp captures "X nights" or "X night" patterns
	nightsRegexp = regexp.MustCompile(`(\d+)\s*nights?`)
)

// Cleaner turns scraped price text into admissible price samples.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses raw prices, drops unparseable or inadmissible ones and
// removes duplicate listing URLs.
func (c *Cleaner) Clean(raw []*models.RawPrice) []*models.PriceSample {
	seen := make(map[string]struct{})
	result := make([]*models.PriceSample, 0, len(raw))

	for _, r := range raw {
		url := strings.TrimSpace(r.URL)
		if url != "" {
			if _, dup := seen[url]; dup {
				c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
				continue
			}
			seen[url] = struct{}{}
		}

		price := c.parsePrice(r.Text)
		if price < dataset.MinPrice {
			c.logger.Debug("[cleaner] Dropping price %q for %s", r.Text, r.City)
			continue
		}

		result = append(result, &models.PriceSample{
			Kind:      strings.ToLower(strings.TrimSpace(r.Kind)),
			City:      normaliseCity(r.City),
			Price:     price,
			Source:    url,
			CreatedAt: time.Now(),
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d prices (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	return result
}

// Prices extracts the price column of samples.
func Prices(samples []*models.PriceSample) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Price)
	}
	return out
}

// parsePrice extracts a price and converts multi-night totals to a nightly rate.
//
//	"$150 night"        → 150
//	"$450 for 3 nights" → 150
func (c *Cleaner) parsePrice(raw string) float64 {
	raw = strings.ToLower(raw)

	cleaned := strings.ReplaceAll(raw, ",", "")
	loc := priceRegexp.FindStringIndex(cleaned)
	if loc == nil {
		return 0
	}

	totalPrice, err := strconv.ParseFloat(cleaned[loc[0]:loc[1]], 64)
	if err != nil {
		return 0
	}

	// the night count must follow the amount, "120 night" is a nightly rate
	nightsMatch := nightsRegexp.FindStringSubmatch(cleaned[loc[1]:])
	if len(nightsMatch) >= 2 {
		nights, err := strconv.Atoi(nightsMatch[1])
		if err == nil && nights > 1 {
			perNight := totalPrice / float64(nights)
			c.logger.Debug("[cleaner] Multi-night price: %.2f for %d nights = %.2f/night",
				totalPrice, nights, perNight)
			return perNight
		}
	}
	return totalPrice
}

// normaliseCity collapses whitespace and title-cases each word.
func normaliseCity(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		r := []rune(strings.ToLower(f))
		r[0] = unicode.ToUpper(r[0])
		fields[i] = string(r)
	}
	return strings.Join(fields, " ")
}
