package services

import (
	"testing"
	"time"

	"price-slider/models"
	"price-slider/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func TestCleanerParsePrice(t *testing.T) {
	c := NewCleaner(newTestLogger())

	tests := []struct {
		raw  string
		want float64
	}{
		{"€120 night", 120},
		{"฿3,500 /night", 3500},
		{"", 0},
		{"free", 0},
		{"$1,200.50", 1200.50},
		{"$450 for 3 nights", 150},
		{"EUR 99", 99},
	}

	for _, tt := range tests {
		got := c.parsePrice(tt.raw)
		if got != tt.want {
			t.Errorf("parsePrice(%q) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerDropsInadmissiblePrices(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawPrice{
		{Kind: "accommodation", City: "berlin", Text: "€0.50", ScrapedAt: time.Now()},
		{Kind: "accommodation", City: "berlin", Text: "sold out", ScrapedAt: time.Now()},
		{Kind: "accommodation", City: "berlin", Text: "€85", ScrapedAt: time.Now()},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 price after cleaning, got %d", len(cleaned))
	}
	if cleaned[0].Price != 85 {
		t.Errorf("price: got %.2f, want 85", cleaned[0].Price)
	}
}

func TestCleanerDeduplicatesURL(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawPrice{
		{Kind: "accommodation", City: "Glasgow", Text: "£70", URL: "https://example.com/rooms/1"},
		{Kind: "accommodation", City: "Glasgow", Text: "£70", URL: "https://example.com/rooms/1"},
		{Kind: "accommodation", City: "Glasgow", Text: "£90"},
		{Kind: "accommodation", City: "Glasgow", Text: "£90"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 3 {
		t.Errorf("expected 3 prices after deduplication, got %d", len(cleaned))
	}
}

func TestCleanerNormalisesCityAndKind(t *testing.T) {
	c := NewCleaner(newTestLogger())
	cleaned := c.Clean([]*models.RawPrice{{Kind: " Flight ", City: "  new   york ", Text: "320"}})
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 price, got %d", len(cleaned))
	}
	if cleaned[0].City != "New York" || cleaned[0].Kind != "flight" {
		t.Errorf("got city %q kind %q", cleaned[0].City, cleaned[0].Kind)
	}
	if got := Prices(cleaned); len(got) != 1 || got[0] != 320 {
		t.Errorf("Prices: got %v", got)
	}
}
