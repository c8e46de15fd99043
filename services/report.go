package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"price-slider/histogram"
	"price-slider/models"
	"price-slider/utils"
)

// ReportService summarises datasets and prints histograms for operators.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Summarize computes count, min, max, average and median of values.
func (s *ReportService) Summarize(kind, city string, values []float64) *models.DatasetSummary {
	sum := &models.DatasetSummary{Kind: kind, City: city, Count: len(values)}
	if len(values) == 0 {
		return sum
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	sum.Min = round2(sorted[0])
	sum.Max = round2(sorted[len(sorted)-1])
	sum.Average = round2(total / float64(len(sorted)))

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		sum.Median = round2((sorted[mid-1] + sorted[mid]) / 2)
	} else {
		sum.Median = round2(sorted[mid])
	}
	return sum
}

// Print writes the summary and one table row per bin.
func (s *ReportService) Print(w io.Writer, name string, sum *models.DatasetSummary, h histogram.Histogram) {
	fmt.Fprintf(w, "\n%s · %s · %s\n", name, sum.Kind, sum.City)

	if h.Empty {
		fmt.Fprintln(w, "  No data")
		return
	}
	fmt.Fprintf(w, "  samples %d · min %.2f · median %.2f · avg %.2f · max %.2f\n",
		sum.Count, sum.Min, sum.Median, sum.Average, sum.Max)
	fmt.Fprintf(w, "  filter %s · included %d/%d\n", h.FilterLabel, h.Included, h.Samples)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Range", "Total", "Included", "Bar"})
	for _, b := range h.Bins {
		t.AppendRow(table.Row{b.Label, b.Total, b.Included, bar(b, 24)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// bar draws the bin as included cells followed by excluded cells.
func bar(b histogram.Bin, width int) string {
	cells := int(b.Height*float64(width) + 0.5)
	in := int(b.IncludedShare*float64(cells) + 0.5)
	return strings.Repeat("█", in) + strings.Repeat("░", cells-in)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
