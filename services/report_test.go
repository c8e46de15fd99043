package services

import (
	"bytes"
	"testing"

	"price-slider/histogram"
	"price-slider/utils"
)

func TestReportSummarize(t *testing.T) {
	svc := NewReportService(utils.NewLogger())
	s := svc.Summarize("accommodation", "Berlin", []float64{200, 50, 120, 300})

	if s.Count != 4 {
		t.Errorf("Count: got %d, want 4", s.Count)
	}
	if s.Min != 50 || s.Max != 300 {
		t.Errorf("Min/Max: got %.2f/%.2f, want 50/300", s.Min, s.Max)
	}
	if s.Average != 167.5 {
		t.Errorf("Average: got %.2f, want 167.50", s.Average)
	}
	if s.Median != 160 {
		t.Errorf("Median: got %.2f, want 160", s.Median)
	}
}

func TestReportSummarizeEmpty(t *testing.T) {
	svc := NewReportService(utils.NewLogger())
	s := svc.Summarize("flight", "Glasgow", nil)
	if s.Count != 0 || s.Max != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestReportPrint(t *testing.T) {
	svc := NewReportService(utils.NewLogger())
	values := []float64{15, 15, 60, 300}
	h := histogram.Compute(values, 100, []float64{10, 44.72, 200, 550})

	var buf bytes.Buffer
	svc.Print(&buf, "accommodation", svc.Summarize("accommodation", "Berlin", values), h)

	out := buf.String()
	for _, want := range []string{"accommodation · accommodation · Berlin", "10.0 – 44.7", "€100", "included 3/4"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReportPrintEmpty(t *testing.T) {
	svc := NewReportService(utils.NewLogger())
	var buf bytes.Buffer
	svc.Print(&buf, "flight", svc.Summarize("flight", "Glasgow", nil), histogram.Compute(nil, 10, []float64{1, 2}))
	if !bytes.Contains(buf.Bytes(), []byte("No data")) {
		t.Errorf("expected no-data marker, got %q", buf.String())
	}
}
