package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"price-slider/histogram"
	"price-slider/slider"
	"price-slider/storage"
)

var fragmentTmpl = template.Must(template.New("histogram").Funcs(template.FuncMap{
	"pct": func(f float64) string { return strconv.FormatFloat(f*100, 'f', 2, 64) },
}).Parse(`<output id="{{.Name}}-output">{{.Output}}</output>
{{- if .Histogram.Empty}}
<div class="no-data">No data</div>
{{- else}}
{{- range .Histogram.Bins}}
<div class="bar" style="height: {{pct .Height}}%">
{{- if gt .Total 0}}<div class="included-portion" style="height: {{pct .IncludedShare}}%"></div>{{end -}}
<div class="bar-label">{{.Label}}</div></div>
{{- end}}
{{- end}}
`))

type fragmentData struct {
	Name      string
	Output    string
	Histogram histogram.Histogram
}

func (s *Server) histogramHTMLHandler(w http.ResponseWriter, r *http.Request) {
	v, status, err := s.build(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	var buf bytes.Buffer
	data := fragmentData{Name: v.Name, Output: v.Recorder.Output, Histogram: v.Recorder.Histogram}
	if err := fragmentTmpl.Execute(&buf, data); err != nil {
		s.logger.Error("[server] render fragment: %v", err)
		http.Error(w, "Error rendering histogram", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

type histogramResponse struct {
	Slider    string              `json:"slider"`
	Mode      string              `json:"mode"`
	City      string              `json:"city,omitempty"`
	Position  float64             `json:"position"`
	Min       float64             `json:"position_min"`
	Max       float64             `json:"position_max"`
	Output    string              `json:"output"`
	Histogram histogram.Histogram `json:"histogram"`
}

func (s *Server) histogramJSONHandler(w http.ResponseWriter, r *http.Request) {
	v, status, err := s.build(r)
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	lo, hi := v.Slider.Bounds()
	writeJSON(w, http.StatusOK, histogramResponse{
		Slider:    v.Name,
		Mode:      string(v.Slider.Options().Mode),
		City:      v.City,
		Position:  v.Slider.Position(),
		Min:       lo,
		Max:       hi,
		Output:    v.Recorder.Output,
		Histogram: v.Recorder.Histogram,
	})
}

// histogramPNGHandler draws the bins as a bar chart. Bins fully at or under
// the filter are solid, partially included ones translucent, the rest grey.
// An empty dataset answers 204.
func (s *Server) histogramPNGHandler(w http.ResponseWriter, r *http.Request) {
	v, status, err := s.build(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	h := v.Recorder.Histogram
	if h.Empty {
		w.Header().Set("X-Histogram-Empty", "true")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	png, err := drawBars(v.Name+" ≤ "+h.FilterLabel, h)
	if err != nil {
		s.logger.Error("[server] render chart: %v", err)
		http.Error(w, "Error rendering chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

var barColor = drawing.ColorFromHex("7b4fc9")

func drawBars(title string, h histogram.Histogram) ([]byte, error) {
	bars := make([]chart.Value, 0, len(h.Bins))
	for _, b := range h.Bins {
		fill := drawing.ColorFromHex("c8c8c8")
		switch {
		case b.Total > 0 && b.Included == b.Total:
			fill = barColor
		case b.Included > 0:
			fill = barColor.WithAlpha(110)
		}
		bars = append(bars, chart.Value{
			Value: float64(b.Total),
			Label: b.Label,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		})
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      1024,
		Height:     512,
		BarWidth:   24,
		BarSpacing: 6,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 80},
			FillColor: drawing.ColorWhite,
		},
		XAxis: chart.Style{TextRotationDegrees: 60},
		YAxis: chart.YAxis{
			Name:  "samples",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(h.MaxTotal)},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type sliderInfo struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Mode     string  `json:"mode"`
	Min      float64 `json:"min,omitempty"`
	Mid      float64 `json:"mid,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Default  float64 `json:"default_position"`
	BinCount int     `json:"bin_count"`
}

func (s *Server) listSlidersHandler(w http.ResponseWriter, r *http.Request) {
	out := make([]sliderInfo, 0, len(s.presets))
	for _, p := range s.presets {
		sl, err := slider.New(p.Options(), nil, nil)
		if err != nil {
			continue
		}
		out = append(out, sliderInfo{
			Name: p.Name, Kind: p.Kind, Mode: string(sl.Options().Mode),
			Min: p.Min, Mid: p.Mid, Max: p.Max,
			Default: p.Default, BinCount: p.Bins,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) datasetCSVHandler(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	city := strings.TrimSpace(chi.URLParam(r, "city"))

	values, err := s.reader.Prices(r.Context(), kind, city)
	if err != nil {
		s.logger.Error("[server] dataset %s/%s: %v", kind, city, err)
		http.Error(w, "Error reading dataset", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := storage.EncodeCSV(&buf, values); err != nil {
		http.Error(w, "Error encoding dataset", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
