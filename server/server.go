// Package server exposes slider prices and rendered histograms over HTTP
// for the search page.
package server

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"price-slider/config"
	"price-slider/pricemap"
	"price-slider/slider"
	"price-slider/storage"
	"price-slider/utils"
)

// Server renders slider state from stored datasets. It holds no per-user
// state: every request builds a fresh slider instance.
type Server struct {
	presets []config.SliderPreset
	byName  map[string]config.SliderPreset
	reader  storage.PriceReader
	logger  *utils.Logger
	timeout time.Duration
	echo    pricemap.Mapping
}

// The price echo keeps the search form's historical curve, which starts at
// 50 rather than at the flight slider's minimum.
const (
	echoMin = 50
	echoMid = 1000
	echoMax = 2500
)

// New validates every preset up front so misconfigured sliders fail at
// startup rather than on first request.
func New(presets []config.SliderPreset, reader storage.PriceReader, logger *utils.Logger) (*Server, error) {
	s := &Server{
		presets: presets,
		byName:  make(map[string]config.SliderPreset, len(presets)),
		reader:  reader,
		logger:  logger,
		timeout: 10 * time.Second,
	}
	echo, err := pricemap.NewPiecewise(echoMin, echoMid, echoMax)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s.echo = echo
	for _, p := range presets {
		if _, err := slider.New(p.Options(), nil, nil); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.byName[p.Name] = p
	}
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/update-slider-price", s.updateSliderPriceHandler)

	r.Get("/sliders", s.listSlidersHandler)
	r.Route("/sliders/{name}", func(r chi.Router) {
		r.Get("/price", s.priceHandler)
		r.Get("/histogram", s.histogramHTMLHandler)
		r.Get("/histogram.json", s.histogramJSONHandler)
		r.Get("/histogram.png", s.histogramPNGHandler)
	})

	r.Get("/datasets/{kind}/{city}.csv", s.datasetCSVHandler)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("[server] %s %s %d %v", r.Method, r.URL.RequestURI(), ww.Status(), time.Since(start))
	})
}

// view is the result of building one slider for a request.
type view struct {
	Name     string
	City     string
	Recorder *slider.Recorder
	Slider   *slider.PriceSlider
}

// build resolves the named slider, loads the city's dataset and applies the
// requested position. A failed load is rendered as no data.
func (s *Server) build(r *http.Request) (*view, int, error) {
	name := chi.URLParam(r, "name")
	preset, ok := s.byName[name]
	if !ok {
		return nil, http.StatusNotFound, fmt.Errorf("unknown slider %q", name)
	}

	rec := &slider.Recorder{}
	sl, err := slider.New(preset.Options(), rec, s.logger)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city != "" {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		// errors are logged by the slider and leave it empty
		_ = sl.Load(ctx, storage.Source{Reader: s.reader, Kind: preset.Kind, City: city})
	}

	if raw := r.URL.Query().Get("position"); raw != "" {
		pos, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(pos) {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid position %q", raw)
		}
		lo, hi := sl.Bounds()
		if pos < lo || pos > hi {
			return nil, http.StatusBadRequest, fmt.Errorf("position %g outside [%g, %g]", pos, lo, hi)
		}
		sl.SetPosition(pos)
	}

	return &view{Name: name, City: city, Recorder: rec, Slider: sl}, http.StatusOK, nil
}

func (s *Server) updateSliderPriceHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("maxPriceLinear")
	pos, err := strconv.ParseFloat(raw, 64)
	if err == nil && math.IsNaN(pos) {
		err = fmt.Errorf("not a number")
	}
	if err != nil {
		s.logger.Warn("[server] Error parsing maxPriceLinear %q: %v", raw, err)
		http.Error(w, "Invalid maxPrice value", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "€%.2f", s.echo.Price(pos))
}

func (s *Server) priceHandler(w http.ResponseWriter, r *http.Request) {
	v, status, err := s.build(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(v.Recorder.Output))
}
