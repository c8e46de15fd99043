package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"price-slider/config"
	"price-slider/dataset"
	"price-slider/models"
	"price-slider/pricemap"
	"price-slider/scraper"
	"price-slider/server"
	"price-slider/services"
	"price-slider/slider"
	"price-slider/storage"
	"price-slider/utils"
)

func main() {
	report := flag.Bool("report", false, "print histogram tables for every slider and city, then exit")
	live := flag.Bool("live", false, "with -report, scrape each target directly instead of reading the store")
	flag.Parse()

	cfg := config.Load()
	logger := utils.NewLoggerTo(os.Stdout, os.Stderr, utils.ParseLevel(cfg.LogLevel))
	log := logger.With("main")

	log.Info("=== Price slider starting ===")
	log.Info("Config: db %s | concurrency %d | rate %dms | targets %d",
		cfg.DBDriver, cfg.MaxConcurrency, cfg.RateLimitMs, len(cfg.ScrapeTargets))

	presets, err := config.LoadSliders(cfg.SlidersFile)
	if err != nil {
		log.Error("Failed to load sliders: %v", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Error("Failed to open %s store: %v", cfg.DBDriver, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scr := scraper.New(cfg, logger)
	cleaner := services.NewCleaner(logger)

	if len(cfg.ScrapeTargets) > 0 && !*live {
		if err := seed(ctx, cfg, scr, cleaner, store, log); err != nil {
			log.Error("Seeding failed: %v", err)
		}
	}

	if *report {
		runReport(ctx, cfg, presets, store, scr, cleaner, logger, *live)
		return
	}

	if err := serve(ctx, cfg, presets, store, logger); err != nil {
		log.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}

// seed scrapes every configured target and replaces the stored dataset of
// each kind and city that produced prices.
func seed(ctx context.Context, cfg *config.Config, scr *scraper.Scraper, cleaner *services.Cleaner,
	store storage.PriceWriter, log *utils.Logger) error {
	raw, err := scr.Scrape(ctx, cfg.ScrapeTargets)
	if err != nil {
		return err
	}
	samples := cleaner.Clean(raw)
	if len(samples) == 0 {
		log.Warn("All scraped prices were dropped during cleaning")
		return nil
	}

	type key struct{ kind, city string }
	groups := make(map[key][]*models.PriceSample)
	var order []key
	for _, s := range samples {
		k := key{s.Kind, s.City}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], s)
	}

	var csvWriter *storage.CSVWriter
	if cfg.CSVExportDir != "" {
		if csvWriter, err = storage.NewCSVWriter(cfg.CSVExportDir); err != nil {
			return err
		}
	}

	for _, k := range order {
		group := groups[k]
		if err := store.Replace(ctx, k.kind, k.city, group); err != nil {
			log.Error("Store %s/%s: %v", k.kind, k.city, err)
			continue
		}
		log.Info("Stored %d %s prices for %s", len(group), k.kind, k.city)

		if csvWriter != nil {
			if err := csvWriter.Write(k.kind, k.city, services.Prices(group)); err != nil {
				log.Error("CSV export %s/%s: %v", k.kind, k.city, err)
			} else {
				log.Info("Exported %s", csvWriter.Path(k.kind, k.city))
			}
		}
	}
	return nil
}

type reportEntry struct {
	city string
	src  dataset.Source
}

// runReport prints one table per slider and dataset to stdout.
func runReport(ctx context.Context, cfg *config.Config, presets []config.SliderPreset, store storage.PriceReader,
	scr *scraper.Scraper, cleaner *services.Cleaner, logger *utils.Logger, live bool) {
	log := logger.With("report")
	rs := services.NewReportService(logger)

	for _, p := range presets {
		var entries []reportEntry
		if live {
			for _, t := range cfg.ScrapeTargets {
				if t.Kind == p.Kind {
					entries = append(entries, reportEntry{t.City, scraper.Source{Scraper: scr, Cleaner: cleaner, Target: t}})
				}
			}
		} else {
			cities, err := store.Cities(ctx, p.Kind)
			if err != nil {
				log.Error("List %s cities: %v", p.Kind, err)
				continue
			}
			for _, city := range cities {
				entries = append(entries, reportEntry{city, storage.Source{Reader: store, Kind: p.Kind, City: city}})
			}
		}
		if cfg.DatasetURL != "" && pricemap.Mode(p.Mode) == pricemap.ModeDatasetLog {
			retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}
			entries = append(entries, reportEntry{cfg.DatasetURL, dataset.NewHTTPSource(cfg.DatasetURL, retry)})
		}

		for _, e := range entries {
			values, err := e.src.Fetch(ctx)
			if err != nil {
				log.Error("%s/%s: %v", p.Name, e.city, err)
				values = nil
			}
			values = dataset.Sanitize(values)

			sl, err := slider.New(p.Options(), nil, logger)
			if err != nil {
				log.Error("Slider %s: %v", p.Name, err)
				break
			}
			sl.UpdateDataset(values)
			rs.Print(os.Stdout, p.Name, rs.Summarize(p.Kind, e.city, values), sl.Snapshot())
		}
	}
}

func serve(ctx context.Context, cfg *config.Config, presets []config.SliderPreset,
	store storage.PriceReader, logger *utils.Logger) error {
	srv, err := server.New(presets, store, logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("[server] Listening on %s", cfg.ListenAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("[server] Shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	}
}
