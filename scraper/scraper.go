// Package scraper collects price text from listing pages with a headless
// browser so they can be cleaned into histogram datasets.
package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"price-slider/config"
	"price-slider/models"
	"price-slider/utils"
)

// Scraper drives a shared headless browser across scrape targets.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig

	// fetch collects one target inside the browser context.
	fetch func(browserCtx context.Context, t config.ScrapeTarget) ([]*models.RawPrice, error)
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	s := &Scraper{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
	s.fetch = s.scrapeTarget
	return s
}

// Scrape visits every target once and returns the raw prices found.
// A URL listed twice in targets is visited once; separate calls always
// visit again. Targets that fail after retries are logged and skipped.
func (s *Scraper) Scrape(ctx context.Context, targets []config.ScrapeTarget) ([]*models.RawPrice, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	s.logger.Info("[scraper] Starting scrape of %d targets", len(targets))

	browserCtx, cancel := s.newBrowser(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		prices []*models.RawPrice
	)
	visited := utils.NewKeySet()

	for _, t := range targets {
		t := t
		if !visited.Add(t.URL) {
			s.logger.Debug("[scraper] Already visited %s, skipping", t.URL)
			continue
		}
		err := s.pool.Submit(browserCtx, func(ctx context.Context) {
			found, err := s.fetch(ctx, t)
			if err != nil {
				s.logger.Error("[scraper] %s failed: %v", t, err)
				return
			}
			s.logger.Info("[scraper] %s: %d prices", t, len(found))
			mu.Lock()
			prices = append(prices, found...)
			mu.Unlock()
		})
		if err != nil {
			break
		}
	}
	s.pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	s.logger.Info("[scraper] Scrape complete, targets %d, total raw prices: %d", visited.Size(), len(prices))
	return prices, nil
}

func (s *Scraper) newBrowser(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := findChromeBinary(s.cfg.ChromeBin); bin != "" {
		s.logger.Info("[scraper] Using browser binary: %s", bin)
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// priceScript returns [{text, href}] for every element matching the selector
// whose text holds a digit.
const priceScript = `
(function(sel) {
	var out = [];
	document.querySelectorAll(sel).forEach(function(el) {
		var text = (el.textContent || '').trim();
		if (!/\d/.test(text)) return;
		var a = el.closest('a');
		out.push({text: text, href: a ? a.href : ''});
	});
	return out;
})(%q)`

type priceNode struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

func (s *Scraper) scrapeTarget(browserCtx context.Context, t config.ScrapeTarget) ([]*models.RawPrice, error) {
	var nodes []priceNode

	err := s.retry.Do(browserCtx, "scrape "+t.String(), func(ctx context.Context) error {
		tabCtx, cancel := chromedp.NewContext(ctx)
		defer cancel()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate(t.URL),
			chromedp.Sleep(5*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(fmt.Sprintf(priceScript, s.cfg.PriceSelector), &nodes),
		)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]*models.RawPrice, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &models.RawPrice{
			Kind:      t.Kind,
			City:      t.City,
			Text:      n.Text,
			URL:       n.Href,
			ScrapedAt: now,
		})
	}
	return out, nil
}

func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
