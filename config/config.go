package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"price-slider/storage"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	LogLevel   string

	DBDriver         string
	SQLitePath       string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SlidersFile string
	DatasetURL  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	ScrapeTargets  []ScrapeTarget
	PriceSelector  string
	ChromeBin      string

	CSVExportDir string
}

// ScrapeTarget is one page to collect prices from.
type ScrapeTarget struct {
	Kind string
	City string
	URL  string
}

const defaultPriceSelector = `[data-testid="price-availability-row"] span, span[class*="price"]`

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DBDriver:         getEnv("DB_DRIVER", storage.DriverSQLite),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/prices.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "slider"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "slider123"),
		PostgresDB:       getEnv("POSTGRES_DB", "prices"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SlidersFile: getEnv("SLIDERS_FILE", ""),
		DatasetURL:  getEnv("DATASET_URL", ""),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		ScrapeTargets:  parseTargets(getEnv("SCRAPE_TARGETS", "")),
		PriceSelector:  getEnv("PRICE_SELECTOR", defaultPriceSelector),
		ChromeBin:      getEnv("CHROME_BIN", ""),

		CSVExportDir: getEnv("CSV_EXPORT_DIR", ""),
	}
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == storage.DriverSQLite {
		return c.SQLitePath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// parseTargets reads "kind|city|url" entries separated by semicolons.
// Malformed entries are skipped with a log line.
func parseTargets(raw string) []ScrapeTarget {
	var out []ScrapeTarget
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "|", 3)
		if len(parts) != 3 {
			log.Printf("[config] Ignoring scrape target %q: want kind|city|url", entry)
			continue
		}
		out = append(out, ScrapeTarget{
			Kind: strings.TrimSpace(parts[0]),
			City: strings.TrimSpace(parts[1]),
			URL:  strings.TrimSpace(parts[2]),
		})
	}
	return out
}

func (t ScrapeTarget) String() string {
	return fmt.Sprintf("%s/%s", t.Kind, t.City)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
