package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"price-slider/dataset"
	"price-slider/models"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLStore persists price samples in PostgreSQL or SQLite.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects with driver and dsn, waits for the database to answer and
// runs schema migrations.
func Open(driver, dsn string) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("storage: create db dir: %w", err)
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single connection keeps ":memory:" databases alive across calls
		db.SetMaxOpenConns(1)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping failed after retries: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	id := "id SERIAL PRIMARY KEY"
	ts := "TIMESTAMPTZ NOT NULL DEFAULT NOW()"
	if s.driver == DriverSQLite {
		id = "id INTEGER PRIMARY KEY AUTOINCREMENT"
		ts = "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_samples (
			` + id + `,
			kind        VARCHAR(32)    NOT NULL,
			city        TEXT           NOT NULL,
			price       NUMERIC(10,2)  NOT NULL,
			source      TEXT           NOT NULL DEFAULT '',
			created_at  ` + ts + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_samples_kind_city ON price_samples(kind, city)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// placeholder returns the n-th (1-based) bind parameter for the driver.
func (s *SQLStore) placeholder(n int) string {
	if s.driver == DriverSQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// Replace deletes the existing dataset for kind and city and batch-inserts
// samples in one transaction.
func (s *SQLStore) Replace(ctx context.Context, kind, city string, samples []*models.PriceSample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	del := fmt.Sprintf("DELETE FROM price_samples WHERE kind = %s AND city = %s",
		s.placeholder(1), s.placeholder(2))
	if _, err := tx.ExecContext(ctx, del, kind, city); err != nil {
		return fmt.Errorf("storage: clear %s/%s: %w", kind, city, err)
	}

	const batchSize = 50
	for i := 0; i < len(samples); i += batchSize {
		end := i + batchSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := s.insertBatch(ctx, tx, kind, city, samples[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sql.Tx, kind, city string, batch []*models.PriceSample) error {
	const cols = 4
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, p := range batch {
		base := idx * cols
		valueStrings = append(valueStrings, fmt.Sprintf("(%s,%s,%s,%s)",
			s.placeholder(base+1), s.placeholder(base+2), s.placeholder(base+3), s.placeholder(base+4)))
		valueArgs = append(valueArgs, kind, city, p.Price, p.Source)
	}

	query := fmt.Sprintf(`INSERT INTO price_samples (kind, city, price, source) VALUES %s`,
		strings.Join(valueStrings, ","))
	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("storage: insert batch: %w", err)
	}
	return nil
}

// Prices returns the stored dataset for kind and city in insertion order.
func (s *SQLStore) Prices(ctx context.Context, kind, city string) ([]float64, error) {
	query := fmt.Sprintf(`SELECT price FROM price_samples WHERE kind = %s AND city = %s ORDER BY id`,
		s.placeholder(1), s.placeholder(2))
	rows, err := s.db.QueryContext(ctx, query, kind, city)
	if err != nil {
		return nil, fmt.Errorf("storage: fetch %s/%s: %w", kind, city, err)
	}
	defer rows.Close()

	prices := make([]float64, 0, 64)
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// Cities lists the cities holding a dataset of kind.
func (s *SQLStore) Cities(ctx context.Context, kind string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT city FROM price_samples WHERE kind = %s ORDER BY city`, s.placeholder(1))
	rows, err := s.db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("storage: list cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Source adapts a PriceReader to dataset.Source for one kind and city.
type Source struct {
	Reader PriceReader
	Kind   string
	City   string
}

func (src Source) Fetch(ctx context.Context) ([]float64, error) {
	values, err := src.Reader.Prices(ctx, src.Kind, src.City)
	if err != nil {
		return nil, err
	}
	return dataset.Sanitize(values), nil
}
