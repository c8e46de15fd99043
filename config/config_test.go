package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-slider/pricemap"
	"price-slider/slider"
	"price-slider/storage"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SCRAPE_TARGETS", "accommodation|Berlin|https://example.com/berlin; bogus ;flight|Glasgow|https://example.com/gla")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, storage.DriverSQLite, cfg.DBDriver)
	assert.Equal(t, cfg.SQLitePath, cfg.DSN())
	require.Len(t, cfg.ScrapeTargets, 2)
	assert.Equal(t, ScrapeTarget{Kind: "accommodation", City: "Berlin", URL: "https://example.com/berlin"}, cfg.ScrapeTargets[0])
	assert.Equal(t, "flight/Glasgow", cfg.ScrapeTargets[1].String())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBDriver: storage.DriverPostgres, PostgresHost: "db", PostgresPort: "5432",
		PostgresUser: "u", PostgresPassword: "p", PostgresDB: "prices", PostgresSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=prices sslmode=disable", cfg.DSN())
}

func TestDefaultSlidersConstruct(t *testing.T) {
	for _, p := range DefaultSliders() {
		_, err := slider.New(p.Options(), nil, nil)
		assert.NoError(t, err, p.Name)
	}
}

func TestParseSliders(t *testing.T) {
	raw := []byte(`
sliders:
  - name: hotels
    kind: accommodation
    min: 10
    mid: 200
    max: 550
    default: 50
  - name: legacy
    kind: accommodation
    mode: datasetlog
    bins: 50
`)
	presets, err := ParseSliders(raw)
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, 30, presets[0].Bins, "bins default to 30")
	assert.Equal(t, pricemap.ModeDatasetLog, presets[1].Options().Mode)
	assert.Equal(t, 50.0, presets[0].Options().DefaultPosition)
}

func TestParseSlidersRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":         "sliders: []",
		"unknown field": "sliders:\n  - name: a\n    colour: red\n",
		"duplicate":     "sliders:\n  - name: a\n  - name: a\n",
		"unnamed":       "sliders:\n  - min: 1\n",
	}
	for name, doc := range cases {
		_, err := ParseSliders([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadSlidersFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sliders.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sliders:\n  - name: f\n    min: 20\n    max: 2500\n"), 0o644))

	presets, err := LoadSliders(path)
	require.NoError(t, err)
	assert.Equal(t, "f", presets[0].Name)

	presets, err = LoadSliders("")
	require.NoError(t, err)
	assert.Len(t, presets, 3)
}
