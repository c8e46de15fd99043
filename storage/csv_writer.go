package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// CSVHeader is the single column name of exported datasets.
const CSVHeader = "price"

// EncodeCSV writes values in the dataset text format: a header line, then
// one value per row.
func EncodeCSV(w io.Writer, values []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{CSVHeader}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, v := range values {
		if err := cw.Write([]string{strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVWriter exports datasets as files under a directory, one file per
// kind and city. It is safe for concurrent use.
type CSVWriter struct {
	mu  sync.Mutex
	dir string
}

// NewCSVWriter creates the export directory if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// Path returns the file a dataset is exported to.
func (c *CSVWriter) Path(kind, city string) string {
	return filepath.Join(c.dir, kind+"_"+slug(city)+".csv")
}

// Write truncates and rewrites the export for kind and city.
func (c *CSVWriter) Write(kind, city string, values []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.Path(kind, city)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	if err := EncodeCSV(f, values); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
