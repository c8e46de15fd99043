// Package dataset ingests price samples from slices, CSV text and JSON and
// defines the Source interface sliders load from.
package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// MinPrice is the smallest admissible sample.
const MinPrice = 1.0

// Source yields a complete dataset. Implementations must honour ctx.
type Source interface {
	Fetch(ctx context.Context) ([]float64, error)
}

// Static is an in-memory Source.
type Static []float64

func (s Static) Fetch(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Sanitize(s), nil
}

// Sanitize returns a new slice holding only finite values >= MinPrice, in
// their original order.
func Sanitize(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if admissible(v) {
			out = append(out, v)
		}
	}
	return out
}

func admissible(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= MinPrice
}

// ParseCSV reads a header line followed by one value per line. Only the
// first comma-separated field is used. Lines are parsed independently so a
// malformed line, such as one with an unbalanced quote, drops only itself.
func ParseCSV(r io.Reader) ([]float64, error) {
	sc := bufio.NewScanner(r)
	values := make([]float64, 0, 64)
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		field, _, _ := strings.Cut(sc.Text(), ",")
		field = strings.TrimSpace(field)
		if len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"' {
			field = strings.TrimSpace(field[1 : len(field)-1])
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || !admissible(v) {
			continue
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read csv: %w", err)
	}
	return values, nil
}

// ParseJSON accepts a JSON array. Numbers and numeric strings are kept,
// anything else is dropped. Text that is not an array yields an empty
// dataset and an error the caller may log.
func ParseJSON(data []byte) ([]float64, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []float64{}, fmt.Errorf("dataset: parse json: %w", err)
	}

	values := make([]float64, 0, len(raw))
	for _, item := range raw {
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			if admissible(n) {
				values = append(values, n)
			}
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && admissible(v) {
			values = append(values, v)
		}
	}
	return values, nil
}
