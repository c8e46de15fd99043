package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"price-slider/models"
	"price-slider/pricemap"
	"price-slider/slider"
)

// SlidersFile is the YAML layout of slider presets.
type SlidersFile struct {
	Sliders []SliderPreset `yaml:"sliders"`
}

// SliderPreset configures one slider instance.
type SliderPreset struct {
	Name    string  `yaml:"name"`
	Kind    string  `yaml:"kind"`
	Mode    string  `yaml:"mode,omitempty"`
	Min     float64 `yaml:"min"`
	Mid     float64 `yaml:"mid,omitempty"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
	Bins    int     `yaml:"bins"`
}

// Options converts the preset into slider options.
func (p SliderPreset) Options() slider.Options {
	return slider.Options{
		Name:            p.Name,
		Kind:            p.Kind,
		Mode:            pricemap.Mode(p.Mode),
		Min:             p.Min,
		Mid:             p.Mid,
		Max:             p.Max,
		DefaultPosition: p.Default,
		BinCount:        p.Bins,
	}
}

// DefaultSliders mirrors the search page's built-in sliders.
func DefaultSliders() []SliderPreset {
	return []SliderPreset{
		{Name: "flight", Kind: models.KindFlight, Min: 20, Mid: 1000, Max: 2500, Default: 57, Bins: 30},
		{Name: "accommodation", Kind: models.KindAccommodation, Min: 10, Mid: 200, Max: 550, Default: 70, Bins: 30},
		{Name: "legacy", Kind: models.KindAccommodation, Mode: string(pricemap.ModeDatasetLog), Bins: 50},
	}
}

// LoadSliders reads presets from path, or returns DefaultSliders when path
// is empty. Names must be unique.
func LoadSliders(path string) ([]SliderPreset, error) {
	if path == "" {
		return DefaultSliders(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read sliders file: %w", err)
	}
	return ParseSliders(raw)
}

// ParseSliders decodes a presets document, rejecting unknown fields.
func ParseSliders(raw []byte) ([]SliderPreset, error) {
	var f SlidersFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("config: parse sliders: %w", err)
	}
	if len(f.Sliders) == 0 {
		return nil, fmt.Errorf("config: sliders file defines no sliders")
	}

	seen := make(map[string]struct{}, len(f.Sliders))
	for i, s := range f.Sliders {
		if s.Name == "" {
			return nil, fmt.Errorf("config: slider %d has no name", i)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("config: duplicate slider name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Bins == 0 {
			f.Sliders[i].Bins = 30
		}
	}
	return f.Sliders, nil
}
