// Package config holds the settings of a workbook generation run. A Config is
// built once, from Default and an optional YAML file, and passed to the generator.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the generation configuration.
type Config struct {
	Strict            bool    `yaml:"strict"`              // reject duplicate layout registrations
	RecalculateOnOpen bool    `yaml:"recalculate_on_open"` // ask the spreadsheet to compute formulas on load
	TableStyle        string  `yaml:"table_style"`
	ColumnWidth       float64 `yaml:"column_width"`
	Sheets            Sheets  `yaml:"sheets"`
	Formats           Formats `yaml:"formats"`
}

// Sheets names every generated sheet.
type Sheets struct {
	Summary      string `yaml:"summary"`
	Stakeholders string `yaml:"stakeholders"`
	Ledger       string `yaml:"ledger"`
	Options      string `yaml:"options"`
	Convertibles string `yaml:"convertibles"`
	Round        string `yaml:"round"`
	ProRata      string `yaml:"pro_rata"`
	Waterfall    string `yaml:"waterfall"`
	Calculations string `yaml:"calculations"`
}

// Formats are number formats keyed by the output_type of a value.
type Formats struct {
	Shares   string `yaml:"shares"`
	Currency string `yaml:"currency"`
	Price    string `yaml:"price"`
	Percent  string `yaml:"percent"`
	Date     string `yaml:"date"`
	Number   string `yaml:"number"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RecalculateOnOpen: true,
		TableStyle:        "TableStyleMedium2",
		ColumnWidth:       16,
		Sheets: Sheets{
			Summary:      "Summary",
			Stakeholders: "Stakeholders",
			Ledger:       "Ledger",
			Options:      "Options",
			Convertibles: "Convertibles",
			Round:        "Round",
			ProRata:      "ProRata",
			Waterfall:    "Waterfall",
			Calculations: "Calculations",
		},
		Formats: Formats{
			Shares:   "#,##0",
			Currency: `"$"#,##0.00`,
			Price:    `"$"#,##0.0000`,
			Percent:  "0.00%",
			Date:     "yyyy-mm-dd",
			Number:   "General",
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are an error so typos surface.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every sheet is named and no two sheets share a name.
func (c *Config) Validate() error {
	seen := make(map[string]string)
	for _, s := range c.Sheets.list() {
		if s.name == "" {
			return fmt.Errorf("config: sheets.%s is empty", s.key)
		}
		if prev, dup := seen[s.name]; dup {
			return fmt.Errorf("config: sheets.%s and sheets.%s are both %q", prev, s.key, s.name)
		}
		seen[s.name] = s.key
	}
	if c.ColumnWidth < 0 {
		return fmt.Errorf("config: column_width must not be negative")
	}
	return nil
}

type sheetKey struct {
	key, name string
}

func (s Sheets) list() []sheetKey {
	return []sheetKey{
		{"summary", s.Summary},
		{"stakeholders", s.Stakeholders},
		{"ledger", s.Ledger},
		{"options", s.Options},
		{"convertibles", s.Convertibles},
		{"round", s.Round},
		{"pro_rata", s.ProRata},
		{"waterfall", s.Waterfall},
		{"calculations", s.Calculations},
	}
}

// Format returns the number format for an output type. Unknown types get the
// generic number format.
func (f Formats) Format(outputType string) string {
	switch outputType {
	case "shares", "integer":
		return f.Shares
	case "currency", "money":
		return f.Currency
	case "price":
		return f.Price
	case "percent", "percentage":
		return f.Percent
	case "date":
		return f.Date
	case "string", "text", "":
		return ""
	default:
		return f.Number
	}
}
