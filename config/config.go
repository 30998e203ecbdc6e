/*
config.go - Server configuration

PURPOSE:
  Loads the server and engine settings from an optional YAML file and the
  environment. Environment variables win over the file; the file wins over
  the defaults.

ENVIRONMENT:
  TPT_CONFIG          path to a YAML file
  TPT_ADDR            listen address (default ":8080")
  TPT_DB              SQLite path, ":memory:" allowed (default "./tpt.db")
  TPT_LOG_LEVEL       debug | info | warn | error (default "info")
  TPT_PURPOSE_CODES   comma separated tertiary purpose codes

YAML:
  addr: ":8080"
  db_path: ./data/tpt.db
  log_level: info
  billing:
    purpose_codes: ["380", "390", "400", "410", "420"]
    agreement_codes: [S127, S130S, S130T, S130U, S130W]
    section_127_code: S127
    disable_section_127_check: false
    unit_divisor: "1000"
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/twopart"
)

// Config is the full server configuration.
type Config struct {
	Addr     string  `yaml:"addr"`
	DBPath   string  `yaml:"db_path"`
	LogLevel string  `yaml:"log_level"`
	Billing  Billing `yaml:"billing"`
}

// Billing holds the engine settings.
type Billing struct {
	PurposeCodes           []string `yaml:"purpose_codes"`
	AgreementCodes         []string `yaml:"agreement_codes"`
	Section127Code         string   `yaml:"section_127_code"`
	DisableSection127Check bool     `yaml:"disable_section_127_check"`
	UnitDivisor            string   `yaml:"unit_divisor"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:     ":8080",
		DBPath:   "./tpt.db",
		LogLevel: "info",
		Billing: Billing{
			PurposeCodes:   append([]string(nil), twopart.DefaultPurposeCodes...),
			AgreementCodes: append([]string(nil), billing.DefaultAgreementCodes...),
			Section127Code: billing.Section127,
			UnitDivisor:    "1000",
		},
	}
}

// Load reads the configuration from TPT_CONFIG (if set) and the environment.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TPT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Addr = getenvDefault("TPT_ADDR", cfg.Addr)
	cfg.DBPath = getenvDefault("TPT_DB", cfg.DBPath)
	cfg.LogLevel = getenvDefault("TPT_LOG_LEVEL", cfg.LogLevel)
	if codes := splitCSV(os.Getenv("TPT_PURPOSE_CODES")); len(codes) > 0 {
		cfg.Billing.PurposeCodes = codes
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot fall back to a default.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr required")
	}
	if c.DBPath == "" {
		return errors.New("config: db_path required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if len(c.Billing.PurposeCodes) == 0 {
		return errors.New("config: at least one purpose code required")
	}
	if _, err := c.Billing.divisor(); err != nil {
		return err
	}
	return nil
}

// Level maps the log level name to a slog.Level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Options builds the engine options. Call Validate first.
func (c Config) Options() billing.Options {
	opts := billing.DefaultOptions()
	opts.TwoPartTariff.PurposeCodes = append([]string(nil), c.Billing.PurposeCodes...)
	if d, err := c.Billing.divisor(); err == nil {
		opts.TwoPartTariff.UnitDivisor = d
	}
	if len(c.Billing.AgreementCodes) > 0 {
		opts.AgreementCodes = append([]string(nil), c.Billing.AgreementCodes...)
	}
	if c.Billing.Section127Code != "" {
		opts.Section127Code = c.Billing.Section127Code
	}
	if c.Billing.DisableSection127Check {
		opts.Section127Code = ""
	}
	return opts
}

func (b Billing) divisor() (decimal.Decimal, error) {
	if b.UnitDivisor == "" {
		return decimal.NewFromInt(1000), nil
	}
	d, err := decimal.NewFromString(b.UnitDivisor)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: unit_divisor %q: %w", b.UnitDivisor, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("config: unit_divisor must be positive, got %s", b.UnitDivisor)
	}
	return d, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
