// Package config loads the runtime settings of the quote builder.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"easydevis/models"
)

// Config holds all runtime configuration loaded from environment variables.
// Every key is read with the EASYDEVIS_ prefix, e.g. EASYDEVIS_VALIDITY_DAYS.
type Config struct {
	// Quote defaults
	ValidityDays         int    `mapstructure:"VALIDITY_DAYS"`
	DefaultLaborRate     string `mapstructure:"DEFAULT_LABOR_RATE"`
	DefaultTVARate       string `mapstructure:"DEFAULT_TVA_RATE"`
	DefaultMarginPercent string `mapstructure:"DEFAULT_MARGIN_PERCENT"`
	DefaultSectionName   string `mapstructure:"DEFAULT_SECTION_NAME"`

	// Document rendering
	LogoWidthMM     float64       `mapstructure:"LOGO_WIDTH_MM"`
	LogoMaxHeightMM float64       `mapstructure:"LOGO_MAX_HEIGHT_MM"`
	LogoTimeout     time.Duration `mapstructure:"LOGO_TIMEOUT"`
	LogoDir         string        `mapstructure:"LOGO_DIR"`
	ExportDir       string        `mapstructure:"EXPORT_DIR"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.SetEnvPrefix("EASYDEVIS")
	v.AutomaticEnv()

	v.SetDefault("VALIDITY_DAYS", 30)
	v.SetDefault("DEFAULT_LABOR_RATE", "45")
	v.SetDefault("DEFAULT_TVA_RATE", "20")
	v.SetDefault("DEFAULT_MARGIN_PERCENT", "0")
	v.SetDefault("DEFAULT_SECTION_NAME", "Général")
	v.SetDefault("LOGO_WIDTH_MM", 35.0)
	v.SetDefault("LOGO_MAX_HEIGHT_MM", 25.0)
	v.SetDefault("LOGO_TIMEOUT", "5s")
	v.SetDefault("LOGO_DIR", "./logos")
	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("LOG_LEVEL", "info")

	// Optional .env file for local development, missing is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if _, err := cfg.QuoteDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// QuoteDefaults converts the quote settings into model defaults.
func (c *Config) QuoteDefaults() (models.QuoteDefaults, error) {
	d := models.DefaultQuoteDefaults()
	if c.ValidityDays > 0 {
		d.ValidityDays = c.ValidityDays
	}
	if name := strings.TrimSpace(c.DefaultSectionName); name != "" {
		d.SectionName = name
	}

	fields := []struct {
		key string
		raw string
		dst *decimal.Decimal
	}{
		{"DEFAULT_LABOR_RATE", c.DefaultLaborRate, &d.LaborRate},
		{"DEFAULT_TVA_RATE", c.DefaultTVARate, &d.TVARate},
		{"DEFAULT_MARGIN_PERCENT", c.DefaultMarginPercent, &d.MarginPercent},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		v, err := decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil {
			return d, fmt.Errorf("config: %s=%q: %w", f.key, f.raw, err)
		}
		*f.dst = v
	}
	d.TVARate = models.ClampPercent(d.TVARate)
	d.MarginPercent = models.ClampPercent(d.MarginPercent)
	if d.LaborRate.IsNegative() {
		d.LaborRate = decimal.Zero
	}
	return d, nil
}

// ZerologLevel parses LogLevel, defaulting to info.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
