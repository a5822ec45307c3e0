package core

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Settings holds the commercial defaults captured into quotes at creation
// time. Later settings changes never touch existing quotes; they apply
// forward only.
type Settings struct {
	VatRate           float64 `yaml:"vat_rate"`
	PaymentTerms      string  `yaml:"payment_terms"`
	DeliveryTerms     string  `yaml:"delivery_terms"`
	QuoteValidityDays int     `yaml:"quote_validity_days"`
}

// DefaultSettings returns the built-in commercial defaults.
func DefaultSettings() Settings {
	return Settings{
		VatRate:           0.21,
		PaymentTerms:      "30% on order, 60% at hull completion, 10% at delivery",
		DeliveryTerms:     "Ex works shipyard",
		QuoteValidityDays: 30,
	}
}

// LoadSettings resolves settings from defaults, an optional YAML file, and
// environment overrides, in that order of precedence. A missing file is not
// an error; a malformed one is.
func LoadSettings(path string, logger *slog.Logger) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		path = os.Getenv("NAVISOL_SETTINGS_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("settings file not found, using defaults", "path", path)
		case err != nil:
			return Settings{}, fmt.Errorf("read settings: %w", err)
		default:
			if err := yaml.Unmarshal(data, &settings); err != nil {
				return Settings{}, fmt.Errorf("parse settings: %w", err)
			}
			logger.Info("settings loaded", "path", path)
		}
	}
	if err := applyEnvOverrides(&settings); err != nil {
		return Settings{}, err
	}
	if settings.VatRate < 0 || settings.VatRate >= 1 {
		return Settings{}, fmt.Errorf("vat rate %v out of range [0,1)", settings.VatRate)
	}
	if settings.QuoteValidityDays <= 0 {
		return Settings{}, fmt.Errorf("quote validity days must be positive, got %d", settings.QuoteValidityDays)
	}
	return settings, nil
}

func applyEnvOverrides(settings *Settings) error {
	if raw := os.Getenv("NAVISOL_VAT_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse NAVISOL_VAT_RATE: %w", err)
		}
		settings.VatRate = rate
	}
	if raw := os.Getenv("NAVISOL_PAYMENT_TERMS"); raw != "" {
		settings.PaymentTerms = raw
	}
	if raw := os.Getenv("NAVISOL_DELIVERY_TERMS"); raw != "" {
		settings.DeliveryTerms = raw
	}
	if raw := os.Getenv("NAVISOL_QUOTE_VALIDITY_DAYS"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse NAVISOL_QUOTE_VALIDITY_DAYS: %w", err)
		}
		settings.QuoteValidityDays = days
	}
	return nil
}
