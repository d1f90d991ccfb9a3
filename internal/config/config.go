package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"saletrace/internal/analytics"
	"saletrace/internal/eventlog"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	// DataPath is the dataset directory holding the event logs and metadata.
	DataPath string
	// Tolerance is the accumulation-matcher settlement tolerance.
	Tolerance decimal.Decimal
	// Filter is the default filter scope applied when a request supplies none.
	Filter analytics.FilterConfig
	// Classification holds the reliability thresholds.
	Classification analytics.ClassificationConfig
}

// Load loads the configuration from .env files and environment variables.
// The binary's directory takes priority over the working directory so the
// server behaves the same regardless of the caller's cwd.
func Load() (*AppConfig, error) {
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file in working directory, relying on environment variables")
	}

	dataPath := getEnv("DATA_PATH", "")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = filepath.Join(exeDir, "data")
		} else {
			dataPath = "data"
		}
	}

	cfg := &AppConfig{
		DataPath:  dataPath,
		Tolerance: getEnvDecimal("SETTLEMENT_TOLERANCE", analytics.DefaultTolerance),
		Filter: analytics.FilterConfig{
			ExcludedPrefixes: splitList(getEnv("EXCLUDED_CODE_PREFIXES", "")),
			ValidStates:      parseStates(getEnv("VALID_STATE_CODES", "")),
			DateFrom:         getEnvDate("ANALYSIS_DATE_FROM"),
			DateTo:           getEnvDate("ANALYSIS_DATE_TO"),
		},
		Classification: analytics.ClassificationConfig{
			CriticalAgeDays: getEnvInt("CRITICAL_AGE_DAYS", analytics.DefaultClassificationConfig().CriticalAgeDays),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer environment value")
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-decimal environment value")
	}
	return fallback
}

func getEnvDate(key string) *time.Time {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring unparseable date")
		return nil
	}
	return &t
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseStates parses a comma-separated state-code whitelist. An empty value
// yields the default whitelist covering the known lifecycle states.
func parseStates(value string) map[int]bool {
	states := make(map[int]bool)
	if value == "" {
		for _, s := range []int{eventlog.SaleInProcess, eventlog.SaleReadyToInvoice, eventlog.SaleSenceSettled} {
			states[s] = true
		}
		return states
	}
	for _, part := range strings.Split(value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			states[n] = true
		}
	}
	return states
}
