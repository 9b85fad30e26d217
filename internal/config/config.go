package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"erpsheets/internal/logger"
)

// Supported data backends.
const (
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"
)

type Config struct {
	// Data backend: a Google Spreadsheet or a local workbook
	DataBackend    string
	GoogleSheetURL string
	XLSXPath       string

	// Sheet names
	InvoiceUploadSheet string
	ClientDBSheet      string
	ProductUploadSheet string
	ProductDBSheet     string
	NotesSheet         string
	ReportSheet        string
	AnomalySheet       string

	// Aggregation parameters
	MarginCleaningOffset float64
	OverdueAfterDays     int

	// HTTP server
	HTTPAddr    string
	CORSOrigins []string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		DataBackend:          strings.ToLower(getEnv("DATA_BACKEND", BackendSheets)),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		XLSXPath:             getEnv("XLSX_PATH", ""),
		InvoiceUploadSheet:   getEnv("INVOICE_UPLOAD_SHEET", "uploadSheetClients"),
		ClientDBSheet:        getEnv("CLIENT_DB_SHEET", "ClientInvoices"),
		ProductUploadSheet:   getEnv("PRODUCT_UPLOAD_SHEET", "UploadPercentiliProdotto"),
		ProductDBSheet:       getEnv("PRODUCT_DB_SHEET", "productIncome"),
		NotesSheet:           getEnv("NOTES_SHEET", "RegistroNote"),
		ReportSheet:          getEnv("REPORT_SHEET", "ReportMargini"),
		AnomalySheet:         getEnv("ANOMALY_SHEET", "AnomalieProdotti"),
		MarginCleaningOffset: parseFloatEnv("MARGIN_CLEANING_OFFSET", 1),
		OverdueAfterDays:     parseIntEnv("OVERDUE_AFTER_DAYS", 60),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "")),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.DataBackend {
	case BackendSheets:
		if c.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL is required for the %s backend", BackendSheets)
		}
	case BackendXLSX:
		if c.XLSXPath == "" {
			return fmt.Errorf("XLSX_PATH is required for the %s backend", BackendXLSX)
		}
	default:
		return fmt.Errorf("DATA_BACKEND must be %s or %s, got %q", BackendSheets, BackendXLSX, c.DataBackend)
	}
	if c.OverdueAfterDays <= 0 {
		return fmt.Errorf("OVERDUE_AFTER_DAYS must be positive")
	}
	if c.MarginCleaningOffset < 0 {
		return fmt.Errorf("MARGIN_CLEANING_OFFSET must not be negative")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv returns the integer value of key, or defaultValue when unset or malformed.
func parseIntEnv(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// parseFloatEnv returns the float value of key, or defaultValue when unset or malformed.
func parseFloatEnv(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
