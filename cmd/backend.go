package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"erpsheets/internal/config"
	"erpsheets/internal/pipeline"
	"erpsheets/internal/sheets"
	"erpsheets/internal/tabular"
)

// backend is an opened data store plus the pipeline running over it.
type backend struct {
	cfg      *config.Config
	store    tabular.Store
	pipeline *pipeline.Pipeline
	close    func() error
}

// openBackend opens the configured store. The configuration is the one loaded by the root pre-run hook.
func openBackend(ctx context.Context) (*backend, error) {
	if configErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", configErr)
	}
	cfg := appConfig

	b := &backend{cfg: cfg, close: func() error { return nil }}
	switch cfg.DataBackend {
	case config.BackendXLSX:
		wb, err := tabular.OpenWorkbook(cfg.XLSXPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		b.store = wb
		b.close = wb.Close
	default:
		svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		b.store = svc
	}

	b.pipeline = pipeline.New(b.store, pipeline.Options{
		Sheets: pipeline.Sheets{
			InvoiceUpload: cfg.InvoiceUploadSheet,
			ClientDB:      cfg.ClientDBSheet,
			ProductUpload: cfg.ProductUploadSheet,
			AnalysisDB:    cfg.ProductDBSheet,
			Notes:         cfg.NotesSheet,
			Report:        cfg.ReportSheet,
			Anomalies:     cfg.AnomalySheet,
		},
		CleaningOffset:   cfg.MarginCleaningOffset,
		OverdueAfterDays: cfg.OverdueAfterDays,
	})
	return b, nil
}

// exportSource opens an ERP export file. CSV files are read from their directory under
// their base name; workbooks are read from sheet, or from the first default sheet name.
// An empty path means the configured upload sheet of the store.
func exportSource(path, sheet string) (tabular.Source, string, func() error, error) {
	noop := func() error { return nil }
	if path == "" {
		return nil, sheet, noop, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return tabular.NewCSVSource(filepath.Dir(path)), name, noop, nil
	case ".xlsx", ".xlsm":
		wb, err := tabular.OpenWorkbook(path)
		if err != nil {
			return nil, "", noop, err
		}
		if sheet == "" {
			sheet = "Sheet1"
		}
		return wb, sheet, wb.Close, nil
	default:
		return nil, "", noop, fmt.Errorf("unsupported export format %q (use .csv or .xlsx)", ext)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
