// Package pipeline wires the ETL engines, the reader, the report engine and the note registry
// to a tabular store. Each method is one run-to-completion entry point.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"erpsheets/internal/etl"
	"erpsheets/internal/logger"
	"erpsheets/internal/notes"
	"erpsheets/internal/reader"
	"erpsheets/internal/report"
	"erpsheets/internal/schema"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
	"erpsheets/pkg/services"
	"github.com/rs/zerolog"
)

// Sheets names the resources the pipeline reads and writes.
type Sheets struct {
	InvoiceUpload string
	ClientDB      string
	ProductUpload string
	AnalysisDB    string
	Notes         string
	Report        string
	// Anomalies is the optional anomaly registry sheet; empty disables it.
	Anomalies string
}

// Options configures a Pipeline.
type Options struct {
	Sheets           Sheets
	CleaningOffset   float64
	OverdueAfterDays int

	// Now returns the run timestamp; time.Now when nil.
	Now func() time.Time
}

// Pipeline implements services.Pipeline over a tabular store.
type Pipeline struct {
	store    tabular.Store
	opts     Options
	invoices *etl.InvoiceEngine
	products *etl.ProductEngine
	reader   *reader.DataReader
	notes    *notes.Registry
	log      zerolog.Logger
}

var _ services.Pipeline = (*Pipeline)(nil)

// New creates a pipeline over store.
func New(store tabular.Store, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		store:    store,
		opts:     opts,
		invoices: etl.NewInvoiceEngine(),
		products: etl.NewProductEngine(),
		reader: reader.NewDataReader(store, reader.Options{
			ClientSheet:      opts.Sheets.ClientDB,
			AnalysisSheet:    opts.Sheets.AnalysisDB,
			CleaningOffset:   opts.CleaningOffset,
			OverdueAfterDays: opts.OverdueAfterDays,
			Now:              opts.Now,
		}),
		notes: notes.NewRegistry(store, opts.Sheets.Notes),
		log:   logger.WithComponent("pipeline"),
	}
}

// sourceOrStore returns source, or the pipeline store when source is nil.
func (p *Pipeline) sourceOrStore(source tabular.Source) tabular.Source {
	if source == nil {
		return p.store
	}
	return source
}

// RunInvoiceEtl imports the receivables export found in the named resource of source.
// A nil source reads from the pipeline store.
func (p *Pipeline) RunInvoiceEtl(ctx context.Context, source tabular.Source, name string) (*etl.InvoiceResult, error) {
	const op = "RunInvoiceEtl"

	if name == "" {
		name = p.opts.Sheets.InvoiceUpload
	}
	rows, err := p.sourceOrStore(source).ReadRange(ctx, name, 2, 1, 0, schema.InvoiceImport.Width())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, name, err)
	}

	result := p.invoices.Run(rows, p.opts.Now())
	if result.Clients.Len() == 0 {
		return result, models.NewProcessingError(op, models.ErrNoData, fmt.Sprintf("no valid invoice in %s", name))
	}
	return result, nil
}

// RunProductIncomeEtl imports the product-income export found in the named resource of source.
// A nil source reads from the pipeline store.
func (p *Pipeline) RunProductIncomeEtl(ctx context.Context, source tabular.Source, name string) (*etl.ProductResult, error) {
	const op = "RunProductIncomeEtl"

	if name == "" {
		name = p.opts.Sheets.ProductUpload
	}
	table, err := p.sourceOrStore(source).ReadAll(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s: %w", op, name, err)
	}

	result, err := p.products.Run(table, p.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if result.Products.Len() == 0 {
		return result, models.NewProcessingError(op, models.ErrNoData, fmt.Sprintf("no valid product in %s", name))
	}
	return result, nil
}

// ImportInvoices runs the invoice ETL and replaces the client DB sheet with its result.
// When no invoice is valid nothing is written and the run statistics come back with ErrNoData.
func (p *Pipeline) ImportInvoices(ctx context.Context, source tabular.Source, name string) (*etl.InvoiceStats, error) {
	const op = "ImportInvoices"

	result, err := p.RunInvoiceEtl(ctx, source, name)
	if err != nil {
		if result != nil {
			return &result.Stats, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := etl.ClientRows(result.Clients)
	if err := p.store.Write(ctx, p.opts.Sheets.ClientDB, schema.ClientDB.Headers(), rows, tabular.WriteOptions{ClearExisting: true}); err != nil {
		return nil, fmt.Errorf("%s: failed to persist clients: %w", op, err)
	}

	p.log.Info().
		Str("sheet", p.opts.Sheets.ClientDB).
		Int("rows", len(rows)).
		Int("wrong_rows", result.Stats.SkippedWrongRows).
		Msg("Client invoices persisted")
	return &result.Stats, nil
}

// ImportProducts runs the product-income ETL and replaces the analysis DB sheet with its result.
// Like ImportInvoices, an empty run returns its statistics with ErrNoData.
func (p *Pipeline) ImportProducts(ctx context.Context, source tabular.Source, name string) (*etl.ProductStats, error) {
	const op = "ImportProducts"

	result, err := p.RunProductIncomeEtl(ctx, source, name)
	if err != nil {
		if result != nil {
			return &result.Stats, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := etl.AnalysisRows(result.Products)
	if err := p.store.Write(ctx, p.opts.Sheets.AnalysisDB, schema.AnalysisDB.Headers(), rows, tabular.WriteOptions{ClearExisting: true}); err != nil {
		return nil, fmt.Errorf("%s: failed to persist product analysis: %w", op, err)
	}

	p.log.Info().
		Str("sheet", p.opts.Sheets.AnalysisDB).
		Int("rows", len(rows)).
		Int("invalid_cost_products", len(result.Stats.InvalidCostProduct)).
		Msg("Product analysis persisted")
	return &result.Stats, nil
}

// GetClientSummary returns the sorted client summary.
func (p *Pipeline) GetClientSummary(ctx context.Context, sortBy string, limit int) ([]reader.ClientSummary, error) {
	return p.reader.ClientSummary(ctx, sortBy, limit)
}

// GetClientDetails returns a client with its invoices and notes.
func (p *Pipeline) GetClientDetails(ctx context.Context, clientID string) (*models.Client, error) {
	const op = "GetClientDetails"

	client, err := p.reader.ClientDetails(ctx, clientID)
	if err != nil {
		return nil, err
	}

	clientNotes, err := p.notes.ForClient(ctx, client.ID)
	if err != nil {
		p.log.Warn().Err(err).Str("client_id", client.ID).Msg("Failed to read client notes")
		return client, nil
	}
	client.Notes = clientNotes

	p.log.Debug().Str("op", op).Str("client_id", client.ID).Int("notes", len(clientNotes)).Msg("Client details loaded")
	return client, nil
}

// GetProductMarginOverview returns every product plus the non-positive income subset.
func (p *Pipeline) GetProductMarginOverview(ctx context.Context) (*reader.ProductOverview, error) {
	return p.reader.ProductOverview(ctx)
}

// GetClientMarginOverview returns every client margin plus the high-risk subset.
func (p *Pipeline) GetClientMarginOverview(ctx context.Context) (*reader.ClientMarginOverview, error) {
	return p.reader.ClientMarginOverview(ctx)
}

// GetDashboard returns the receivables KPIs.
func (p *Pipeline) GetDashboard(ctx context.Context) (*reader.Dashboard, error) {
	return p.reader.Dashboard(ctx)
}

// BuildClientReport validates req, selects the requested clients and enriches them.
func (p *Pipeline) BuildClientReport(ctx context.Context, req report.Request) (*report.Config, *report.Report, error) {
	const op = "BuildClientReport"

	cfg, err := report.NewConfig(req, p.opts.Now(), p.log)
	if err != nil {
		return nil, nil, err
	}

	all, err := p.reader.ReadClientMargins(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	engine, err := p.reportEngine(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	r, err := engine.Enrich(cfg.Select(all), cfg.Options)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, r, nil
}

// WriteReport builds a report and writes it, formatted, to the report sheet.
func (p *Pipeline) WriteReport(ctx context.Context, req report.Request) (*report.Report, error) {
	const op = "WriteReport"

	_, r, err := p.BuildClientReport(ctx, req)
	if err != nil {
		return nil, err
	}

	header, rows, hints := r.Table()
	if err := p.store.WriteFormatted(ctx, p.opts.Sheets.Report, header, rows, hints); err != nil {
		return nil, fmt.Errorf("%s: failed to write report: %w", op, err)
	}

	p.log.Info().
		Str("sheet", p.opts.Sheets.Report).
		Int("rows", len(rows)).
		Msg("Report written")
	return r, nil
}

// reportEngine returns an engine over the default anomaly registry, extended with the
// registry sheet when one is configured and present.
func (p *Pipeline) reportEngine(ctx context.Context) (*report.Engine, error) {
	registry := report.DefaultRegistry()
	if p.opts.Sheets.Anomalies == "" {
		return report.NewEngine(registry), nil
	}

	table, err := p.store.ReadAll(ctx, p.opts.Sheets.Anomalies)
	var notFound *tabular.NotFoundError
	if errors.As(err, &notFound) {
		p.log.Debug().Str("sheet", p.opts.Sheets.Anomalies).Msg("No anomaly registry sheet, using defaults")
		return report.NewEngine(registry), nil
	}
	if err != nil {
		return nil, err
	}

	loaded, skipped, err := report.LoadRegistry(table, registry)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		p.log.Warn().Int("skipped", skipped).Str("sheet", p.opts.Sheets.Anomalies).Msg("Malformed anomaly registry rows")
	}
	return report.NewEngine(loaded), nil
}

// AddNote validates in, stores it in the note registry and returns the stored note.
func (p *Pipeline) AddNote(ctx context.Context, in services.NoteInput) (models.Note, error) {
	const op = "AddNote"

	kind, err := models.ParseEntityKind(in.Kind)
	if err != nil {
		return models.Note{}, err
	}

	note, err := p.notes.New(in.Title, in.Content, in.Author, noteOwner(kind, in), p.opts.Now())
	if err != nil {
		return models.Note{}, err
	}
	if err := p.notes.Add(ctx, note); err != nil {
		return models.Note{}, models.WrapProcessingError(op, err, p.opts.Sheets.Notes)
	}
	return note, nil
}

func noteOwner(kind models.EntityKind, in services.NoteInput) models.EntityRef {
	id := strings.TrimSpace(in.EntityID)
	switch kind {
	case models.EntityInvoice:
		return models.InvoiceRef(&models.Invoice{ID: id, ClientID: strings.TrimSpace(in.ClientID)})
	case models.EntityClient:
		return models.ClientRef(&models.Client{ID: id})
	default:
		return models.VendorRef(&models.Vendor{ID: id})
	}
}
