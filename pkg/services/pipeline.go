package services

import (
	"context"

	"erpsheets/internal/etl"
	"erpsheets/internal/reader"
	"erpsheets/internal/report"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
)

// Pipeline defines the entry points exposed to the CLI and the HTTP API
type Pipeline interface {
	// RunInvoiceEtl imports a receivables export without persisting it
	RunInvoiceEtl(ctx context.Context, source tabular.Source, name string) (*etl.InvoiceResult, error)

	// RunProductIncomeEtl imports a product-income export without persisting it
	RunProductIncomeEtl(ctx context.Context, source tabular.Source, name string) (*etl.ProductResult, error)

	// ImportInvoices imports a receivables export and replaces the client DB
	ImportInvoices(ctx context.Context, source tabular.Source, name string) (*etl.InvoiceStats, error)

	// ImportProducts imports a product-income export and replaces the analysis DB
	ImportProducts(ctx context.Context, source tabular.Source, name string) (*etl.ProductStats, error)

	GetClientSummary(ctx context.Context, sortBy string, limit int) ([]reader.ClientSummary, error)
	GetClientDetails(ctx context.Context, clientID string) (*models.Client, error)
	GetProductMarginOverview(ctx context.Context) (*reader.ProductOverview, error)
	GetClientMarginOverview(ctx context.Context) (*reader.ClientMarginOverview, error)
	GetDashboard(ctx context.Context) (*reader.Dashboard, error)

	// BuildClientReport validates a report request and enriches the selected clients
	BuildClientReport(ctx context.Context, req report.Request) (*report.Config, *report.Report, error)

	// WriteReport builds a report and writes it to the report sheet
	WriteReport(ctx context.Context, req report.Request) (*report.Report, error)

	// AddNote stores a note in the note registry
	AddNote(ctx context.Context, in NoteInput) (models.Note, error)
}

// NoteInput is a note creation request
type NoteInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	Kind     string `json:"kind"`     // INVOICE, CLIENT or VENDOR
	EntityID string `json:"entityId"` // ID of the owning entity
	ClientID string `json:"clientId"` // owning client of an invoice note
}
