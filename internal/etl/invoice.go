// Package etl turns raw ERP exports into client and product aggregates.
package etl

import (
	"fmt"
	"time"

	"erpsheets/internal/logger"
	"erpsheets/internal/sanitize"
	"erpsheets/internal/schema"
	"erpsheets/pkg/models"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

const missingInvoiceID = "missing_invoice_uuid_in_row"

// InvoiceStats summarizes an invoice import run.
type InvoiceStats struct {
	SkippedInvoices       int      `json:"skippedInvoices"`
	SkippedWrongRows      int      `json:"skippedWrongRows"`
	RegisteredNewInvoices int      `json:"registeredNewInvoices"`
	RegisteredNewClients  int      `json:"registeredNewClients"`
	MissingDataInvoices   []string `json:"missingDataInvoiceArray"`
}

// InvoiceResult is the output of an invoice import run.
type InvoiceResult struct {
	Clients *models.OrderedMap[*models.Client] `json:"clientInvoicesMap"`
	Stats   InvoiceStats                       `json:"stats"`
}

// InvoiceEngine imports the ERP receivables export.
type InvoiceEngine struct {
	log zerolog.Logger
}

// NewInvoiceEngine creates an invoice import engine.
func NewInvoiceEngine() *InvoiceEngine {
	return &InvoiceEngine{log: logger.WithComponent("invoice-etl")}
}

// invoiceRow holds the sanitized fields of one export row.
type invoiceRow struct {
	clientID   string
	clientName string
	invoiceID  string
	issueDate  time.Time
	dueDate    time.Time
	amount     float64
	paid       float64
	note       string
	docType    models.DocumentType
}

// Run imports data rows laid out as schema.InvoiceImport. today is the single evaluation and
// capture date of the run. A malformed row is logged, counted and skipped; Run never fails on row data.
func (e *InvoiceEngine) Run(rows [][]interface{}, today time.Time) *InvoiceResult {
	result := &InvoiceResult{
		Clients: models.NewOrderedMap[*models.Client](),
		Stats:   InvoiceStats{MissingDataInvoices: []string{}},
	}

	e.log.Info().Int("rows", len(rows)).Msg("Starting invoice import")

	for i, raw := range rows {
		rowNum := i + 2 // Account for header and 0-based indexing

		// Blank rows are export padding and are not counted in SkippedWrongRows.
		if isEmptyRow(raw) {
			continue
		}

		row, err := parseInvoiceRow(raw)
		if err != nil {
			result.Stats.SkippedWrongRows++
			result.Stats.MissingDataInvoices = append(result.Stats.MissingDataInvoices, rowReference(raw))
			e.log.Warn().
				Err(err).
				Int("row", rowNum).
				Str("user_message", models.UserMessage(err)).
				Msg("Skipping invalid invoice row")
			continue
		}

		client, ok := result.Clients.Get(row.clientID)
		if !ok {
			client = models.NewClient(row.clientID, row.clientName, "")
			result.Clients.Set(row.clientID, client)
			result.Stats.RegisteredNewClients++
		}

		if client.HasInvoice(row.invoiceID) {
			result.Stats.SkippedInvoices++
			e.log.Debug().
				Int("row", rowNum).
				Str("client_id", row.clientID).
				Str("invoice_id", row.invoiceID).
				Msg("Duplicate invoice, skipping")
			continue
		}

		client.AddInvoice(models.NewInvoice(models.InvoiceParams{
			ID:         row.invoiceID,
			ClientID:   row.clientID,
			Amount:     row.amount,
			Paid:       row.paid,
			IssueDate:  row.issueDate,
			DueDate:    row.dueDate,
			Type:       row.docType,
			Note:       row.note,
			CapturedAt: today,
		}, today))
		result.Stats.RegisteredNewInvoices++
	}

	e.log.Info().
		Int("clients", result.Stats.RegisteredNewClients).
		Int("invoices", result.Stats.RegisteredNewInvoices).
		Int("duplicates", result.Stats.SkippedInvoices).
		Int("wrong_rows", result.Stats.SkippedWrongRows).
		Msg("Invoice import completed")

	return result
}

// parseInvoiceRow sanitizes every field of the row independently so that all failures are
// reported together. A paid amount that fails to sanitize defaults to 0.
func parseInvoiceRow(raw []interface{}) (invoiceRow, error) {
	const op = "parseInvoiceRow"

	var (
		row  invoiceRow
		errs *multierror.Error
		err  error
	)
	cell := func(key string) interface{} {
		return schema.Cell(raw, schema.InvoiceImport.Index(key))
	}

	if row.clientID, err = sanitize.ClientVendorID(cell(schema.ImportClientID)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("client id: %w", err))
	}
	if row.invoiceID, err = sanitize.InvoiceID(cell(schema.ImportInvoiceID)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("invoice id: %w", err))
	}

	ref := row.invoiceID
	if ref == "" {
		ref = missingInvoiceID
	}

	if row.issueDate, err = sanitize.Date(cell(schema.ImportInvoiceDate)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("invoice date: %w", err))
	}
	if row.dueDate, err = sanitize.Date(cell(schema.ImportOverdueDate)); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("due date: %w", err))
	}
	if row.amount, err = sanitize.Money(cell(schema.ImportAmount), ref); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("amount: %w", err))
	} else if row.docType, err = models.DocumentTypeFromAmount(row.amount); err != nil {
		errs = multierror.Append(errs, err)
	}

	if paid, err := sanitize.Money(cell(schema.ImportPaid), ref); err == nil {
		row.paid = paid
	}

	if err := errs.ErrorOrNil(); err != nil {
		return invoiceRow{}, fmt.Errorf("%s: %w", op, err)
	}

	row.clientName = sanitize.Text(cell(schema.ImportClientName))
	row.note = sanitize.Text(cell(schema.ImportNote))
	return row, nil
}

// rowReference identifies a rejected row in the run statistics: the sanitized invoice id when
// available, the raw one otherwise.
func rowReference(raw []interface{}) string {
	cell := schema.Cell(raw, schema.InvoiceImport.Index(schema.ImportInvoiceID))
	if id, err := sanitize.InvoiceID(cell); err == nil {
		return id
	}
	if text := sanitize.Text(cell); text != "" {
		return text
	}
	return missingInvoiceID
}

func isEmptyRow(row []interface{}) bool {
	for _, v := range row {
		if sanitize.Text(v) != "" {
			return false
		}
	}
	return true
}
