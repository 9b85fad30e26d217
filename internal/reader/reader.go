// Package reader rebuilds client and margin aggregates from the persisted sheets.
package reader

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"erpsheets/internal/logger"
	"erpsheets/internal/sanitize"
	"erpsheets/internal/schema"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DashboardTopClients is the number of clients listed in the dashboard.
const DashboardTopClients = 5

// Options configures a DataReader.
type Options struct {
	ClientSheet      string
	AnalysisSheet    string
	CleaningOffset   float64
	OverdueAfterDays int

	// Now returns the evaluation time; time.Now when nil.
	Now func() time.Time
}

// DataReader handles reading the persisted client and analysis sheets
type DataReader struct {
	source tabular.Source
	opts   Options
	log    zerolog.Logger
}

// NewDataReader creates a new data reader over source
func NewDataReader(source tabular.Source, opts Options) *DataReader {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OverdueAfterDays <= 0 {
		opts.OverdueAfterDays = models.DefaultOverdueAfterDays
	}
	return &DataReader{
		source: source,
		opts:   opts,
		log:    logger.WithComponent("reader"),
	}
}

// ReadClients rebuilds the client map from the client DB sheet.
func (dr *DataReader) ReadClients(ctx context.Context) (*models.OrderedMap[*models.Client], error) {
	const op = "ReadClients"

	dr.log.Info().Str("sheet", dr.opts.ClientSheet).Msg("Reading client invoices")

	table, err := dr.source.ReadAll(ctx, dr.opts.ClientSheet)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, dr.opts.ClientSheet, err)
	}

	cols, err := schema.NewHeaderMap(table.Header).Resolve(schema.ClientDB)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	today := dr.opts.Now()
	clients := models.NewOrderedMap[*models.Client]()
	for i, row := range table.Rows {
		rowNum := i + 2 // Account for header and 0-based indexing
		cell := func(key string) interface{} { return schema.Cell(row, cols[key]) }

		clientID, err := sanitize.ClientVendorID(cell(schema.ClientID))
		if err != nil {
			dr.log.Warn().
				Err(err).
				Int("row", rowNum).
				Str("sheet", dr.opts.ClientSheet).
				Msg("Invalid client id, skipping")
			continue
		}

		client, ok := clients.Get(clientID)
		if !ok {
			client = models.NewClient(clientID, sanitize.Text(cell(schema.ClientName)), sanitize.Text(cell(schema.ClientAgent)))
			clients.Set(clientID, client)
		}

		invoice, err := dr.parseInvoiceRow(cell, clientID, rowNum, today)
		if err != nil {
			dr.log.Warn().
				Err(err).
				Int("row", rowNum).
				Str("client_id", clientID).
				Msg("Failed to parse invoice, skipping")
			continue
		}
		client.AddInvoice(invoice)
	}

	dr.log.Info().
		Int("total_rows", len(table.Rows)).
		Int("clients", clients.Len()).
		Str("sheet", dr.opts.ClientSheet).
		Msg("Client invoices read successfully")

	return clients, nil
}

// parseInvoiceRow rebuilds an invoice from a client DB row. Persisted amounts are absolute,
// so the sign is restored from the document type before construction.
func (dr *DataReader) parseInvoiceRow(cell func(string) interface{}, clientID string, rowNum int, today time.Time) (*models.Invoice, error) {
	const op = "parseInvoiceRow"

	invoiceID, err := sanitize.InvoiceID(cell(schema.InvoiceID))
	if err != nil {
		return nil, fmt.Errorf("%s: invalid invoice id in row %d: %w", op, rowNum, err)
	}

	amount, err := sanitize.Money(cell(schema.InvoiceAmount), invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid amount in row %d: %w", op, rowNum, err)
	}
	paid, err := sanitize.Money(cell(schema.InvoicePaid), invoiceID)
	if err != nil {
		dr.log.Warn().
			Err(err).
			Int("row", rowNum).
			Msg("Invalid paid amount, using 0")
		paid = 0
	}

	docType := models.DocumentTypeFromLabel(sanitize.Text(cell(schema.InvoiceType)))
	if docType == models.DocumentTypeCreditNote {
		amount, paid = -math.Abs(amount), -math.Abs(paid)
	}

	return models.NewInvoice(models.InvoiceParams{
		ID:         invoiceID,
		ClientID:   clientID,
		Amount:     amount,
		Paid:       paid,
		IssueDate:  dr.optionalDate(cell(schema.InvoiceDate), rowNum, "invoice date"),
		DueDate:    dr.optionalDate(cell(schema.InvoiceDueDate), rowNum, "due date"),
		Type:       docType,
		CapturedAt: dr.optionalDate(cell(schema.InvoiceCapturedAt), rowNum, "extraction date"),
	}, today), nil
}

// optionalDate sanitizes a persisted date, using the zero date when it is invalid.
func (dr *DataReader) optionalDate(value interface{}, rowNum int, field string) time.Time {
	t, err := sanitize.Date(value)
	if err != nil {
		dr.log.Warn().
			Err(err).
			Int("row", rowNum).
			Str("field", field).
			Msg("Invalid date, using zero date")
		return time.Time{}
	}
	return t
}

// analysisRow is one sanitized row of the analysis DB.
type analysisRow struct {
	clientID    string
	clientName  string
	productID   string
	productName string
	quantity    float64
	income      float64
	cost        float64
	percentage  float64
	extractedAt time.Time
}

func (dr *DataReader) readAnalysis(ctx context.Context) ([]analysisRow, error) {
	const op = "readAnalysis"

	dr.log.Info().Str("sheet", dr.opts.AnalysisSheet).Msg("Reading product analysis")

	table, err := dr.source.ReadAll(ctx, dr.opts.AnalysisSheet)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read %s sheet: %w", op, dr.opts.AnalysisSheet, err)
	}

	cols, err := schema.NewHeaderMap(table.Header).Resolve(schema.AnalysisDB)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []analysisRow
	for i, row := range table.Rows {
		rowNum := i + 2
		cell := func(key string) interface{} { return schema.Cell(row, cols[key]) }

		productID := strings.ToUpper(sanitize.Text(cell(schema.AnalysisOrigin)))
		if productID == "" {
			continue
		}
		clientID, err := sanitize.ClientVendorID(cell(schema.AnalysisID))
		if err != nil {
			dr.log.Warn().Err(err).Int("row", rowNum).Str("product_id", productID).Msg("Invalid client id, skipping")
			continue
		}

		quantity, ok := sanitize.Number(cell(schema.AnalysisQuantity))
		if !ok {
			quantity = 0
		}
		income, err := sanitize.Money(cell(schema.AnalysisIncome), productID)
		if err != nil {
			dr.log.Warn().Err(err).Int("row", rowNum).Msg("Invalid sale value, skipping")
			continue
		}
		cost, err := sanitize.Money(cell(schema.AnalysisCost), productID)
		if err != nil {
			dr.log.Warn().Err(err).Int("row", rowNum).Msg("Invalid cost, skipping")
			continue
		}
		percentage, _ := sanitize.Number(cell(schema.AnalysisPercentage))

		rows = append(rows, analysisRow{
			clientID:    clientID,
			clientName:  sanitize.Text(cell(schema.AnalysisName)),
			productID:   productID,
			productName: sanitize.Text(cell(schema.AnalysisProduct)),
			quantity:    quantity,
			income:      income,
			cost:        cost,
			percentage:  percentage,
			extractedAt: dr.optionalDate(cell(schema.AnalysisParsedAt), rowNum, "extraction date"),
		})
	}

	dr.log.Info().
		Int("total_rows", len(table.Rows)).
		Int("parsed_rows", len(rows)).
		Str("sheet", dr.opts.AnalysisSheet).
		Msg("Product analysis read successfully")

	return rows, nil
}

// ReadProducts rebuilds the product-centric margin map.
func (dr *DataReader) ReadProducts(ctx context.Context) (*models.OrderedMap[*models.ProductMarginAnalysis], error) {
	rows, err := dr.readAnalysis(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReadProducts: %w", err)
	}

	products := models.NewOrderedMap[*models.ProductMarginAnalysis]()
	for _, r := range rows {
		product, ok := products.Get(r.productID)
		if !ok {
			product, err = models.NewProductMarginAnalysis(r.productID, r.productName, 0, 0, 0, r.extractedAt)
			if err != nil {
				continue
			}
			products.Set(r.productID, product)
		}

		// Product quantities are rounded up; the client view keeps them as persisted.
		rel := models.NewProductClientRelation(r.clientID, r.clientName, math.Ceil(r.quantity), r.income, r.cost, r.percentage)
		if product.AddClient(rel) {
			product.Accumulate(rel)
		}
	}

	for _, p := range products.Values() {
		p.CalculateMetrics()
	}
	return products, nil
}

// ReadClientMargins rebuilds the client-centric margin map.
func (dr *DataReader) ReadClientMargins(ctx context.Context) (*models.OrderedMap[*models.ClientMarginAnalysis], error) {
	rows, err := dr.readAnalysis(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReadClientMargins: %w", err)
	}

	clients := models.NewOrderedMap[*models.ClientMarginAnalysis]()
	for _, r := range rows {
		client, ok := clients.Get(r.clientID)
		if !ok {
			client = models.NewClientMarginAnalysis(r.clientID, r.clientName, r.extractedAt, dr.opts.CleaningOffset)
			clients.Set(r.clientID, client)
		}
		client.AddProduct(models.NewClientMappedProduct(r.productID, r.productName, r.clientID, r.quantity, r.cost, r.income, r.extractedAt))
	}
	return clients, nil
}

// ProductOverview returns every product plus those with negative or zero sale income.
func (dr *DataReader) ProductOverview(ctx context.Context) (*ProductOverview, error) {
	products, err := dr.ReadProducts(ctx)
	if err != nil {
		return nil, err
	}

	negative := products.Filter(func(id string, p *models.ProductMarginAnalysis) bool {
		if p.SaleIncome > 0 {
			return false
		}
		dr.log.Warn().Str("product_id", id).Float64("sale_income", p.SaleIncome).Msg("Product has negative or zero income")
		return true
	})
	return &ProductOverview{Products: products, NegativeIncomeProducts: negative}, nil
}

// ClientMarginOverview returns every client margin plus the high-risk subset.
func (dr *DataReader) ClientMarginOverview(ctx context.Context) (*ClientMarginOverview, error) {
	clients, err := dr.ReadClientMargins(ctx)
	if err != nil {
		return nil, err
	}

	risky := clients.Filter(func(_ string, c *models.ClientMarginAnalysis) bool { return c.IsHighRisk })
	return &ClientMarginOverview{Clients: clients, HighRiskClients: risky}, nil
}

// ClientSummary returns clients with a positive amount due, sorted descending by sortBy
// (totalDue when empty). Ties keep the sheet order. limit > 0 truncates the result.
func (dr *DataReader) ClientSummary(ctx context.Context, sortBy string, limit int) ([]ClientSummary, error) {
	const op = "ClientSummary"

	if sortBy == "" {
		sortBy = SortTotalDue
	}
	if _, ok := (ClientSummary{}).field(sortBy); !ok {
		return nil, models.NewProcessingError(op, models.ErrWrongValueType, fmt.Sprintf("unknown sort field %q", sortBy))
	}

	clients, err := dr.ReadClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summaries := dr.summarize(clients)
	sort.SliceStable(summaries, func(i, j int) bool {
		a, _ := summaries[i].field(sortBy)
		b, _ := summaries[j].field(sortBy)
		return a > b
	})

	if limit > 0 && limit < len(summaries) {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (dr *DataReader) summarize(clients *models.OrderedMap[*models.Client]) []ClientSummary {
	now := dr.opts.Now()
	summaries := []ClientSummary{}
	clients.Each(func(_ string, c *models.Client) {
		due := c.TotalLeftToPay()
		if due <= 0 {
			return
		}
		summaries = append(summaries, ClientSummary{
			Name:         c.Name,
			ID:           c.ID,
			InvoiceCount: len(c.Invoices),
			TotalDue:     due,
			TotalPaid:    c.TotalPaid(),
			TotalOverdue: c.TotalOverdue(now, dr.opts.OverdueAfterDays),
		})
	})
	return summaries
}

// ClientDetails returns a single client with its invoices.
func (dr *DataReader) ClientDetails(ctx context.Context, rawID string) (*models.Client, error) {
	const op = "ClientDetails"

	id, err := sanitize.ClientVendorID(rawID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	clients, err := dr.ReadClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, ok := clients.Get(id)
	if !ok {
		return nil, models.NewProcessingError(op, models.ErrNotFound, id)
	}
	return client, nil
}

// Dashboard computes the receivables KPIs over every client.
func (dr *DataReader) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "Dashboard"

	clients, err := dr.ReadClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summaries := dr.summarize(clients)
	receivable, overdue := decimal.Zero, decimal.Zero
	d := &Dashboard{}
	for _, s := range summaries {
		receivable = receivable.Add(decimal.NewFromFloat(s.TotalDue))
		overdue = overdue.Add(decimal.NewFromFloat(s.TotalOverdue))
		if s.TotalOverdue > 0 {
			d.OverdueClientCount++
		}
	}
	d.TotalReceivable = receivable.InexactFloat64()
	d.TotalOverdue = overdue.InexactFloat64()

	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].TotalOverdue > summaries[j].TotalOverdue })
	if len(summaries) > DashboardTopClients {
		summaries = summaries[:DashboardTopClients]
	}
	d.TopOverdueClients = summaries
	return d, nil
}
