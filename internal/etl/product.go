package etl

import (
	"fmt"
	"regexp"
	"time"

	"erpsheets/internal/logger"
	"erpsheets/internal/sanitize"
	"erpsheets/internal/schema"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
	"github.com/rs/zerolog"
)

// productIDPattern matches product rows: two letters followed by three digits.
var productIDPattern = regexp.MustCompile(`^[a-zA-Z]{2}\d{3}$`)

// IsProductID reports whether id identifies a product row.
func IsProductID(id string) bool {
	return productIDPattern.MatchString(id)
}

// ProductStats summarizes a product-income import run.
type ProductStats struct {
	Products           int      `json:"products"`
	ClientRelations    int      `json:"clientRelations"`
	InvalidCostProduct []string `json:"invalidCostProducts"`
	SkippedClientRows  int      `json:"skippedClientRows"`
	OrphanClientRows   int      `json:"orphanClientRows"`
	DuplicateClients   int      `json:"duplicateClients"`
}

// ProductResult is the output of a product-income import run.
type ProductResult struct {
	Products *models.OrderedMap[*models.ProductMarginAnalysis] `json:"productMap"`
	Stats    ProductStats                                      `json:"stats"`
}

type cursorKind int

const (
	cursorNone cursorKind = iota
	cursorProduct
	cursorInvalidCost
)

// productCursor tracks the product that client rows currently belong to. An invalid-cost product
// has its own kind, so it can never collide with a real identifier.
type productCursor struct {
	kind cursorKind
	id   string
}

// ProductEngine imports the ERP product-income export, where each product row is followed by
// the rows of the clients that bought it.
type ProductEngine struct {
	log zerolog.Logger
}

// NewProductEngine creates a product-income import engine.
func NewProductEngine() *ProductEngine {
	return &ProductEngine{log: logger.WithComponent("product-etl")}
}

// Run imports the table. It fails only when a required column is missing.
func (e *ProductEngine) Run(table *tabular.Table, extractedAt time.Time) (*ProductResult, error) {
	const op = "ProductEngine.Run"

	cols, err := schema.NewHeaderMap(table.Header).Resolve(schema.ProductImport)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &ProductResult{
		Products: models.NewOrderedMap[*models.ProductMarginAnalysis](),
		Stats:    ProductStats{InvalidCostProduct: []string{}},
	}

	e.log.Info().Int("rows", len(table.Rows)).Msg("Starting product income import")

	var cursor productCursor
	for i, row := range table.Rows {
		rowNum := i + 2
		cell := func(key string) interface{} { return schema.Cell(row, cols[key]) }

		id := sanitize.Text(cell(schema.AnalysisID))
		if id == "" {
			continue
		}

		if IsProductID(id) {
			cursor = e.productRow(result, id, cell, extractedAt, rowNum)
			continue
		}

		switch cursor.kind {
		case cursorNone:
			result.Stats.OrphanClientRows++
			e.log.Warn().Int("row", rowNum).Str("uuid", id).Msg("Client row without a product, skipping")
			continue
		case cursorInvalidCost:
			result.Stats.SkippedClientRows++
			continue
		}

		product, _ := result.Products.Get(cursor.id)
		e.clientRow(result, product, cell, rowNum)
	}

	for _, p := range result.Products.Values() {
		p.CalculateMetrics()
		if p.TotalSold == 0 {
			p.PercentageIncome = 0
		}
		result.Stats.ClientRelations += p.Clients.Len()
	}
	result.Stats.Products = result.Products.Len()

	e.log.Info().
		Int("products", result.Stats.Products).
		Int("client_relations", result.Stats.ClientRelations).
		Int("invalid_cost_products", len(result.Stats.InvalidCostProduct)).
		Int("skipped_client_rows", result.Stats.SkippedClientRows).
		Msg("Product income import completed")

	return result, nil
}

func (e *ProductEngine) productRow(result *ProductResult, id string, cell func(string) interface{}, extractedAt time.Time, rowNum int) productCursor {
	if result.Products.Has(id) {
		return productCursor{kind: cursorProduct, id: id}
	}

	sold, ok := sanitize.Number(cell(schema.AnalysisQuantity))
	if !ok {
		e.log.Debug().Int("row", rowNum).Str("product_id", id).Msg("Product sold quantity is not a number, using 0")
		sold = 0
	}

	value, valueErr := sanitize.Money(cell(schema.AnalysisIncome), id)
	cost, costErr := sanitize.Money(cell(schema.AnalysisCost), id)
	if valueErr != nil || costErr != nil || cost == 0 {
		result.Stats.InvalidCostProduct = append(result.Stats.InvalidCostProduct, id)
		e.log.Warn().
			Int("row", rowNum).
			Str("product_id", id).
			AnErr("value_error", valueErr).
			AnErr("cost_error", costErr).
			Msg("Product with invalid cost, skipping its clients")
		return productCursor{kind: cursorInvalidCost}
	}

	product, err := models.NewProductMarginAnalysis(id, sanitize.Text(cell(schema.AnalysisName)), sold, value, cost, extractedAt)
	if err != nil {
		e.log.Warn().Err(err).Int("row", rowNum).Msg("Failed to create product, skipping its clients")
		return productCursor{kind: cursorInvalidCost}
	}
	result.Products.Set(id, product)
	return productCursor{kind: cursorProduct, id: id}
}

func (e *ProductEngine) clientRow(result *ProductResult, product *models.ProductMarginAnalysis, cell func(string) interface{}, rowNum int) {
	clientID, err := sanitize.ClientVendorID(cell(schema.AnalysisID))
	if err != nil {
		result.Stats.SkippedClientRows++
		e.log.Warn().Err(err).Int("row", rowNum).Str("product_id", product.ID).Msg("Invalid client id, skipping")
		return
	}

	if product.Clients.Has(clientID) {
		result.Stats.DuplicateClients++
		return
	}

	quantity, ok := sanitize.Number(cell(schema.AnalysisQuantity))
	if !ok {
		result.Stats.SkippedClientRows++
		e.log.Warn().Int("row", rowNum).Str("client_id", clientID).Msg("Sold quantity is not a number, skipping")
		return
	}

	value, err := sanitize.Money(cell(schema.AnalysisIncome), clientID)
	if err != nil {
		result.Stats.SkippedClientRows++
		e.log.Warn().Err(err).Int("row", rowNum).Str("client_id", clientID).Msg("Invalid sale value, skipping")
		return
	}
	cost, err := sanitize.Money(cell(schema.AnalysisCost), clientID)
	if err != nil {
		result.Stats.SkippedClientRows++
		e.log.Warn().Err(err).Int("row", rowNum).Str("client_id", clientID).Msg("Invalid cost, skipping")
		return
	}

	percentage, _ := sanitize.Number(cell(schema.AnalysisPercentage))
	product.AddClient(models.NewProductClientRelation(clientID, sanitize.Text(cell(schema.AnalysisName)), quantity, value, cost, percentage))
}
