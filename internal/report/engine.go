package report

import (
	"fmt"
	"strings"

	"erpsheets/internal/logger"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
	"github.com/rs/zerolog"
)

// Report column headers.
const (
	HeaderClientID      = "Client UUID"
	HeaderClientMargin  = "Client Margin"
	HeaderProductID     = "Product UUID"
	HeaderProductMargin = "Product Margin"
	HeaderAnomaly       = "Anomaly Text"
)

// ProductDetail is the flattened per-product entry of a detailed report.
type ProductDetail struct {
	ProductID string  `json:"uuid"`
	Margin    float64 `json:"margin"`
}

// ClientReport is an annotated copy of a client margin analysis.
type ClientReport struct {
	*models.ClientMarginAnalysis
	ProductDetails []ProductDetail `json:"productDetails,omitempty"`
}

// Report is the enriched result of a report run.
type Report struct {
	Clients      []*ClientReport `json:"clients"`
	HasAnomalies bool            `json:"hasAnomalies"`
	HasDetails   bool            `json:"hasDetails"`
}

// Engine enriches client margin maps. It never mutates its input.
type Engine struct {
	registry *Registry
	log      zerolog.Logger
}

// NewEngine creates an engine over registry; the default registry is used when nil.
func NewEngine(registry *Registry) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Engine{registry: registry, log: logger.WithComponent("report")}
}

// Enrich annotates copies of the clients according to opts. It fails with ErrNoData on an empty map.
func (e *Engine) Enrich(clients *models.OrderedMap[*models.ClientMarginAnalysis], opts Options) (*Report, error) {
	const op = "Enrich"

	if clients.Len() == 0 {
		return nil, models.NewProcessingError(op, models.ErrNoData, "no client data for the requested report")
	}

	report := &Report{HasAnomalies: opts.FlagAnomalies, HasDetails: opts.DetailedView}
	flagged := 0

	for _, original := range clients.Values() {
		client := original.Clone()
		client.CalculateMetrics()

		cr := &ClientReport{ClientMarginAnalysis: client}
		for _, p := range client.Products.Values() {
			if opts.FlagAnomalies {
				if a, ok := e.registry.Lookup(p.ProductID); ok {
					p.HasAnomaly = true
					p.AnomalyText = a.Explanation()
					flagged++
				}
			}
			if opts.DetailedView {
				cr.ProductDetails = append(cr.ProductDetails, ProductDetail{ProductID: p.ProductID, Margin: p.Margin})
			}
		}
		report.Clients = append(report.Clients, cr)
	}

	e.log.Info().
		Int("clients", len(report.Clients)).
		Int("flagged_products", flagged).
		Bool("detailed", opts.DetailedView).
		Msg("Report enriched")

	return report, nil
}

// Table renders the report as a header, data rows and presentation hints for a sink.
// Detailed reports have one row per product; otherwise one row per client with its anomaly
// texts joined.
func (r *Report) Table() ([]string, [][]interface{}, tabular.PresentationHints) {
	header := []string{HeaderClientID, HeaderClientMargin}
	if r.HasDetails {
		header = append(header, HeaderProductID, HeaderProductMargin)
	}
	if r.HasAnomalies {
		header = append(header, HeaderAnomaly)
	}

	hints := tabular.PresentationHints{
		HeaderEmphasis:  true,
		FreezeHeader:    true,
		Banding:         true,
		AutoResize:      true,
		HighlightColumn: -1,
	}
	if r.HasAnomalies {
		hints.HighlightColumn = len(header) - 1
	}

	rows := [][]interface{}{}
	addRow := func(row []interface{}, anomaly string) {
		if r.HasAnomalies {
			row = append(row, anomaly)
			if anomaly != "" {
				hints.HighlightRows = append(hints.HighlightRows, len(rows))
			}
		}
		rows = append(rows, row)
	}

	for _, c := range r.Clients {
		if r.HasDetails {
			for _, p := range c.Products.Values() {
				addRow([]interface{}{c.ID, c.TotalMargin, p.ProductID, p.Margin}, p.AnomalyText)
			}
			continue
		}

		var texts []string
		for _, p := range c.Products.Values() {
			if p.HasAnomaly {
				texts = append(texts, p.AnomalyText)
			}
		}
		addRow([]interface{}{c.ID, c.TotalMargin}, strings.Join(texts, ", "))
	}

	return header, rows, hints
}

// String summarizes the report for logs and CLI output.
func (r *Report) String() string {
	return fmt.Sprintf("report: %d clients, anomalies=%t, details=%t", len(r.Clients), r.HasAnomalies, r.HasDetails)
}
