// Package report builds client margin reports: request validation, anomaly flagging,
// per-product details and the row set written to the report sheet.
package report

import (
	"fmt"
	"strings"

	"erpsheets/internal/sanitize"
	"erpsheets/internal/schema"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
)

// Category classifies a known product anomaly.
type Category int

const (
	// InternalProduction marks goods produced in-house and entered at a manual fixed cost.
	InternalProduction Category = iota + 1
	// ErroneousID marks a product identifier known to be used by mistake.
	ErroneousID
	// UnknownPrice marks a product whose price is not known upstream.
	UnknownPrice
)

func (c Category) String() string {
	switch c {
	case InternalProduction:
		return "INTERNAL_PRODUCTION"
	case ErroneousID:
		return "ERRONEOUS_UUID"
	case UnknownPrice:
		return "UNKNOWN_PRICE"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// ParseCategory parses the tag returned by String.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INTERNAL_PRODUCTION":
		return InternalProduction, nil
	case "ERRONEOUS_UUID":
		return ErroneousID, nil
	case "UNKNOWN_PRICE":
		return UnknownPrice, nil
	default:
		return 0, models.NewProcessingError("ParseCategory", models.ErrWrongValueType, s)
	}
}

// Anomaly is a registry entry for one product.
type Anomaly struct {
	Category  Category
	ProductID string
	Cost      float64
	Text      string
}

// Explanation is the text attached to flagged products.
func (a Anomaly) Explanation() string {
	if a.Category == InternalProduction {
		return fmt.Sprintf("Prodotto interno con costo fisso manuale di %.2f€", a.Cost)
	}
	return a.Text
}

// Registry is an immutable catalog of product anomalies keyed by product ID.
type Registry struct {
	byID map[string]Anomaly
}

// NewRegistry builds a registry. When a product appears twice the first entry wins.
func NewRegistry(anomalies ...Anomaly) *Registry {
	r := &Registry{byID: make(map[string]Anomaly, len(anomalies))}
	for _, a := range anomalies {
		id := strings.ToUpper(strings.TrimSpace(a.ProductID))
		if _, ok := r.byID[id]; ok || id == "" {
			continue
		}
		a.ProductID = id
		r.byID[id] = a
	}
	return r
}

// internalProductionIDs are products manufactured in-house; the ERP exports them at zero cost.
var internalProductionIDs = []string{"GA091", "CP009", "SL015", "SP021", "MN091", "SC022", "CA028", "BT003", "GL030", "SO092"}

// DefaultRegistry returns the built-in catalog. Manual costs are unknown until a registry
// sheet provides them.
func DefaultRegistry() *Registry {
	anomalies := make([]Anomaly, 0, len(internalProductionIDs))
	for _, id := range internalProductionIDs {
		anomalies = append(anomalies, Anomaly{Category: InternalProduction, ProductID: id})
	}
	return NewRegistry(anomalies...)
}

// Registry sheet headers.
const (
	RegistryCategoryHeader = "Categoria"
	RegistryProductHeader  = "UUID"
	RegistryCostHeader     = "Costo"
	RegistryTextHeader     = "Testo"
)

// LoadRegistry reads a registry sheet with Categoria, UUID, Costo and Testo columns.
// Malformed rows are skipped; entries of base not present in the sheet are kept.
func LoadRegistry(table *tabular.Table, base *Registry) (*Registry, int, error) {
	const op = "LoadRegistry"

	idx, err := schema.NewHeaderMap(table.Header).Require(RegistryCategoryHeader, RegistryProductHeader, RegistryCostHeader, RegistryTextHeader)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var anomalies []Anomaly
	skipped := 0
	for _, row := range table.Rows {
		category, err := ParseCategory(sanitize.Text(schema.Cell(row, idx[0])))
		if err != nil {
			skipped++
			continue
		}
		id := sanitize.Text(schema.Cell(row, idx[1]))
		cost, err := sanitize.Money(schema.Cell(row, idx[2]), id)
		if id == "" || err != nil {
			skipped++
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Category:  category,
			ProductID: id,
			Cost:      cost,
			Text:      sanitize.Text(schema.Cell(row, idx[3])),
		})
	}

	if base != nil {
		for _, a := range base.byID {
			anomalies = append(anomalies, a)
		}
	}
	return NewRegistry(anomalies...), skipped, nil
}

// Lookup returns the anomaly registered for productID.
func (r *Registry) Lookup(productID string) (Anomaly, bool) {
	a, ok := r.byID[strings.ToUpper(strings.TrimSpace(productID))]
	return a, ok
}

// Len returns the number of registered products.
func (r *Registry) Len() int {
	return len(r.byID)
}
