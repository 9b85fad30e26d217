package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMarginCleaningOffset is subtracted, in percentage points, from a client's margin percentage.
const DefaultMarginCleaningOffset = 1.0

// ProductMarginAnalysis is the product-centric view of the product-income export.
type ProductMarginAnalysis struct {
	ID               string                                `json:"uuid"`
	Name             string                                `json:"name"`
	TotalSold        float64                               `json:"totalSold"`
	SaleIncome       float64                               `json:"saleIncome"`
	TotalCost        float64                               `json:"totalCost"`
	Margin           float64                               `json:"margin"`
	PercentageIncome float64                               `json:"percentageIncome"`
	ExtractionDate   time.Time                             `json:"extractionDate"`
	Clients          *OrderedMap[*ProductClientRelation] `json:"clients"`
}

// NewProductMarginAnalysis creates a product with no client relations.
func NewProductMarginAnalysis(id, name string, totalSold, saleIncome, totalCost float64, extractedAt time.Time) (*ProductMarginAnalysis, error) {
	if id == "" {
		return nil, NewProcessingError("NewProductMarginAnalysis", ErrNoValidID, "empty product id")
	}
	p := &ProductMarginAnalysis{
		ID:             id,
		Name:           name,
		TotalSold:      totalSold,
		SaleIncome:     saleIncome,
		TotalCost:      totalCost,
		ExtractionDate: extractedAt,
		Clients:        NewOrderedMap[*ProductClientRelation](),
	}
	p.CalculateMetrics()
	return p, nil
}

// AddClient attaches rel unless the client is already present. The first occurrence wins.
func (p *ProductMarginAnalysis) AddClient(rel *ProductClientRelation) bool {
	return p.Clients.SetIfAbsent(rel.ClientID, rel)
}

// Accumulate adds a relation's quantity, income and cost to the product totals.
func (p *ProductMarginAnalysis) Accumulate(rel *ProductClientRelation) {
	p.TotalSold = addFloats(p.TotalSold, rel.SoldQuantity)
	p.SaleIncome = addFloats(p.SaleIncome, rel.SaleValue)
	p.TotalCost = addFloats(p.TotalCost, rel.Cost)
}

// CalculateMetrics derives Margin and PercentageIncome from SaleIncome and TotalCost.
func (p *ProductMarginAnalysis) CalculateMetrics() {
	p.Margin = subFloats(p.SaleIncome, p.TotalCost)
	p.PercentageIncome = percentageOf(p.Margin, p.SaleIncome)
}

// ProductClientRelation is what a single client bought of a product.
type ProductClientRelation struct {
	ClientID     string  `json:"uuid"`
	Name         string  `json:"name"`
	SoldQuantity float64 `json:"soldAmount"`
	SaleValue    float64 `json:"soldValue"`
	Cost         float64 `json:"cost"`
	Margin       float64 `json:"margin"`
	Percentage   float64 `json:"percentageIncome"`
}

// NewProductClientRelation builds a relation and derives its margin as value minus cost.
func NewProductClientRelation(clientID, name string, quantity, value, cost, percentage float64) *ProductClientRelation {
	return &ProductClientRelation{
		ClientID:     clientID,
		Name:         name,
		SoldQuantity: quantity,
		SaleValue:    value,
		Cost:         cost,
		Margin:       subFloats(value, cost),
		Percentage:   percentage,
	}
}

// ClientMarginAnalysis is the client-centric view of the same product-income data.
// Totals are recomputed every time a product is added.
type ClientMarginAnalysis struct {
	ID               string                             `json:"uuid"`
	Name             string                             `json:"name"`
	ParseDate        time.Time                          `json:"parseDate"`
	Products         *OrderedMap[*ClientMappedProduct] `json:"productsMap"`
	TotalRevenue     float64                            `json:"totalRevenue"`
	TotalCost        float64                            `json:"totalCost"`
	TotalMargin      float64                            `json:"totalMargin"`
	MarginPercentage float64                            `json:"marginPercentage"`
	IsHighRisk       bool                               `json:"isHighRisk"`

	cleaningOffset float64
}

// NewClientMarginAnalysis creates an empty client view. cleaningOffset is subtracted from the
// margin percentage whenever revenue is positive.
func NewClientMarginAnalysis(id, name string, parseDate time.Time, cleaningOffset float64) *ClientMarginAnalysis {
	c := &ClientMarginAnalysis{
		ID:             id,
		Name:           name,
		ParseDate:      parseDate,
		Products:       NewOrderedMap[*ClientMappedProduct](),
		cleaningOffset: cleaningOffset,
	}
	c.CalculateMetrics()
	return c
}

// AddProduct attaches p unless the product is already present, then recomputes the totals.
func (c *ClientMarginAnalysis) AddProduct(p *ClientMappedProduct) bool {
	if !c.Products.SetIfAbsent(p.ProductID, p) {
		return false
	}
	c.CalculateMetrics()
	return true
}

// CalculateMetrics recomputes revenue, cost, margin, margin percentage and the high-risk flag.
func (c *ClientMarginAnalysis) CalculateMetrics() {
	revenue := decimal.Zero
	margin := decimal.Zero
	for _, p := range c.Products.Values() {
		revenue = revenue.Add(decimal.NewFromFloat(p.Revenue))
		margin = margin.Add(decimal.NewFromFloat(p.Margin))
	}

	c.TotalRevenue = revenue.InexactFloat64()
	c.TotalMargin = margin.InexactFloat64()
	c.TotalCost = revenue.Sub(margin).InexactFloat64()

	if revenue.IsPositive() {
		c.MarginPercentage = c.TotalMargin/c.TotalRevenue*100 - c.cleaningOffset
	} else {
		c.MarginPercentage = 0
	}

	c.IsHighRisk = c.TotalMargin <= 0
}

// Clone returns a deep copy; enrichment works on copies so repeated reports never share state.
func (c *ClientMarginAnalysis) Clone() *ClientMarginAnalysis {
	out := *c
	out.Products = NewOrderedMap[*ClientMappedProduct]()
	c.Products.Each(func(k string, p *ClientMappedProduct) {
		cp := *p
		out.Products.Set(k, &cp)
	})
	return &out
}

// ClientMappedProduct is one product bought by a client, seen from the client side.
type ClientMappedProduct struct {
	ProductID        string    `json:"uuid"`
	ProductName      string    `json:"productName"`
	ClientID         string    `json:"relatedClientUuid"`
	SoldAmount       float64   `json:"soldAmount"`
	SoldValue        float64   `json:"soldValue"`
	Revenue          float64   `json:"revenue"`
	ExtractionDate   time.Time `json:"extractionDate"`
	Margin           float64   `json:"margin"`
	MarginPercentage float64   `json:"marginPercentage"`
	HasAnomaly       bool      `json:"hasAnomaly"`
	AnomalyText      string    `json:"anomalyText,omitempty"`
}

// NewClientMappedProduct builds a product entry. soldValue is the cost of what was sold and
// revenue what the client paid; margin is their difference.
func NewClientMappedProduct(productID, productName, clientID string, soldAmount, soldValue, revenue float64, extractedAt time.Time) *ClientMappedProduct {
	margin := subFloats(revenue, soldValue)
	return &ClientMappedProduct{
		ProductID:        productID,
		ProductName:      productName,
		ClientID:         clientID,
		SoldAmount:       soldAmount,
		SoldValue:        soldValue,
		Revenue:          revenue,
		ExtractionDate:   extractedAt,
		Margin:           margin,
		MarginPercentage: percentageOf(margin, revenue),
	}
}

func addFloats(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}

func subFloats(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

// percentageOf returns part/whole*100, or 0 when whole is not positive.
func percentageOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
