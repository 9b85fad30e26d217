package reader

import (
	"erpsheets/pkg/models"
)

// Summary sort fields.
const (
	SortTotalDue     = "totalDue"
	SortTotalPaid    = "totalPaid"
	SortTotalOverdue = "totalOverdue"
	SortInvoiceCount = "invoiceCount"
)

// ClientSummary is the flat per-client record of the summary view.
type ClientSummary struct {
	Name         string  `json:"name"`
	ID           string  `json:"uuid"`
	InvoiceCount int     `json:"invoiceCount"`
	TotalDue     float64 `json:"totalDue"`
	TotalPaid    float64 `json:"totalPaid"`
	TotalOverdue float64 `json:"totalOverdue"`
}

// field returns the numeric value used to sort by name.
func (s ClientSummary) field(name string) (float64, bool) {
	switch name {
	case SortTotalDue:
		return s.TotalDue, true
	case SortTotalPaid:
		return s.TotalPaid, true
	case SortTotalOverdue:
		return s.TotalOverdue, true
	case SortInvoiceCount:
		return float64(s.InvoiceCount), true
	default:
		return 0, false
	}
}

// ProductOverview is the product-centric margin view with its negative or zero income subset.
type ProductOverview struct {
	Products               *models.OrderedMap[*models.ProductMarginAnalysis] `json:"productMap"`
	NegativeIncomeProducts *models.OrderedMap[*models.ProductMarginAnalysis] `json:"negativeIncomeProductMap"`
}

// ClientMarginOverview is the client-centric margin view with its high-risk subset.
type ClientMarginOverview struct {
	Clients         *models.OrderedMap[*models.ClientMarginAnalysis] `json:"clientMap"`
	HighRiskClients *models.OrderedMap[*models.ClientMarginAnalysis] `json:"negativeIncomeClientMap"`
}

// Dashboard holds the receivables KPIs.
type Dashboard struct {
	TotalReceivable    float64         `json:"totalReceivable"`
	TotalOverdue       float64         `json:"totalOverdue"`
	OverdueClientCount int             `json:"overdueClientCount"`
	TopOverdueClients  []ClientSummary `json:"topOverdueClients"`
}
