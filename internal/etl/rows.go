package etl

import (
	"time"

	"erpsheets/internal/schema"
	"erpsheets/pkg/models"
)

// ClientRows flattens clients into rows of the client DB schema, one per invoice.
func ClientRows(clients *models.OrderedMap[*models.Client]) [][]interface{} {
	var rows [][]interface{}
	s := schema.ClientDB

	clients.Each(func(_ string, c *models.Client) {
		for _, inv := range c.Invoices {
			row := s.NewRow()
			row[s.Index(schema.ClientID)] = c.ID
			row[s.Index(schema.ClientName)] = c.Name
			row[s.Index(schema.ClientAgent)] = c.Agent
			row[s.Index(schema.InvoiceID)] = inv.ID
			row[s.Index(schema.InvoiceDate)] = formatDate(inv.IssueDate)
			row[s.Index(schema.InvoiceDueDate)] = formatDate(inv.DueDate)
			row[s.Index(schema.InvoiceAmount)] = inv.Amount
			row[s.Index(schema.InvoicePaid)] = inv.Paid
			row[s.Index(schema.InvoiceLeftToPay)] = inv.LeftToPay
			row[s.Index(schema.InvoiceType)] = inv.Type.Label()
			row[s.Index(schema.InvoiceStatus)] = inv.Status.String()
			row[s.Index(schema.InvoiceIsOverdue)] = overdueFlag(inv.IsOverdue)
			row[s.Index(schema.InvoiceCapturedAt)] = formatDate(inv.CapturedAt)
			rows = append(rows, row)
		}
	})

	return rows
}

// AnalysisRows flattens products into rows of the analysis DB schema, one per client relation.
func AnalysisRows(products *models.OrderedMap[*models.ProductMarginAnalysis]) [][]interface{} {
	var rows [][]interface{}
	s := schema.AnalysisDB

	products.Each(func(_ string, p *models.ProductMarginAnalysis) {
		p.Clients.Each(func(_ string, rel *models.ProductClientRelation) {
			row := s.NewRow()
			row[s.Index(schema.AnalysisID)] = rel.ClientID
			row[s.Index(schema.AnalysisOrigin)] = p.ID
			row[s.Index(schema.AnalysisName)] = rel.Name
			row[s.Index(schema.AnalysisQuantity)] = rel.SoldQuantity
			row[s.Index(schema.AnalysisIncome)] = rel.SaleValue
			row[s.Index(schema.AnalysisCost)] = rel.Cost
			row[s.Index(schema.AnalysisMargin)] = rel.Margin
			row[s.Index(schema.AnalysisPercentage)] = rel.Percentage
			row[s.Index(schema.AnalysisProduct)] = p.Name
			row[s.Index(schema.AnalysisParsedAt)] = formatDate(p.ExtractionDate)
			rows = append(rows, row)
		})
	})

	return rows
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(schema.DateLayout)
}

func overdueFlag(overdue bool) string {
	if overdue {
		return schema.OverdueYes
	}
	return schema.OverdueNo
}
