package etl

import (
	"testing"
	"time"

	"erpsheets/internal/schema"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runDate = time.Date(2024, time.June, 30, 9, 15, 0, 0, time.Local)

// exportRow builds an ERP receivables row: due date, client, name, issue date, invoice, payment type, amount, paid, flag, note.
func exportRow(due, client, name, issued, invoice string, amount, paid interface{}) []interface{} {
	return []interface{}{due, client, name, issued, invoice, "D - Rimessa diretta", amount, paid, "S", ""}
}

func TestInvoiceEngineDeduplicates(t *testing.T) {
	rows := [][]interface{}{
		exportRow("31/07/2024", "C001", "Rossi Srl", "01/06/2024", "FT/1", "1.000,00", "0"),
		exportRow("31/07/2024", "C001", "Rossi Srl", "01/06/2024", "FT-1", "1.000,00", "0"),
		exportRow("31/07/2024", "C001", "Rossi Srl", "02/06/2024", "FT/2", 250.0, 50.0),
		exportRow("15/08/2024", "C002", "Bianchi Spa", "02/06/2024", "FT/3", "80", ""),
	}

	res := NewInvoiceEngine().Run(rows, runDate)

	assert.Equal(t, 1, res.Stats.SkippedInvoices)
	assert.Equal(t, 3, res.Stats.RegisteredNewInvoices)
	assert.Equal(t, 2, res.Stats.RegisteredNewClients)
	assert.Zero(t, res.Stats.SkippedWrongRows)
	assert.Equal(t, []string{"001", "002"}, res.Clients.Keys())

	c, ok := res.Clients.Get("001")
	require.True(t, ok)
	require.Len(t, c.Invoices, 2)
	assert.Equal(t, "FT1", c.Invoices[0].ID)
	assert.Equal(t, "Rossi Srl", c.Name)
	assert.Equal(t, models.DefaultAgent, c.Agent)
	assert.Equal(t, models.StatusPartiallyPaid, c.Invoices[1].Status)
	assert.Equal(t, runDate, c.Invoices[1].CapturedAt)
}

func TestInvoiceEngineCreditNote(t *testing.T) {
	rows := [][]interface{}{
		exportRow("01/05/2024", "C010", "Verdi", "01/04/2024", "NC7", "-150", "-50"),
	}

	res := NewInvoiceEngine().Run(rows, runDate)

	c, ok := res.Clients.Get("010")
	require.True(t, ok)
	inv := c.Invoices[0]
	assert.Equal(t, models.DocumentTypeCreditNote, inv.Type)
	assert.Equal(t, 150.0, inv.Amount)
	assert.Equal(t, 50.0, inv.Paid)
	assert.Equal(t, 100.0, inv.LeftToPay)
	assert.True(t, inv.IsOverdue)
}

func TestInvoiceEngineSkipsWrongRows(t *testing.T) {
	rows := [][]interface{}{
		exportRow("32/01/2024", "C001", "Rossi", "01/01/2024", "FT9", "10", "0"),
		exportRow("01/02/2024", "C12345", "Rossi", "01/01/2024", "FT10", "10", "0"),
		exportRow("01/02/2024", "C001", "Rossi", "01/01/2024", "FT11", "0", "0"),
		exportRow("01/02/2024", "C001", "Rossi", "01/01/2024", "", "10", "0"),
		{},
		exportRow("01/02/2024", "C001", "Rossi", "01/01/2024", "FT12", "10", "n/d"),
	}

	res := NewInvoiceEngine().Run(rows, runDate)

	assert.Equal(t, 4, res.Stats.SkippedWrongRows, "blank rows are not counted")
	assert.Equal(t, []string{"FT9", "FT10", "FT11", missingInvoiceID}, res.Stats.MissingDataInvoices)
	assert.Equal(t, 1, res.Stats.RegisteredNewInvoices)

	c, _ := res.Clients.Get("001")
	require.Len(t, c.Invoices, 1)
	assert.Zero(t, c.Invoices[0].Paid)
	assert.Equal(t, models.StatusUnpaid, c.Invoices[0].Status)
}

func TestInvoiceEngineSkipsOverflowingAmount(t *testing.T) {
	rows := [][]interface{}{
		exportRow("31/07/2024", "C001", "Rossi", "01/06/2024", "FT20", "1e400", "0"),
		exportRow("31/07/2024", "C001", "Rossi", "01/06/2024", "FT21", "120,00", "1e400"),
		exportRow("31/07/2024", "C002", "Bianchi", "01/06/2024", "FT22", "-1e400", "0"),
	}

	var res *InvoiceResult
	require.NotPanics(t, func() { res = NewInvoiceEngine().Run(rows, runDate) })

	assert.Equal(t, 2, res.Stats.SkippedWrongRows)
	assert.Equal(t, []string{"FT20", "FT22"}, res.Stats.MissingDataInvoices)
	assert.Equal(t, []string{"001"}, res.Clients.Keys())

	c, _ := res.Clients.Get("001")
	require.Len(t, c.Invoices, 1)
	assert.Zero(t, c.Invoices[0].Paid, "an unusable paid amount defaults to 0")
	assert.Equal(t, 120.0, c.Invoices[0].LeftToPay)
}

func productTable(rows ...[]interface{}) *tabular.Table {
	return &tabular.Table{Header: schema.ProductImport.Headers(), Rows: rows}
}

func TestProductEngine(t *testing.T) {
	table := productTable(
		[]interface{}{"C900", "Orfano", "1", "10", "5", "50"},
		[]interface{}{"AB123", "Caffè in grani", "10", "1.000,00", "600,00", "40"},
		[]interface{}{"C001", "Rossi", "4", "400", "240", "40"},
		[]interface{}{"C001", "Rossi duplicato", "9", "900", "100", "88"},
		[]interface{}{"C002", "Bianchi", "6", "600", "360", "40"},
		[]interface{}{"C003", "Verdi", "n/d", "10", "5", "50"},
		[]interface{}{"GA091", "Prodotto interno", "3", "300", "0", "100"},
		[]interface{}{"C004", "Neri", "3", "300", "0", "100"},
		[]interface{}{"CD456", "Zucchero", "0", "100", "50", "50"},
		[]interface{}{"F0005", "Gialli", "1", "100", "50", "50"},
	)

	res, err := NewProductEngine().Run(table, runDate)
	require.NoError(t, err)

	assert.Equal(t, []string{"AB123", "CD456"}, res.Products.Keys())
	assert.False(t, res.Products.Has("GA091"))
	assert.Equal(t, []string{"GA091"}, res.Stats.InvalidCostProduct)
	assert.Equal(t, 1, res.Stats.OrphanClientRows)
	assert.Equal(t, 1, res.Stats.DuplicateClients)
	assert.Equal(t, 2, res.Stats.SkippedClientRows)
	assert.Equal(t, 3, res.Stats.ClientRelations)

	ab, _ := res.Products.Get("AB123")
	assert.Equal(t, []string{"001", "002"}, ab.Clients.Keys())
	assert.InDelta(t, 400.0, ab.Margin, 1e-9)
	assert.InDelta(t, 40.0, ab.PercentageIncome, 1e-9)

	rel, _ := ab.Clients.Get("001")
	assert.Equal(t, "Rossi", rel.Name)
	assert.InDelta(t, 160.0, rel.Margin, 1e-9)

	cd, _ := res.Products.Get("CD456")
	assert.Zero(t, cd.PercentageIncome)
	_, ok := cd.Clients.Get("0005")
	assert.True(t, ok)
}

func TestProductEngineMissingColumn(t *testing.T) {
	table := &tabular.Table{Header: []string{"UUID", "Nominativo"}}
	_, err := NewProductEngine().Run(table, runDate)
	assert.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestClientRows(t *testing.T) {
	rows := [][]interface{}{
		exportRow("01/05/2024", "C001", "Rossi", "01/04/2024", "FT1", "100", "0"),
	}
	res := NewInvoiceEngine().Run(rows, runDate)

	out := ClientRows(res.Clients)
	require.Len(t, out, 1)
	require.Len(t, out[0], len(schema.ClientDB.Headers()))
	assert.Equal(t, []interface{}{
		"001", "Rossi", models.DefaultAgent, "FT1", "01/04/2024", "01/05/2024",
		100.0, 0.0, 100.0, "Fattura", "Da pagare", schema.OverdueYes, "30/06/2024",
	}, out[0])
}

func TestAnalysisRows(t *testing.T) {
	res, err := NewProductEngine().Run(productTable(
		[]interface{}{"AB123", "Caffè", "4", "400", "240", "40"},
		[]interface{}{"C001", "Rossi", "4", "400", "240", "40"},
	), runDate)
	require.NoError(t, err)

	out := AnalysisRows(res.Products)
	require.Len(t, out, 1)
	assert.Equal(t, []interface{}{
		"001", "AB123", "Rossi", 4.0, 400.0, 240.0, 160.0, 40.0, "Caffè", "30/06/2024",
	}, out[0])
}
