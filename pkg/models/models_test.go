package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalDate = time.Date(2024, time.March, 31, 15, 30, 0, 0, time.Local)

func TestNewInvoice(t *testing.T) {
	tests := []struct {
		name      string
		amount    float64
		paid      float64
		due       time.Time
		wantType  DocumentType
		wantLeft  float64
		status    InvoiceStatus
		isOverdue bool
	}{
		{"unpaid", 100, 0, evalDate.AddDate(0, 0, 10), DocumentTypeInvoice, 100, StatusUnpaid, false},
		{"partially paid and overdue", 100, 40, evalDate.AddDate(0, 0, -1), DocumentTypeInvoice, 60, StatusPartiallyPaid, true},
		{"paid past due", 100, 100, evalDate.AddDate(0, 0, -30), DocumentTypeInvoice, 0, StatusPaid, false},
		{"due today is not overdue", 100, 0, Midnight(evalDate), DocumentTypeInvoice, 100, StatusUnpaid, false},
		{"credit note", -150, -50, evalDate, DocumentTypeCreditNote, 100, StatusPartiallyPaid, false},
		{"overpaid", 100, 120, evalDate, DocumentTypeInvoice, -20, StatusInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docType, err := DocumentTypeFromAmount(tt.amount)
			require.NoError(t, err)
			inv := NewInvoice(InvoiceParams{ID: "F1", ClientID: "0001", Amount: tt.amount, Paid: tt.paid, DueDate: tt.due, Type: docType}, evalDate)

			assert.Equal(t, tt.wantType, inv.Type)
			assert.InDelta(t, tt.wantLeft, inv.LeftToPay, 1e-9)
			assert.Equal(t, tt.status, inv.Status)
			assert.Equal(t, tt.isOverdue, inv.IsOverdue)
			assert.GreaterOrEqual(t, inv.Amount, 0.0)
		})
	}
}

func TestDocumentTypeFromAmountZero(t *testing.T) {
	_, err := DocumentTypeFromAmount(0)
	assert.ErrorIs(t, err, ErrInvalidDocumentType)
	assert.Equal(t, "Errore nel definire la tipologia del documento!", UserMessage(err))
}

func TestDocumentTypeLabels(t *testing.T) {
	for _, dt := range []DocumentType{DocumentTypeInvoice, DocumentTypeCreditNote} {
		assert.Equal(t, dt, DocumentTypeFromLabel(dt.Label()))
	}
	assert.Equal(t, DocumentTypeError, DocumentTypeFromLabel("Ricevuta"))
}

func TestClientTotals(t *testing.T) {
	issued := func(daysAgo int) time.Time { return Midnight(evalDate).AddDate(0, 0, -daysAgo) }
	invoice := func(id string, amount, paid float64, daysAgo int) *Invoice {
		docType, _ := DocumentTypeFromAmount(amount)
		return NewInvoice(InvoiceParams{ID: id, Amount: amount, Paid: paid, IssueDate: issued(daysAgo), DueDate: issued(daysAgo), Type: docType}, evalDate)
	}

	c := NewClient("0001", "Rossi", "")
	assert.Equal(t, DefaultAgent, c.Agent)

	assert.True(t, c.AddInvoice(invoice("A", 100, 0, 61)))
	assert.True(t, c.AddInvoice(invoice("B", 200, 0, 59)))
	assert.True(t, c.AddInvoice(invoice("C", 300, 300, 90)))
	assert.True(t, c.AddInvoice(invoice("D", -50, 0, 90)))
	assert.False(t, c.AddInvoice(invoice("A", 999, 0, 1)))

	assert.Len(t, c.Invoices, 4)
	assert.InDelta(t, 100.0, c.TotalOverdue(evalDate, DefaultOverdueAfterDays), 1e-9)
	assert.InDelta(t, 350.0, c.TotalLeftToPay(), 1e-9)
	assert.InDelta(t, 300.0, c.TotalPaid(), 1e-9)
}

func TestClientMarginAnalysis(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

	c := NewClientMarginAnalysis("0001", "Rossi", at, DefaultMarginCleaningOffset)
	assert.True(t, c.IsHighRisk)
	assert.Zero(t, c.MarginPercentage)

	assert.True(t, c.AddProduct(NewClientMappedProduct("AB123", "Caffè", "0001", 1, 60, 100, at)))
	assert.False(t, c.AddProduct(NewClientMappedProduct("AB123", "Caffè", "0001", 1, 0, 500, at)))
	assert.InDelta(t, 100.0, c.TotalRevenue, 1e-9)
	assert.InDelta(t, 40.0, c.TotalMargin, 1e-9)
	assert.InDelta(t, 60.0, c.TotalCost, 1e-9)
	assert.InDelta(t, 39.0, c.MarginPercentage, 1e-9)
	assert.False(t, c.IsHighRisk)

	c.AddProduct(NewClientMappedProduct("CD456", "Zucchero", "0001", 1, 80, 40, at))
	assert.InDelta(t, 0.0, c.TotalMargin, 1e-9)
	assert.True(t, c.IsHighRisk)

	clone := c.Clone()
	p, _ := clone.Products.Get("AB123")
	p.HasAnomaly = true
	orig, _ := c.Products.Get("AB123")
	assert.False(t, orig.HasAnomaly)
}

func TestProductMarginAnalysis(t *testing.T) {
	_, err := NewProductMarginAnalysis("", "x", 0, 0, 0, time.Time{})
	assert.ErrorIs(t, err, ErrNoValidID)

	p, err := NewProductMarginAnalysis("AB123", "Caffè", 0, 0, 0, time.Time{})
	require.NoError(t, err)

	rel := NewProductClientRelation("0001", "Rossi", 2, 100, 70, 30)
	assert.InDelta(t, 30.0, rel.Margin, 1e-9)
	assert.True(t, p.AddClient(rel))
	p.Accumulate(rel)
	assert.False(t, p.AddClient(NewProductClientRelation("0001", "Rossi bis", 1, 1, 1, 0)))

	p.CalculateMetrics()
	assert.InDelta(t, 30.0, p.Margin, 1e-9)
	assert.InDelta(t, 30.0, p.PercentageIncome, 1e-9)
}

func TestNewNote(t *testing.T) {
	inv := &Invoice{ID: "F1", ClientID: "0001"}

	note, err := NewNote("Titolo", "Testo", "anna", InvoiceRef(inv), evalDate)
	require.NoError(t, err)
	assert.Equal(t, EntityInvoice, note.Owner.Kind)
	assert.Equal(t, "0001", note.Owner.Parent)

	_, err = NewNote(" ", "Testo", "", ClientRef(NewClient("0001", "", "")), evalDate)
	assert.ErrorIs(t, err, ErrEmptyNote)

	_, err = NewNote("Titolo", "Testo", "", EntityRef{Kind: EntityKind(9), ID: "1"}, evalDate)
	assert.ErrorIs(t, err, ErrInvalidNoteEntity)

	kind, err := ParseEntityKind(" vendor ")
	require.NoError(t, err)
	assert.Equal(t, EntityVendor, kind)
}

func TestProcessingError(t *testing.T) {
	err := NewProcessingError("SanitizeDate", ErrInvalidDate, "\"32/01/2024\"")
	assert.True(t, errors.Is(err, ErrInvalidDate))
	assert.Equal(t, "SanitizeDate: invalid date: \"32/01/2024\"", err.Error())
	assert.Equal(t, "Data in formato sconosciuto", UserMessage(err))

	wrapped := WrapProcessingError("Outer", err, "ignored")
	assert.Same(t, err, wrapped)
	assert.Nil(t, WrapProcessingError("Outer", nil, ""))
}

func TestUserMessageWithSeveralCategories(t *testing.T) {
	err := multierror.Append(nil,
		NewProcessingError("SanitizeDate", ErrInvalidDate, "due date"),
		NewProcessingError("SanitizeMoney", ErrNotANumber, "amount"),
		NewProcessingError("SanitizeClientVendorID", ErrNoValidID, "client id"),
	)

	for i := 0; i < 50; i++ {
		require.Equal(t, "Codice univoco assente o non valido", UserMessage(err))
	}
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Empty(t, UserMessage(nil))
}

func TestOrderedMap(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("b", 2)
	m.Set("a", 1)
	assert.False(t, m.SetIfAbsent("b", 9))
	m.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	assert.Equal(t, []int{3, 1}, m.Values())

	odd := m.Filter(func(_ string, v int) bool { return v%2 == 1 })
	assert.Equal(t, 2, odd.Len())

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":3,"a":1}`, string(data))
	assert.Equal(t, `{"b":3,"a":1}`, string(data))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, time.March, 30, 23, 0, 0, 0, time.Local)
	b := time.Date(2024, time.April, 1, 1, 0, 0, 0, time.Local)
	assert.Equal(t, 2, DaysBetween(a, b))
}
