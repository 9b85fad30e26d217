package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType tells an invoice apart from a credit note. It is derived from the sign of the raw amount.
type DocumentType int

const (
	DocumentTypeError DocumentType = iota
	DocumentTypeInvoice
	DocumentTypeCreditNote
)

// String returns the English tag of the document type.
func (t DocumentType) String() string {
	switch t {
	case DocumentTypeInvoice:
		return "Invoice"
	case DocumentTypeCreditNote:
		return "CreditNote"
	default:
		return "Error"
	}
}

// Label returns the Italian text persisted in the "Tipo Documento" column.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeInvoice:
		return "Fattura"
	case DocumentTypeCreditNote:
		return "Nota di credito"
	default:
		return "Errore nel definire la tipologia del documento!"
	}
}

// MarshalText encodes the document type as its English tag.
func (t DocumentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DocumentTypeFromAmount derives the document type from the sign of a sanitized amount.
func DocumentTypeFromAmount(amount float64) (DocumentType, error) {
	switch {
	case amount > 0:
		return DocumentTypeInvoice, nil
	case amount < 0:
		return DocumentTypeCreditNote, nil
	default:
		return DocumentTypeError, NewProcessingError("DocumentTypeFromAmount", ErrInvalidDocumentType, "amount is zero")
	}
}

// DocumentTypeFromLabel maps a persisted "Tipo Documento" label back to a document type.
func DocumentTypeFromLabel(label string) DocumentType {
	switch label {
	case DocumentTypeInvoice.Label():
		return DocumentTypeInvoice
	case DocumentTypeCreditNote.Label():
		return DocumentTypeCreditNote
	default:
		return DocumentTypeError
	}
}

// InvoiceStatus is the payment state derived from amount and paid amount.
type InvoiceStatus int

const (
	StatusUnpaid InvoiceStatus = iota
	StatusPartiallyPaid
	StatusPaid
	StatusInvalid
)

// String returns the Italian status label shown to users and persisted in "Stato Fattura".
func (s InvoiceStatus) String() string {
	switch s {
	case StatusUnpaid:
		return "Da pagare"
	case StatusPartiallyPaid:
		return "Parzialmente pagata"
	case StatusPaid:
		return "Pagata"
	default:
		return UserMessage(ErrWrongValueType)
	}
}

// MarshalText encodes the status as its label.
func (s InvoiceStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Invoice is a single client document. Amount and Paid are stored as absolute values;
// the sign of the raw amount survives only in Type.
type Invoice struct {
	ID         string        `json:"uuid"`
	ClientID   string        `json:"entity"`
	IssueDate  time.Time     `json:"date"`
	DueDate    time.Time     `json:"dueDate"`
	Amount     float64       `json:"amount"`
	Paid       float64       `json:"paid"`
	LeftToPay  float64       `json:"leftToPay"`
	Status     InvoiceStatus `json:"status"`
	IsOverdue  bool          `json:"isOverdue"`
	Type       DocumentType  `json:"type"`
	Note       string        `json:"invoiceNote"`
	CapturedAt time.Time     `json:"parsingDate"`
}

// InvoiceParams holds the sanitized values an Invoice is built from.
type InvoiceParams struct {
	ID         string
	ClientID   string
	Amount     float64 // signed, as found in the export
	Paid       float64
	IssueDate  time.Time
	DueDate    time.Time
	Type       DocumentType
	Note       string
	CapturedAt time.Time
}

// NewInvoice builds an Invoice and computes its derived fields. today is the evaluation
// date for IsOverdue and is truncated to midnight.
func NewInvoice(p InvoiceParams, today time.Time) *Invoice {
	inv := &Invoice{
		ID:         p.ID,
		ClientID:   p.ClientID,
		IssueDate:  p.IssueDate,
		DueDate:    p.DueDate,
		Type:       p.Type,
		Note:       p.Note,
		CapturedAt: p.CapturedAt,
	}

	switch {
	case p.Amount > 0:
		inv.Amount = p.Amount
		inv.Paid = p.Paid
	case p.Amount < 0:
		inv.Amount = -p.Amount
		inv.Paid = -p.Paid
	}
	if math.IsNaN(inv.Paid) || math.IsInf(inv.Paid, 0) {
		inv.Paid = 0
	}

	left := decimal.NewFromFloat(inv.Amount).Sub(decimal.NewFromFloat(inv.Paid))
	inv.LeftToPay = left.InexactFloat64()

	switch {
	case left.Equal(decimal.NewFromFloat(inv.Amount)):
		inv.Status = StatusUnpaid
	case left.IsPositive():
		inv.Status = StatusPartiallyPaid
	case left.IsZero():
		inv.Status = StatusPaid
	default:
		inv.Status = StatusInvalid
	}

	if inv.Status != StatusPaid && inv.DueDate.Before(Midnight(today)) {
		inv.IsOverdue = true
	}

	return inv
}

// Midnight truncates t to 00:00 in its own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of calendar days from a to b, ignoring time of day and DST shifts.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
