// Package schema holds the static column layouts of the ERP exports and of the persisted sheets.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"erpsheets/pkg/models"
)

// Column is a named column at a zero-based index.
type Column struct {
	Key    string
	Index  int
	Header string
}

// Schema is an immutable, order-significant column layout.
type Schema struct {
	name    string
	columns []Column
	byKey   map[string]Column
}

func newSchema(name string, cols ...Column) *Schema {
	s := &Schema{name: name, byKey: make(map[string]Column, len(cols))}
	s.columns = append(s.columns, cols...)
	sort.SliceStable(s.columns, func(i, j int) bool { return s.columns[i].Index < s.columns[j].Index })
	for _, c := range s.columns {
		s.byKey[c.Key] = c
	}
	return s
}

// Name returns the schema name used in logs.
func (s *Schema) Name() string { return s.name }

// Width is the number of columns a row of this schema needs.
func (s *Schema) Width() int {
	if len(s.columns) == 0 {
		return 0
	}
	return s.columns[len(s.columns)-1].Index + 1
}

// Headers returns the header texts ordered by column index.
func (s *Schema) Headers() []string {
	out := make([]string, s.Width())
	for _, c := range s.columns {
		out[c.Index] = c.Header
	}
	return out
}

// Index returns the zero-based index of the column with the given key. It panics on unknown keys,
// which are programming errors.
func (s *Schema) Index(key string) int {
	c, ok := s.byKey[key]
	if !ok {
		panic(fmt.Sprintf("schema %s: unknown column %q", s.name, key))
	}
	return c.Index
}

// NewRow returns an empty row sized for the schema.
func (s *Schema) NewRow() []interface{} {
	row := make([]interface{}, s.Width())
	for i := range row {
		row[i] = ""
	}
	return row
}

// Invoice importer (ERP receivables export) column keys.
const (
	ImportOverdueDate = "OVERDUE_DATE"
	ImportClientID    = "CLIENT_UUID"
	ImportClientName  = "CLIENT_NAME"
	ImportInvoiceDate = "INVOICE_DATE"
	ImportInvoiceID   = "INVOICE_UUID"
	ImportPaymentType = "INVOICE_PAYMENT_TYPE"
	ImportAmount      = "INVOICE_AMOUNT"
	ImportPaid        = "INVOICE_PAID_AMOUNT"
	ImportNote        = "INVOICE_NOTE"
)

// InvoiceImport is the layout of the ERP receivables export.
var InvoiceImport = newSchema("invoice-import",
	Column{ImportOverdueDate, 0, "Scadenza"},
	Column{ImportClientID, 1, "Codice"},
	Column{ImportClientName, 2, "Descrizione"},
	Column{ImportInvoiceDate, 3, "Data fattura"},
	Column{ImportInvoiceID, 4, "Nr. rif. fatt."},
	Column{ImportPaymentType, 5, "Tipo scadenza"},
	Column{ImportAmount, 6, "Importo"},
	Column{ImportPaid, 7, "Importo pagato"},
	Column{ImportNote, 9, "Note"},
)

// Client DB column keys.
const (
	ClientID          = "CLIENT_UUID"
	ClientName        = "CLIENT_NAME"
	ClientAgent       = "CLIENT_AGENT"
	InvoiceID         = "INVOICE_UUID"
	InvoiceDate       = "INVOICE_DATE"
	InvoiceDueDate    = "INVOICE_DUE_DATE"
	InvoiceAmount     = "INVOICE_AMOUNT"
	InvoicePaid       = "INVOICE_PAID"
	InvoiceLeftToPay  = "INVOICE_LEFT_PAY"
	InvoiceType       = "INVOICE_TYPE"
	InvoiceStatus     = "INVOICE_STATUS"
	InvoiceIsOverdue  = "INVOICE_ISOVERDUE"
	InvoiceCapturedAt = "INVOICE_PARSING_DATE"
)

// ClientDB is the 13-column persisted client-invoice layout.
var ClientDB = newSchema("client-db",
	Column{ClientID, 0, "Codice Cliente"},
	Column{ClientName, 1, "Nominativo Cliente"},
	Column{ClientAgent, 2, "Agente"},
	Column{InvoiceID, 3, "ID Fattura"},
	Column{InvoiceDate, 4, "Data Fattura"},
	Column{InvoiceDueDate, 5, "Data Scadenza"},
	Column{InvoiceAmount, 6, "Importo Totale"},
	Column{InvoicePaid, 7, "Importo Pagato"},
	Column{InvoiceLeftToPay, 8, "Importo Residuo"},
	Column{InvoiceType, 9, "Tipo Documento"},
	Column{InvoiceStatus, 10, "Stato Fattura"},
	Column{InvoiceIsOverdue, 11, "Scaduta?"},
	Column{InvoiceCapturedAt, 12, "Data Estrazione"},
)

// Product import and analysis DB column keys.
const (
	AnalysisID         = "UUID"
	AnalysisOrigin     = "UUID_VENDOR"
	AnalysisName       = "NAME"
	AnalysisQuantity   = "SOLD_QUANTITY"
	AnalysisIncome     = "SOLD_INCOME_VALUE"
	AnalysisCost       = "SOLD_COST"
	AnalysisMargin     = "ROI_CLIENT"
	AnalysisPercentage = "PERCENTAGE_INCOME_TO_COST"
	AnalysisProduct    = "PRODUCT_NAME"
	AnalysisParsedAt   = "PRODUCT_PARSING_DATE"
)

// ProductImport is the layout of the ERP product-income export. Product rows and client rows
// share the same columns.
var ProductImport = newSchema("product-import",
	Column{AnalysisID, 0, "UUID"},
	Column{AnalysisName, 1, "Nominativo"},
	Column{AnalysisQuantity, 2, "Q.tà Vend."},
	Column{AnalysisIncome, 3, "Val. Vend."},
	Column{AnalysisCost, 4, "Val. Costo"},
	Column{AnalysisPercentage, 5, "%"},
)

// AnalysisDB is the 10-column persisted product-margin layout. UUID is the client, UUID origine the product.
var AnalysisDB = newSchema("analysis-db",
	Column{AnalysisID, 0, "UUID"},
	Column{AnalysisOrigin, 1, "UUID origine"},
	Column{AnalysisName, 2, "Nominativo"},
	Column{AnalysisQuantity, 3, "Q.tà Vend."},
	Column{AnalysisIncome, 4, "Val. Vend."},
	Column{AnalysisCost, 5, "Val. Costo"},
	Column{AnalysisMargin, 6, "Differenza"},
	Column{AnalysisPercentage, 7, "Percentuale"},
	Column{AnalysisProduct, 8, "Nome prodotto"},
	Column{AnalysisParsedAt, 9, "Data Estrazione"},
)

// Note registry column keys.
const (
	NoteID        = "NOTE_UUID"
	NoteVendorID  = "VENDOR_UUID"
	NoteClientID  = "CLIENT_UUID"
	NoteCreatedAt = "NOTE_CREATION_DATE"
	NoteAuthor    = "NOTE_CREATION_USER"
	NoteTitle     = "NOTE_TITLE"
	NoteContent   = "NOTE_CONTENT"
	NoteVisible   = "UI_DISPLAY"
)

// NoteRegistry is the layout of the note registry sheet.
var NoteRegistry = newSchema("note-registry",
	Column{NoteID, 0, "ID nota"},
	Column{NoteVendorID, 1, "Codice venditore"},
	Column{NoteClientID, 2, "Codice cliente"},
	Column{NoteCreatedAt, 3, "Data creazione nota"},
	Column{NoteAuthor, 4, "Utente che ha creato la nota"},
	Column{NoteTitle, 5, "Titolo nota"},
	Column{NoteContent, 6, "Contenuto nota"},
	Column{NoteVisible, 7, "Visibile"},
)

// DateLayout is the DD/MM/YYYY layout used for every persisted date.
const DateLayout = "02/01/2006"

// Persisted overdue flag values.
const (
	OverdueYes = "Si"
	OverdueNo  = "No"
)

// HeaderMap maps trimmed header names to their zero-based column index.
type HeaderMap map[string]int

// NewHeaderMap indexes a header row. Blank headers are ignored; on duplicates the first one wins.
func NewHeaderMap(header []string) HeaderMap {
	m := make(HeaderMap, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, seen := m[h]; !seen {
			m[h] = i
		}
	}
	return m
}

// Require returns the index of every named column, failing with ErrMissingColumn on the first absent one.
func (m HeaderMap) Require(names ...string) ([]int, error) {
	const op = "HeaderMap.Require"

	out := make([]int, len(names))
	for i, n := range names {
		idx, ok := m[n]
		if !ok {
			return nil, models.NewProcessingError(op, models.ErrMissingColumn, n)
		}
		out[i] = idx
	}
	return out, nil
}

// Resolve maps every column of s to its index in the header, failing with ErrMissingColumn when
// a schema column is absent. The result is keyed by column key.
func (m HeaderMap) Resolve(s *Schema) (map[string]int, error) {
	const op = "HeaderMap.Resolve"

	out := make(map[string]int, len(s.columns))
	for _, c := range s.columns {
		idx, ok := m[c.Header]
		if !ok {
			return nil, models.NewProcessingError(op, models.ErrMissingColumn, fmt.Sprintf("%s in %s", c.Header, s.name))
		}
		out[c.Key] = idx
	}
	return out, nil
}

// Cell returns row[idx], or nil when the row is too short.
func Cell(row []interface{}, idx int) interface{} {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}
