package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the sanitizers, the ETL engine, the reader and the report engine.
var (
	// ErrWrongValueType is returned when a cell holds a malformed or untyped value.
	ErrWrongValueType = errors.New("wrong value type")

	// ErrInvalidDate is returned when a date is unparseable or calendar-inconsistent.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNotANumber is returned when an amount fails numeric coercion.
	ErrNotANumber = errors.New("value is NaN or infinite")

	// ErrNoValidID is returned when an identifier is empty or fails pattern validation after cleansing.
	ErrNoValidID = errors.New("missing or invalid identifier")

	// ErrInvalidDocumentType is returned for zero-amount invoices whose type cannot be determined.
	ErrInvalidDocumentType = errors.New("unable to determine document type")

	// ErrNoData is returned when an empty result set reaches a reporting step.
	ErrNoData = errors.New("no data")

	// ErrNotFound is returned when a requested entity is absent from a rebuilt map.
	ErrNotFound = errors.New("not found")

	// ErrMissingColumn is returned when a tabular source lacks a column the reader depends on.
	ErrMissingColumn = errors.New("missing required column")

	// ErrInvalidRequest is returned for malformed request shapes.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyNote is returned when a note has no title or content.
	ErrEmptyNote = errors.New("empty or invalid note")

	// ErrInvalidNoteEntity is returned when a note has no owning entity.
	ErrInvalidNoteEntity = errors.New("invalid note entity")
)

// userMessages is checked in order, so an error chain spanning several categories always
// resolves to the first listed one.
var userMessages = []struct {
	err error
	msg string
}{
	{ErrNotFound, "Nessun elemento trovato"},
	{ErrNoData, "Nessun dato disponibile"},
	{ErrMissingColumn, "Colonna obbligatoria mancante"},
	{ErrInvalidRequest, "Richiesta non valida."},
	{ErrNoValidID, "Codice univoco assente o non valido"},
	{ErrInvalidDate, "Data in formato sconosciuto"},
	{ErrNotANumber, "valore è NAN o infinito"},
	{ErrInvalidDocumentType, "Errore nel definire la tipologia del documento!"},
	{ErrWrongValueType, "Valore non idoneo"},
	{ErrEmptyNote, "Il file note è vuoto o invalido"},
	{ErrInvalidNoteEntity, "ID correlato non valido"},
}

// UserMessage returns the Italian message shown to users for err, falling back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}

// ProcessingError wraps a taxonomy error with the operation that produced it.
type ProcessingError struct {
	// Op is the operation that failed (e.g., "SanitizeDate", "RunInvoiceEtl").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure, typically the offending value.
	Details string
}

// Error implements the error interface.
func (e *ProcessingError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ProcessingError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewProcessingError creates a new ProcessingError.
func NewProcessingError(op string, err error, details string) *ProcessingError {
	return &ProcessingError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapProcessingError wraps err as a ProcessingError if it isn't already one.
func WrapProcessingError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return err
	}

	return NewProcessingError(op, err, details)
}
