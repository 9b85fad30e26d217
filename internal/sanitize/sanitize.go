// Package sanitize normalizes raw cell values coming from ERP exports and persisted sheets.
//
// Cells arrive as whatever the tabular adapter produced: strings for formatted spreadsheet
// values and CSV fields, float64 or int for numeric cells, time.Time for native dates.
// Every sanitizer accepts an interface{} and returns a typed value or an error wrapping one of
// the models taxonomy errors, so callers can classify failures with errors.Is.
package sanitize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"erpsheets/pkg/models"
	"github.com/shopspring/decimal"
)

// MaxNativeYear is the last year accepted for native date values.
const MaxNativeYear = 2030

// MinTextYear is the first year accepted in D/M/Y strings; shorter years are rejected.
const MinTextYear = 1000

// MaxClientIDDigits is the maximum length of a cleansed client or vendor identifier.
const MaxClientIDDigits = 4

// Date accepts a native time.Time or a D/M/Y slash-delimited string and returns the date at local midnight.
// Non-string values are converted with their default string form before splitting.
func Date(value interface{}) (time.Time, error) {
	const op = "SanitizeDate"

	if isEmpty(value) {
		return time.Time{}, models.NewProcessingError(op, models.ErrInvalidDate, "empty value")
	}

	if t, ok := value.(time.Time); ok {
		if t.Year() > MaxNativeYear {
			return time.Time{}, models.NewProcessingError(op, models.ErrInvalidDate, fmt.Sprintf("year %d out of range", t.Year()))
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}

	raw := strings.TrimSpace(toString(value))
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return time.Time{}, models.NewProcessingError(op, models.ErrInvalidDate, fmt.Sprintf("%q is not D/M/Y", raw))
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, models.NewProcessingError(op, models.ErrInvalidDate, fmt.Sprintf("%q has a non-numeric part", raw))
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]
	if year < MinTextYear {
		return time.Time{}, models.NewProcessingError(op, models.ErrInvalidDate, fmt.Sprintf("%q has no four-digit year", raw))
	}

	// time.Date normalizes overflowing components (day 32 becomes the 1st of next month),
	// so the result must round-trip to the input.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, models.NewProcessingError(op, models.ErrInvalidDate, fmt.Sprintf("%q is not a calendar date", raw))
	}

	return t, nil
}

// Money normalizes an amount. Finite numbers pass through; empty values and spreadsheet error
// markers (a leading '#') yield 0; strings use '.' as thousands and ',' as decimal separator.
// contextID identifies the row in error details.
func Money(value interface{}, contextID string) (float64, error) {
	const op = "SanitizeMoney"

	if f, ok := toFloat(value); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, models.NewProcessingError(op, models.ErrWrongValueType, fmt.Sprintf("non-finite number for %s", contextID))
		}
		return f, nil
	}

	if value == nil {
		return 0, nil
	}

	s, ok := value.(string)
	if !ok {
		return 0, models.NewProcessingError(op, models.ErrWrongValueType, fmt.Sprintf("%T for %s", value, contextID))
	}

	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return 0, nil
	}

	cleaned := strings.ReplaceAll(s, "€", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.Replace(cleaned, ",", ".", 1)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, models.NewProcessingError(op, models.ErrNotANumber, fmt.Sprintf("%q for %s", s, contextID))
	}

	f := d.InexactFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, models.NewProcessingError(op, models.ErrNotANumber, fmt.Sprintf("%q overflows for %s", s, contextID))
	}
	return f, nil
}

// ClientVendorID strips the 'C', 'c', 'F', 'f' and '/' markers from every position of an
// identifier and requires the remainder to be 1 to 4 ASCII digits.
func ClientVendorID(value interface{}) (string, error) {
	const op = "SanitizeClientVendorID"

	if isEmpty(value) {
		return "", models.NewProcessingError(op, models.ErrNoValidID, "empty value")
	}

	trimmed := strings.TrimSpace(toString(value))
	if trimmed == "" {
		return "", models.NewProcessingError(op, models.ErrWrongValueType, "blank value")
	}

	var b strings.Builder
	for _, r := range trimmed {
		switch r {
		case 'C', 'c', 'F', 'f', '/':
			continue
		}
		b.WriteRune(r)
	}

	cleansed := b.String()
	if cleansed == "" {
		return "", models.NewProcessingError(op, models.ErrWrongValueType, fmt.Sprintf("%q has no identifier after cleansing", trimmed))
	}

	if len(cleansed) > MaxClientIDDigits || !isASCIIDigits(cleansed) {
		return "", models.NewProcessingError(op, models.ErrNoValidID, fmt.Sprintf("%q", trimmed))
	}

	return cleansed, nil
}

// InvoiceID keeps only the ASCII letters and digits of an invoice identifier, in order.
func InvoiceID(value interface{}) (string, error) {
	const op = "SanitizeInvoiceID"

	if isEmpty(value) {
		return "", models.NewProcessingError(op, models.ErrNoValidID, "empty value")
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	default:
		f, ok := toFloat(value)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return "", models.NewProcessingError(op, models.ErrNotANumber, fmt.Sprintf("%T", value))
		}
		raw = toString(value)
	}

	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "", models.NewProcessingError(op, models.ErrNoValidID, fmt.Sprintf("%q", raw))
	}

	return b.String(), nil
}

// Number converts a quantity or percentage cell. ok is false when the value is not a finite number.
// Strings follow the same separator rules as Money; empty cells are 0.
func Number(value interface{}) (float64, bool) {
	if f, ok := toFloat(value); ok {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	if value == nil {
		return 0, true
	}
	s, ok := value.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, true
	}
	if strings.HasPrefix(s, "#") {
		return 0, false
	}
	f, err := Money(s, "number")
	if err != nil {
		return 0, false
	}
	return f, true
}

// Text returns the trimmed string form of a cell, or "" for nil.
func Text(value interface{}) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(toString(value))
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case time.Time:
		return v.IsZero()
	}
	if f, ok := toFloat(value); ok {
		return f == 0 || math.IsNaN(f)
	}
	return false
}

func isASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
