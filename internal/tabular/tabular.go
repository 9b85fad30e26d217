// Package tabular defines the named-table collaborators the pipeline reads from and writes to,
// plus the file-backed and in-memory implementations used offline and in tests.
package tabular

import (
	"context"
	"fmt"
	"strings"
)

// Table is a named resource read in full: the first row as header, the rest as data rows.
type Table struct {
	Header []string
	Rows   [][]interface{}
}

// Source reads named tabular resources.
type Source interface {
	// ReadAll returns the header and every data row of the resource.
	ReadAll(ctx context.Context, name string) (*Table, error)

	// ReadRange returns a rectangular block of rows. Rows and columns are 1-based spreadsheet
	// coordinates, so startRow 2 skips the header. numRows <= 0 reads to the last row.
	ReadRange(ctx context.Context, name string, startRow, startCol, numRows, numCols int) ([][]interface{}, error)
}

// WriteOptions controls a plain write.
type WriteOptions struct {
	ClearExisting bool
}

// PresentationHints are cosmetic styling requests a sink may honor. They never change cell values.
type PresentationHints struct {
	HeaderEmphasis bool
	FreezeHeader   bool
	Banding        bool
	AutoResize     bool

	// HighlightRows lists zero-based data row indexes rendered in bold.
	HighlightRows []int

	// HighlightColumn is the zero-based column whose cell is colored on highlighted rows; -1 for none.
	HighlightColumn int
}

// IsHighlighted reports whether data row i is in HighlightRows.
func (h PresentationHints) IsHighlighted(i int) bool {
	for _, r := range h.HighlightRows {
		if r == i {
			return true
		}
	}
	return false
}

// Sink writes named tabular resources.
type Sink interface {
	// Write replaces the resource content with header and rows when opts.ClearExisting is set,
	// and writes over the existing content from the first row otherwise.
	Write(ctx context.Context, name string, header []string, rows [][]interface{}, opts WriteOptions) error

	// WriteFormatted clears the resource, writes header and rows and applies hints.
	WriteFormatted(ctx context.Context, name string, header []string, rows [][]interface{}, hints PresentationHints) error

	// Append adds rows after the last non-empty row.
	Append(ctx context.Context, name string, rows [][]interface{}) error
}

// Store is a Source that is also a Sink.
type Store interface {
	Source
	Sink
}

// NotFoundError is returned when a named resource does not exist.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tabular resource %q not found", e.Name)
}

// sliceRange cuts a block out of the full grid (header included as row 1).
func sliceRange(grid [][]interface{}, startRow, startCol, numRows, numCols int) ([][]interface{}, error) {
	if startRow < 1 || startCol < 1 {
		return nil, fmt.Errorf("invalid range origin %d,%d", startRow, startCol)
	}
	if numCols < 1 {
		return nil, fmt.Errorf("invalid column count %d", numCols)
	}

	from := startRow - 1
	to := len(grid)
	if numRows > 0 && from+numRows < to {
		to = from + numRows
	}

	var out [][]interface{}
	for r := from; r < to; r++ {
		src := grid[r]
		row := make([]interface{}, numCols)
		for c := 0; c < numCols; c++ {
			if idx := startCol - 1 + c; idx < len(src) {
				row[c] = src[idx]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func toGrid(t *Table) [][]interface{} {
	grid := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	grid = append(grid, header)
	return append(grid, t.Rows...)
}

func headerStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v != nil {
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func isBlankRow(row []interface{}) bool {
	for _, v := range row {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
