package tabular

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"
	"unicode/utf8"

	"erpsheets/internal/logger"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	headerFill    = "1F3864"
	headerFont    = "FFFFFF"
	bandFill      = "E8EEF7"
	highlightFill = "FCE4D6"
	maxAutoWidth  = 60.0
)

var displayedDate = regexp.MustCompile(`^\d{1,4}[-/]\d{1,2}[-/]\d{1,4}`)

// Workbook is a Store backed by a local .xlsx file. Every resource is a worksheet and every
// write is saved to disk before returning.
type Workbook struct {
	mu   sync.Mutex
	path string
	file *excelize.File
	log  zerolog.Logger
}

// OpenWorkbook opens path, creating an empty workbook when the file does not exist yet.
func OpenWorkbook(path string) (*Workbook, error) {
	const op = "OpenWorkbook"

	log := logger.WithComponent("workbook")

	var f *excelize.File
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("Creating new workbook")
		f = excelize.NewFile()
	} else {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
		}
	}

	return &Workbook{path: path, file: f, log: log}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *Workbook) ReadAll(_ context.Context, name string) (*Table, error) {
	const op = "Workbook.ReadAll"

	w.mu.Lock()
	defer w.mu.Unlock()

	grid, err := w.grid(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(grid) == 0 {
		return &Table{}, nil
	}

	w.log.Debug().Str("sheet", name).Int("rows", len(grid)-1).Msg("Read worksheet")
	return &Table{Header: headerStrings(grid[0]), Rows: grid[1:]}, nil
}

func (w *Workbook) ReadRange(_ context.Context, name string, startRow, startCol, numRows, numCols int) ([][]interface{}, error) {
	const op = "Workbook.ReadRange"

	w.mu.Lock()
	defer w.mu.Unlock()

	grid, err := w.grid(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sliceRange(grid, startRow, startCol, numRows, numCols)
}

func (w *Workbook) grid(name string) ([][]interface{}, error) {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		return nil, &NotFoundError{Name: name}
	}

	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}

	grid := make([][]interface{}, len(rows))
	for i, r := range rows {
		grid[i] = make([]interface{}, len(r))
		for j, c := range r {
			grid[i][j] = w.cellValue(name, i+1, j+1, c)
		}
	}
	return grid, nil
}

// cellValue types a raw cell: numeric cells become float64, numeric cells displayed as a
// date become time.Time and everything else stays a string.
func (w *Workbook) cellValue(sheet string, row, col int, raw string) interface{} {
	if raw == "" {
		return raw
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := w.file.GetCellType(sheet, axis)
	if err != nil || (typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
		return raw
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if shown, err := w.file.GetCellValue(sheet, axis); err == nil && displayedDate.MatchString(shown) {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return t
		}
	}
	return n
}

func (w *Workbook) Write(_ context.Context, name string, header []string, rows [][]interface{}, opts WriteOptions) error {
	const op = "Workbook.Write"

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeSheet(name, header, rows, opts.ClearExisting); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("%s: failed to save %s: %w", op, w.path, err)
	}

	w.log.Info().Str("sheet", name).Int("rows", len(rows)).Msg("Wrote worksheet")
	return nil
}

func (w *Workbook) WriteFormatted(_ context.Context, name string, header []string, rows [][]interface{}, hints PresentationHints) error {
	const op = "Workbook.WriteFormatted"

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeSheet(name, header, rows, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := w.format(name, header, rows, hints); err != nil {
		w.log.Warn().Err(err).Str("sheet", name).Msg("Failed to format worksheet, continuing anyway")
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("%s: failed to save %s: %w", op, w.path, err)
	}

	w.log.Info().Str("sheet", name).Int("rows", len(rows)).Msg("Wrote formatted worksheet")
	return nil
}

func (w *Workbook) Append(_ context.Context, name string, rows [][]interface{}) error {
	const op = "Workbook.Append"

	w.mu.Lock()
	defer w.mu.Unlock()

	grid, err := w.grid(name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	last := len(grid)
	for last > 0 && isBlankRow(grid[last-1]) {
		last--
	}
	for i, r := range rows {
		if err := w.setRow(name, last+i+1, r); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("%s: failed to save %s: %w", op, w.path, err)
	}
	return nil
}

func (w *Workbook) writeSheet(name string, header []string, rows [][]interface{}, clearExisting bool) error {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return err
	}

	switch {
	case idx == -1:
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	case clearExisting:
		if err := w.resetSheet(name); err != nil {
			return err
		}
	}

	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := w.setRow(name, 1, hdr); err != nil {
		return err
	}
	for i, r := range rows {
		if err := w.setRow(name, i+2, r); err != nil {
			return err
		}
	}
	return nil
}

// resetSheet replaces a worksheet with an empty one of the same name.
func (w *Workbook) resetSheet(name string) error {
	tmp := name + "~"
	if _, err := w.file.NewSheet(tmp); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", tmp, err)
	}
	if err := w.file.DeleteSheet(name); err != nil {
		return fmt.Errorf("failed to delete sheet %s: %w", name, err)
	}
	if err := w.file.SetSheetName(tmp, name); err != nil {
		return fmt.Errorf("failed to rename sheet %s: %w", tmp, err)
	}
	return nil
}

func (w *Workbook) setRow(name string, rowNum int, row []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := append([]interface{}(nil), row...)
	if err := w.file.SetSheetRow(name, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNum, name, err)
	}
	return nil
}

func (w *Workbook) format(name string, header []string, rows [][]interface{}, hints PresentationHints) error {
	if len(header) == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}

	if hints.HeaderEmphasis {
		style, err := w.file.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Color: headerFont},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		})
		if err != nil {
			return err
		}
		if err := w.file.SetCellStyle(name, "A1", lastCol+"1", style); err != nil {
			return err
		}
	}

	if hints.FreezeHeader {
		if err := w.file.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
	}

	band, err := w.file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bandFill}},
	})
	if err != nil {
		return err
	}
	bold, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	marked, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{highlightFill}},
	})
	if err != nil {
		return err
	}

	for i := range rows {
		rowNum := i + 2
		from, to := fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", lastCol, rowNum)

		if hints.Banding && i%2 == 1 {
			if err := w.file.SetCellStyle(name, from, to, band); err != nil {
				return err
			}
		}
		if !hints.IsHighlighted(i) {
			continue
		}
		if err := w.file.SetCellStyle(name, from, to, bold); err != nil {
			return err
		}
		if hints.HighlightColumn >= 0 && hints.HighlightColumn < len(header) {
			cell, err := excelize.CoordinatesToCellName(hints.HighlightColumn+1, rowNum)
			if err != nil {
				return err
			}
			if err := w.file.SetCellStyle(name, cell, cell, marked); err != nil {
				return err
			}
		}
	}

	if hints.AutoResize {
		for c := range header {
			width := float64(utf8.RuneCountInString(header[c]))
			for _, r := range rows {
				if c < len(r) && r[c] != nil {
					if n := float64(utf8.RuneCountInString(fmt.Sprint(r[c]))); n > width {
						width = n
					}
				}
			}
			if width += 2; width > maxAutoWidth {
				width = maxAutoWidth
			}
			col, err := excelize.ColumnNumberToName(c + 1)
			if err != nil {
				return err
			}
			if err := w.file.SetColWidth(name, col, col, width); err != nil {
				return err
			}
		}
	}

	return nil
}
