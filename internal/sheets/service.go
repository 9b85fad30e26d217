package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"erpsheets/internal/logger"
	"erpsheets/internal/tabular"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var (
	headerColor    = &sheets.Color{Red: 0.12, Green: 0.22, Blue: 0.39}
	headerText     = &sheets.Color{Red: 1, Green: 1, Blue: 1}
	bandColor      = &sheets.Color{Red: 0.91, Green: 0.93, Blue: 0.97}
	highlightColor = &sheets.Color{Red: 0.99, Green: 0.89, Blue: 0.84}
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service handles Google Sheets operations. Every worksheet of the spreadsheet is a tabular resource.
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

var _ tabular.Store = (*Service)(nil)

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	client := config.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// ReadAll reads a whole worksheet; the first row is the header.
func (s *Service) ReadAll(ctx context.Context, name string) (*tabular.Table, error) {
	const op = "ReadAll"

	values, err := s.readRange(ctx, quoteSheet(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(values) == 0 {
		return &tabular.Table{}, nil
	}

	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return &tabular.Table{Header: header, Rows: values[1:]}, nil
}

// ReadRange reads a block using 1-based coordinates. numRows <= 0 reads to the last row.
func (s *Service) ReadRange(ctx context.Context, name string, startRow, startCol, numRows, numCols int) ([][]interface{}, error) {
	const op = "ReadRange"

	rangeSpec, err := a1Range(name, startRow, startCol, numRows, numCols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	values, err := s.readRange(ctx, rangeSpec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// The API trims trailing empty cells; pad every row to the requested width.
	for i, row := range values {
		if len(row) < numCols {
			values[i] = append(row, make([]interface{}, numCols-len(row))...)
		}
	}
	return values, nil
}

// readRange returns numbers as float64 and dates as their displayed text.
func (s *Service) readRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}

// Write writes header and rows from A1, clearing the worksheet first when requested.
func (s *Service) Write(ctx context.Context, name string, header []string, rows [][]interface{}, opts tabular.WriteOptions) error {
	const op = "Write"

	if _, err := s.ensureSheet(ctx, name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.write(ctx, name, header, rows, opts.ClearExisting); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WriteFormatted clears the worksheet, writes header and rows and applies the presentation hints
// in a single batch update.
func (s *Service) WriteFormatted(ctx context.Context, name string, header []string, rows [][]interface{}, hints tabular.PresentationHints) error {
	const op = "WriteFormatted"

	sheetID, err := s.ensureSheet(ctx, name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.write(ctx, name, header, rows, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	requests := formatRequests(sheetID, len(header), len(rows), hints)
	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do(); err != nil {
		s.log.Warn().Err(err).Str("sheet", name).Msg("Failed to format sheet, continuing anyway")
	}
	return nil
}

// Append adds rows after the last row of the worksheet's data table.
func (s *Service) Append(ctx context.Context, name string, rows [][]interface{}) error {
	const op = "Append"

	if _, found, err := s.findSheet(ctx, name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	} else if !found {
		return &tabular.NotFoundError{Name: name}
	}

	s.log.Info().
		Str("sheet", name).
		Int("rows", len(rows)).
		Msg("Appending rows to Google Sheet")

	valueRange := &sheets.ValueRange{Values: rows}
	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		quoteSheet(name)+"!A1",
		valueRange,
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}
	return nil
}

func (s *Service) write(ctx context.Context, name string, header []string, rows [][]interface{}, clearExisting bool) error {
	if clearExisting {
		_, err := s.sheetsService.Spreadsheets.Values.Clear(s.spreadsheetID, quoteSheet(name), &sheets.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to clear sheet %s: %w", name, err)
		}
	}

	values := make([][]interface{}, 0, len(rows)+1)
	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	values = append(values, hdr)
	values = append(values, rows...)

	_, err := s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		quoteSheet(name)+"!A1",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", name, err)
	}

	s.log.Info().
		Str("sheet", name).
		Int("rows_written", len(rows)).
		Msg("Successfully wrote rows to Google Sheet")
	return nil
}

// findSheet looks up the ID of the named worksheet.
func (s *Service) findSheet(ctx context.Context, name string) (int64, bool, error) {
	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == name {
			return sheet.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

// ensureSheet returns the ID of the named worksheet, creating it when missing.
func (s *Service) ensureSheet(ctx context.Context, name string) (int64, error) {
	id, found, err := s.findSheet(ctx, name)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	s.log.Info().Str("sheet", name).Msg("Creating new sheet")

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}}},
		},
	}
	resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// formatRequests translates presentation hints into batchUpdate requests. Formatting left
// over from a previous write is reset first.
func formatRequests(sheetID int64, numCols, numRows int, hints tabular.PresentationHints) []*sheets.Request {
	if numCols == 0 {
		return nil
	}
	cols := int64(numCols)
	rowRange := func(row int64) *sheets.GridRange {
		return &sheets.GridRange{SheetId: sheetID, StartRowIndex: row, EndRowIndex: row + 1, StartColumnIndex: 0, EndColumnIndex: cols}
	}
	repeat := func(r *sheets.GridRange, format *sheets.CellFormat, fields string) *sheets.Request {
		return &sheets.Request{RepeatCell: &sheets.RepeatCellRequest{
			Range:  r,
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: fields,
		}}
	}

	requests := []*sheets.Request{
		repeat(&sheets.GridRange{SheetId: sheetID}, &sheets.CellFormat{}, "userEnteredFormat"),
	}

	if hints.HeaderEmphasis {
		requests = append(requests, repeat(rowRange(0), &sheets.CellFormat{
			TextFormat:      &sheets.TextFormat{Bold: true, ForegroundColor: headerText},
			BackgroundColor: headerColor,
		}, "userEnteredFormat(textFormat,backgroundColor)"))
	}

	if hints.FreezeHeader {
		requests = append(requests, &sheets.Request{UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId:        sheetID,
				GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
			},
			Fields: "gridProperties.frozenRowCount",
		}})
	}

	for i := 0; i < numRows; i++ {
		row := int64(i + 1)
		if hints.Banding && i%2 == 1 {
			requests = append(requests, repeat(rowRange(row), &sheets.CellFormat{BackgroundColor: bandColor}, "userEnteredFormat.backgroundColor"))
		}
		if !hints.IsHighlighted(i) {
			continue
		}
		requests = append(requests, repeat(rowRange(row), &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}}, "userEnteredFormat.textFormat.bold"))
		if hints.HighlightColumn >= 0 && hints.HighlightColumn < numCols {
			col := int64(hints.HighlightColumn)
			requests = append(requests, repeat(&sheets.GridRange{
				SheetId: sheetID, StartRowIndex: row, EndRowIndex: row + 1, StartColumnIndex: col, EndColumnIndex: col + 1,
			}, &sheets.CellFormat{BackgroundColor: highlightColor}, "userEnteredFormat.backgroundColor"))
		}
	}

	if hints.AutoResize {
		requests = append(requests, &sheets.Request{AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   cols,
			},
		}})
	}

	return requests
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// a1Range builds an A1 range from 1-based coordinates.
func a1Range(name string, startRow, startCol, numRows, numCols int) (string, error) {
	if startRow < 1 || startCol < 1 || numCols < 1 {
		return "", fmt.Errorf("invalid range %d,%d,%d,%d", startRow, startCol, numRows, numCols)
	}
	from := columnName(startCol) + fmt.Sprint(startRow)
	to := columnName(startCol + numCols - 1)
	if numRows > 0 {
		to += fmt.Sprint(startRow + numRows - 1)
	}
	return quoteSheet(name) + "!" + from + ":" + to, nil
}

// columnName converts a 1-based column number to its letters (1 → A, 27 → AA).
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
