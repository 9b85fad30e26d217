package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CSVSource reads ERP exports saved as <dir>/<name>.csv. The ERP writes Windows-1252 text
// separated by semicolons; both are configurable.
type CSVSource struct {
	Dir      string
	Comma    rune
	Encoding encoding.Encoding
}

// NewCSVSource returns a source for semicolon-separated Windows-1252 files in dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir, Comma: ';', Encoding: charmap.Windows1252}
}

// Decode reads every record from r. Ragged rows are accepted.
func (s *CSVSource) Decode(r io.Reader) ([][]interface{}, error) {
	if s.Encoding != nil {
		r = transform.NewReader(r, s.Encoding.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if s.Comma != 0 {
		cr.Comma = s.Comma
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	grid := make([][]interface{}, len(records))
	for i, rec := range records {
		grid[i] = make([]interface{}, len(rec))
		for j, v := range rec {
			grid[i][j] = v
		}
	}
	return grid, nil
}

func (s *CSVSource) load(name string) ([][]interface{}, error) {
	path := filepath.Join(s.Dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, err
	}
	defer f.Close()

	grid, err := s.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return grid, nil
}

func (s *CSVSource) ReadAll(_ context.Context, name string) (*Table, error) {
	const op = "CSVSource.ReadAll"

	grid, err := s.load(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(grid) == 0 {
		return &Table{}, nil
	}
	return &Table{Header: headerStrings(grid[0]), Rows: grid[1:]}, nil
}

func (s *CSVSource) ReadRange(_ context.Context, name string, startRow, startCol, numRows, numCols int) ([][]interface{}, error) {
	const op = "CSVSource.ReadRange"

	grid, err := s.load(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sliceRange(grid, startRow, startCol, numRows, numCols)
}
