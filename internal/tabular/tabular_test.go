package tabular

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestMemoryReadRange(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put("sheet", []string{"A", "B", "C"}, [][]interface{}{
		{"a1", "b1", "c1"},
		{"a2", "b2"},
		{"a3", "b3", "c3"},
	})

	rows, err := m.ReadRange(ctx, "sheet", 2, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"b1", "c1"}, {"b2", nil}}, rows)

	rows, err = m.ReadRange(ctx, "sheet", 3, 1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"a2"}, {"a3"}}, rows)

	_, err = m.ReadRange(ctx, "missing", 1, 1, 1, 1)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestMemoryWriteAndAppend(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Write(ctx, "db", []string{"id"}, [][]interface{}{{"1"}, {"2"}}, WriteOptions{ClearExisting: true}))
	require.NoError(t, m.Write(ctx, "db", []string{"id"}, [][]interface{}{{"3"}}, WriteOptions{ClearExisting: true}))
	require.NoError(t, m.Append(ctx, "db", [][]interface{}{{"4"}}))

	table, err := m.ReadAll(ctx, "db")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, table.Header)
	assert.Equal(t, [][]interface{}{{"3"}, {"4"}}, table.Rows)

	hints := PresentationHints{Banding: true, HighlightRows: []int{1}, HighlightColumn: 0}
	require.NoError(t, m.WriteFormatted(ctx, "report", []string{"x"}, [][]interface{}{{"a"}, {"b"}}, hints))
	got, ok := m.Hints("report")
	require.True(t, ok)
	assert.True(t, got.IsHighlighted(1))
	assert.False(t, got.IsHighlighted(0))
}

func TestCSVSourceDecodesWindows1252(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("UUID;Nominativo;Q.tà Vend.\nAB123;Caffè;3\n")
	require.NoError(t, err)

	src := NewCSVSource("")
	grid, err := src.Decode(bytes.NewBufferString(raw))
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "Q.tà Vend.", grid[0][2])
	assert.Equal(t, "Caffè", grid[1][1])
}

func TestWorkbookRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.xlsx")

	wb, err := OpenWorkbook(path)
	require.NoError(t, err)

	header := []string{"Codice Cliente", "Importo"}
	require.NoError(t, wb.Write(ctx, "ClientInvoices", header, [][]interface{}{{"12", "100"}, {"13", "50"}}, WriteOptions{ClearExisting: true}))
	require.NoError(t, wb.Write(ctx, "ClientInvoices", header, [][]interface{}{{"14", "10"}}, WriteOptions{ClearExisting: true}))
	require.NoError(t, wb.Append(ctx, "ClientInvoices", [][]interface{}{{"15", "20"}}))
	require.NoError(t, wb.Close())

	wb, err = OpenWorkbook(path)
	require.NoError(t, err)
	defer wb.Close()

	table, err := wb.ReadAll(ctx, "ClientInvoices")
	require.NoError(t, err)
	assert.Equal(t, header, table.Header)
	assert.Equal(t, [][]interface{}{{"14", "10"}, {"15", "20"}}, table.Rows)

	hints := PresentationHints{HeaderEmphasis: true, FreezeHeader: true, Banding: true, AutoResize: true, HighlightRows: []int{0}, HighlightColumn: 1}
	require.NoError(t, wb.WriteFormatted(ctx, "Report", []string{"Client UUID", "Anomaly Text"}, [][]interface{}{{"12", "Prodotto interno"}}, hints))

	rows, err := wb.ReadRange(ctx, "Report", 2, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"12", "Prodotto interno"}}, rows)
}
