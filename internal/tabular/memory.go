package tabular

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It keeps every write, including the hints of formatted writes.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*Table
	hints  map[string]PresentationHints
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		tables: make(map[string]*Table),
		hints:  make(map[string]PresentationHints),
	}
}

// Put stores a table, replacing any previous content.
func (m *Memory) Put(name string, header []string, rows [][]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = &Table{Header: append([]string(nil), header...), Rows: copyRows(rows)}
}

// Hints returns the hints of the last formatted write to name.
func (m *Memory) Hints(name string) (PresentationHints, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hints[name]
	return h, ok
}

func (m *Memory) ReadAll(_ context.Context, name string) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return &Table{Header: append([]string(nil), t.Header...), Rows: copyRows(t.Rows)}, nil
}

func (m *Memory) ReadRange(_ context.Context, name string, startRow, startCol, numRows, numCols int) ([][]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return sliceRange(toGrid(t), startRow, startCol, numRows, numCols)
}

func (m *Memory) Write(_ context.Context, name string, header []string, rows [][]interface{}, opts WriteOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tables[name]
	if !ok || opts.ClearExisting {
		m.tables[name] = &Table{Header: append([]string(nil), header...), Rows: copyRows(rows)}
		return nil
	}

	t.Header = append([]string(nil), header...)
	for i, r := range copyRows(rows) {
		if i < len(t.Rows) {
			t.Rows[i] = r
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	return nil
}

func (m *Memory) WriteFormatted(ctx context.Context, name string, header []string, rows [][]interface{}, hints PresentationHints) error {
	if err := m.Write(ctx, name, header, rows, WriteOptions{ClearExisting: true}); err != nil {
		return err
	}
	m.mu.Lock()
	m.hints[name] = hints
	m.mu.Unlock()
	return nil
}

func (m *Memory) Append(_ context.Context, name string, rows [][]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return &NotFoundError{Name: name}
	}
	t.Rows = append(t.Rows, copyRows(rows)...)
	return nil
}

func copyRows(rows [][]interface{}) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = append([]interface{}(nil), r...)
	}
	return out
}
