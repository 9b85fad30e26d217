package notes

import (
	"context"
	"testing"
	"time"

	"erpsheets/internal/schema"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheet = "RegistroNote"

var noteDate = time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local)

func newTestRegistry(store tabular.Store) *Registry {
	r := NewRegistry(store, sheet)
	n := 0
	r.newID = func() string {
		n++
		return []string{"note-1", "note-2", "note-3"}[n-1]
	}
	return r
}

func TestNewValidates(t *testing.T) {
	r := newTestRegistry(tabular.NewMemory())

	_, err := r.New("", "content", "", models.EntityRef{Kind: models.EntityClient, ID: "0001"}, noteDate)
	assert.ErrorIs(t, err, models.ErrEmptyNote)

	_, err = r.New("title", "content", "", models.EntityRef{Kind: models.EntityClient}, noteDate)
	assert.ErrorIs(t, err, models.ErrInvalidNoteEntity)

	_, err = r.New("title", "content", "", models.EntityRef{ID: "0001"}, noteDate)
	assert.ErrorIs(t, err, models.ErrInvalidNoteEntity)

	note, err := r.New("title", "content", "anna", models.EntityRef{Kind: models.EntityClient, ID: "0001"}, noteDate)
	require.NoError(t, err)
	assert.Equal(t, "note-1", note.ID)
}

func TestRow(t *testing.T) {
	inv := &models.Invoice{ID: "F123", ClientID: "0042"}
	note, err := models.NewNote("Sollecito", "Chiamato il cliente", "anna", models.InvoiceRef(inv), noteDate)
	require.NoError(t, err)
	note.ID = "abc"

	row, err := Row(note)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"abc", "", "0042", "06/05/2024", "anna", "Sollecito", "Chiamato il cliente", Visible}, row)

	vendorNote, err := models.NewNote("t", "c", "", models.VendorRef(&models.Vendor{ID: "0007"}), noteDate)
	require.NoError(t, err)
	row, err = Row(vendorNote)
	require.NoError(t, err)
	assert.Equal(t, "0007", row[schema.NoteRegistry.Index(schema.NoteVendorID)])
	assert.Equal(t, "", row[schema.NoteRegistry.Index(schema.NoteClientID)])
}

func TestAddAndForClient(t *testing.T) {
	ctx := context.Background()
	store := tabular.NewMemory()
	r := newTestRegistry(store)

	for _, ref := range []models.EntityRef{
		{Kind: models.EntityClient, ID: "0001"},
		{Kind: models.EntityInvoice, ID: "F9", Parent: "0001"},
		{Kind: models.EntityClient, ID: "0002"},
	} {
		note, err := r.New("titolo", "contenuto", "", ref, noteDate)
		require.NoError(t, err)
		require.NoError(t, r.Add(ctx, note))
	}

	table, err := store.ReadAll(ctx, sheet)
	require.NoError(t, err)
	assert.Equal(t, schema.NoteRegistry.Headers(), table.Header)
	assert.Len(t, table.Rows, 3)

	notes, err := r.ForClient(ctx, "0001")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "note-1", notes[0].ID)
	assert.Equal(t, "note-2", notes[1].ID)
	assert.True(t, notes[0].CreatedAt.Equal(noteDate))
}

func TestForClientMissingRegistry(t *testing.T) {
	notes, err := newTestRegistry(tabular.NewMemory()).ForClient(context.Background(), "0001")
	require.NoError(t, err)
	assert.Empty(t, notes)
}
