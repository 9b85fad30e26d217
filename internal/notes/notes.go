// Package notes stores free-text notes about invoices, clients and vendors in the note registry sheet.
package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpsheets/internal/logger"
	"erpsheets/internal/sanitize"
	"erpsheets/internal/schema"
	"erpsheets/internal/tabular"
	"erpsheets/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Visibility flags persisted in the registry.
const (
	Visible = "Si"
	Hidden  = "No"
)

// Registry appends notes to, and reads notes from, a note registry sheet.
type Registry struct {
	store tabular.Store
	sheet string
	newID func() string
	log   zerolog.Logger
}

// NewRegistry creates a registry over the named sheet of store.
func NewRegistry(store tabular.Store, sheet string) *Registry {
	return &Registry{
		store: store,
		sheet: sheet,
		newID: func() string { return uuid.NewString() },
		log:   logger.WithComponent("notes"),
	}
}

// New validates a note and assigns it a fresh identifier.
func (r *Registry) New(title, content, author string, owner models.EntityRef, at time.Time) (models.Note, error) {
	note, err := models.NewNote(title, content, author, owner, at)
	if err != nil {
		return models.Note{}, err
	}
	note.ID = r.newID()
	return note, nil
}

// Add appends note to the registry, creating the sheet with its header when it does not exist.
func (r *Registry) Add(ctx context.Context, note models.Note) error {
	const op = "Notes.Add"

	row, err := Row(note)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.store.Append(ctx, r.sheet, [][]interface{}{row})
	var notFound *tabular.NotFoundError
	if errors.As(err, &notFound) {
		r.log.Info().Str("sheet", r.sheet).Msg("Creating note registry")
		err = r.store.Write(ctx, r.sheet, schema.NoteRegistry.Headers(), [][]interface{}{row}, tabular.WriteOptions{ClearExisting: true})
	}
	if err != nil {
		return fmt.Errorf("%s: failed to store note %s: %w", op, note.ID, err)
	}

	r.log.Info().
		Str("note_id", note.ID).
		Str("owner", note.Owner.Kind.String()).
		Str("owner_id", note.Owner.ID).
		Msg("Note registered")
	return nil
}

// Row maps a note to the note registry layout. Invoice notes are filed under their owning client.
func Row(note models.Note) ([]interface{}, error) {
	row := schema.NoteRegistry.NewRow()
	row[schema.NoteRegistry.Index(schema.NoteID)] = note.ID

	switch note.Owner.Kind {
	case models.EntityVendor:
		row[schema.NoteRegistry.Index(schema.NoteVendorID)] = note.Owner.ID
	case models.EntityClient:
		row[schema.NoteRegistry.Index(schema.NoteClientID)] = note.Owner.ID
	case models.EntityInvoice:
		if note.Owner.Parent == "" {
			return nil, models.NewProcessingError("Row", models.ErrInvalidNoteEntity, "invoice note without client")
		}
		row[schema.NoteRegistry.Index(schema.NoteClientID)] = note.Owner.Parent
	default:
		return nil, models.NewProcessingError("Row", models.ErrInvalidNoteEntity, note.Owner.Kind.String())
	}

	row[schema.NoteRegistry.Index(schema.NoteCreatedAt)] = note.CreatedAt.Format(schema.DateLayout)
	row[schema.NoteRegistry.Index(schema.NoteAuthor)] = note.Author
	row[schema.NoteRegistry.Index(schema.NoteTitle)] = note.Title
	row[schema.NoteRegistry.Index(schema.NoteContent)] = note.Content
	row[schema.NoteRegistry.Index(schema.NoteVisible)] = Visible
	return row, nil
}

// ForClient returns the visible notes filed under clientID, oldest first.
// A missing registry yields no notes.
func (r *Registry) ForClient(ctx context.Context, clientID string) ([]models.Note, error) {
	const op = "Notes.ForClient"

	table, err := r.store.ReadAll(ctx, r.sheet)
	var notFound *tabular.NotFoundError
	if errors.As(err, &notFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cols, err := schema.NewHeaderMap(table.Header).Resolve(schema.NoteRegistry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out []models.Note
	for i, row := range table.Rows {
		cell := func(key string) interface{} { return schema.Cell(row, cols[key]) }

		owner, err := sanitize.ClientVendorID(cell(schema.NoteClientID))
		if err != nil || owner != clientID {
			continue
		}
		if sanitize.Text(cell(schema.NoteVisible)) == Hidden {
			continue
		}

		created, err := sanitize.Date(cell(schema.NoteCreatedAt))
		if err != nil {
			r.log.Warn().Err(err).Int("row", i+2).Msg("Note with invalid creation date")
		}

		out = append(out, models.Note{
			ID:        sanitize.Text(cell(schema.NoteID)),
			Title:     sanitize.Text(cell(schema.NoteTitle)),
			Content:   sanitize.Text(cell(schema.NoteContent)),
			Author:    sanitize.Text(cell(schema.NoteAuthor)),
			Owner:     models.EntityRef{Kind: models.EntityClient, ID: owner},
			CreatedAt: created,
		})
	}
	return out, nil
}
