package models

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind is the kind of entity a note is attached to.
type EntityKind int

const (
	EntityInvoice EntityKind = iota + 1
	EntityClient
	EntityVendor
)

// String returns the upper-case tag persisted in the note registry.
func (k EntityKind) String() string {
	switch k {
	case EntityInvoice:
		return "INVOICE"
	case EntityClient:
		return "CLIENT"
	case EntityVendor:
		return "VENDOR"
	default:
		return fmt.Sprintf("EntityKind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its tag.
func (k EntityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseEntityKind parses a tag produced by String, case-insensitively.
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INVOICE":
		return EntityInvoice, nil
	case "CLIENT":
		return EntityClient, nil
	case "VENDOR":
		return EntityVendor, nil
	default:
		return 0, NewProcessingError("ParseEntityKind", ErrInvalidNoteEntity, s)
	}
}

// EntityRef identifies the owner of a note. Parent carries the owning client of an invoice.
type EntityRef struct {
	Kind   EntityKind `json:"kind"`
	ID     string     `json:"id"`
	Parent string     `json:"parent,omitempty"`
}

// InvoiceRef references an invoice.
func InvoiceRef(inv *Invoice) EntityRef {
	return EntityRef{Kind: EntityInvoice, ID: inv.ID, Parent: inv.ClientID}
}

// ClientRef references a client.
func ClientRef(c *Client) EntityRef {
	return EntityRef{Kind: EntityClient, ID: c.ID}
}

// VendorRef references a vendor.
func VendorRef(v *Vendor) EntityRef {
	return EntityRef{Kind: EntityVendor, ID: v.ID}
}

// Note is a free-text annotation attached to an invoice, client or vendor.
type Note struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	Owner     EntityRef `json:"owner"`
	CreatedAt time.Time `json:"date"`
}

// NewNote validates and builds a note. Title and content are mandatory, and so are the owner's kind and ID.
func NewNote(title, content, author string, owner EntityRef, at time.Time) (Note, error) {
	const op = "NewNote"

	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return Note{}, NewProcessingError(op, ErrEmptyNote, "title and content are required")
	}

	switch owner.Kind {
	case EntityInvoice, EntityClient, EntityVendor:
	default:
		return Note{}, NewProcessingError(op, ErrInvalidNoteEntity, owner.Kind.String())
	}
	if strings.TrimSpace(owner.ID) == "" {
		return Note{}, NewProcessingError(op, ErrInvalidNoteEntity, "missing entity id")
	}

	return Note{
		Title:     title,
		Content:   content,
		Author:    author,
		Owner:     owner,
		CreatedAt: at,
	}, nil
}
