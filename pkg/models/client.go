package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAgent is used when a client has no assigned agent.
const DefaultAgent = "N/A"

// DefaultOverdueAfterDays is how old an unpaid invoice must be before it counts as overdue in client totals.
const DefaultOverdueAfterDays = 60

// Client aggregates the invoices of one customer. Invoices are unique by ID and kept in insertion order.
type Client struct {
	ID       string     `json:"uuid"`
	Name     string     `json:"name"`
	Agent    string     `json:"agent"`
	Invoices []*Invoice `json:"invoices"`
	Notes    []Note     `json:"notes,omitempty"`
	Phone    string     `json:"phoneNumber,omitempty"`
	Mail     string     `json:"mail,omitempty"`
	Location string     `json:"location,omitempty"`
}

// NewClient creates a client with no invoices.
func NewClient(id, name, agent string) *Client {
	if agent == "" {
		agent = DefaultAgent
	}
	return &Client{
		ID:       id,
		Name:     name,
		Agent:    agent,
		Invoices: []*Invoice{},
	}
}

// HasInvoice reports whether an invoice with the given ID is already attached.
func (c *Client) HasInvoice(id string) bool {
	for _, inv := range c.Invoices {
		if inv.ID == id {
			return true
		}
	}
	return false
}

// AddInvoice appends inv unless an invoice with the same ID exists. It reports whether inv was added.
func (c *Client) AddInvoice(inv *Invoice) bool {
	if c.HasInvoice(inv.ID) {
		return false
	}
	c.Invoices = append(c.Invoices, inv)
	return true
}

// TotalLeftToPay sums the residual of every invoice.
func (c *Client) TotalLeftToPay() float64 {
	sum := decimal.Zero
	for _, inv := range c.Invoices {
		sum = sum.Add(decimal.NewFromFloat(inv.LeftToPay))
	}
	return sum.InexactFloat64()
}

// TotalPaid sums the paid amount of every invoice.
func (c *Client) TotalPaid() float64 {
	sum := decimal.Zero
	for _, inv := range c.Invoices {
		sum = sum.Add(decimal.NewFromFloat(inv.Paid))
	}
	return sum.InexactFloat64()
}

// TotalOverdue sums the residual of unpaid invoices (credit notes excluded) issued more than
// afterDays calendar days before at.
func (c *Client) TotalOverdue(at time.Time, afterDays int) float64 {
	sum := decimal.Zero
	for _, inv := range c.Invoices {
		if inv.Status == StatusPaid || inv.Type != DocumentTypeInvoice {
			continue
		}
		if inv.IssueDate.IsZero() {
			continue
		}
		if DaysBetween(inv.IssueDate, at) > afterDays {
			sum = sum.Add(decimal.NewFromFloat(inv.LeftToPay))
		}
	}
	return sum.InexactFloat64()
}

// Vendor is a supplier. It only appears as the owner of notes.
type Vendor struct {
	ID       string     `json:"uuid"`
	Name     string     `json:"name"`
	Notes    []Note     `json:"notes,omitempty"`
	Invoices []*Invoice `json:"invoices,omitempty"`
	Phone    string     `json:"phoneNumber,omitempty"`
	Mail     string     `json:"mail,omitempty"`
	Location string     `json:"location,omitempty"`
}
