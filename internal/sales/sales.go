// Package sales pushes unsynced sales invoices to the reporting backend and
// flags them synced once the backend accepts them.
package sales

import (
	"context"
	"time"
)

// InvoiceLine is one line of a sales invoice.
type InvoiceLine struct {
	LineNo    int     `json:"line_no"`
	SKU       string  `json:"sku"`
	Quantity  float64 `json:"quantity"`
	NetAmount float64 `json:"net_amount"`
	TaxAmount float64 `json:"tax_amount"`
}

// Invoice is a sales invoice header with its lines.
type Invoice struct {
	Number     string        `json:"number"`
	CustomerID string        `json:"customer_id"`
	IssuedAt   time.Time     `json:"issued_at"`
	NetAmount  float64       `json:"net_amount"`
	TaxAmount  float64       `json:"tax_amount"`
	Lines      []InvoiceLine `json:"lines"`
}

// Rejection is one invoice the backend refused, with its reason.
type Rejection struct {
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// PushResult reports which invoices of a batch the backend accepted.
type PushResult struct {
	Accepted []string    `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// ReportingClient talks to the sales reporting backend. Authentication is
// handled internally; the token is obtained per run.
type ReportingClient interface {
	// Push submits a batch of invoices. Per-invoice rejections come back in
	// the result; the error is reserved for batch-level failures.
	Push(ctx context.Context, invoices []Invoice) (*PushResult, error)
}

// InvoiceSource reads unsynced invoices from the order database and flags
// them once the backend accepts them.
type InvoiceSource interface {
	// Unsynced returns every invoice not yet pushed, lines attached.
	Unsynced(ctx context.Context) ([]Invoice, error)

	// MarkSynced flags the listed invoice numbers as pushed.
	MarkSynced(ctx context.Context, numbers []string) error
}
