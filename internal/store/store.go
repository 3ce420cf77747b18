// Package store persists shipment orders and their delivery state.
package store

import (
	"context"
	"errors"
	"time"
)

// WorkItem is one order needing shipment creation or status refresh.
// It is a snapshot taken by the scanner queries, immutable for the duration
// of one reconciliation pass. Identifiers are trimmed on the way out of the
// database; the legacy primary table carries incidental leading whitespace.
type WorkItem struct {
	OrderID      string
	TicketSeries string // looser secondary correlation key (ticket/batch series)
	StoreOrderID string // e-commerce platform order id
	TrackingID   string // empty until a shipment is created
	GroupID      string // courier label-grouping id, may be empty
	StatusCode   *int   // last persisted status code, nil when never synced
}

// PersistedStatus is the set of row-level status fields written back to the
// primary table for a shipment.
type PersistedStatus struct {
	Text string
	Code int
	Date time.Time
}

// ErrNoConnection indicates the store could not obtain any connection.
// This aborts the whole pass, unlike per-row failures.
var ErrNoConnection = errors.New("record store: no database connection")

// RecordStore is the persistence contract used by the reconciliation engine.
// Implementations must use parameterized queries exclusively and wrap writes
// with the transient-conflict retry policy.
type RecordStore interface {
	// PendingShipments returns orders flagged ready to ship that have no
	// tracking id assigned yet.
	PendingShipments(ctx context.Context) ([]WorkItem, error)

	// PendingStatusRefresh returns orders with a tracking id whose last
	// known status code is not in terminalCodes and whose status text is
	// not withdrawnState (when non-empty).
	PendingStatusRefresh(ctx context.Context, terminalCodes []int, withdrawnState string) ([]WorkItem, error)

	// AssignTracking records the tracking and group ids for a freshly
	// created shipment.
	AssignTracking(ctx context.Context, orderID, ticketSeries, trackingID, groupID string) error

	// UpdateShipmentStatus persists status fields keyed by tracking id.
	UpdateShipmentStatus(ctx context.Context, trackingID string, status PersistedStatus) error

	// EcommerceRowExists reports whether the secondary completion table has
	// a row for the (orderID, ticketSeries) pair. Absence is a valid
	// business state, not an error.
	EcommerceRowExists(ctx context.Context, orderID, ticketSeries string) (bool, error)

	// MarkDelivered flips the completion flag on the secondary table.
	// Returns false without error when the row was already flagged: the
	// flag is only ever flipped once and re-runs are no-ops.
	MarkDelivered(ctx context.Context, orderID, ticketSeries string, at time.Time) (bool, error)

	// DeliveredUnpropagated returns orders already persisted with
	// deliveredCode whose secondary row exists but is not flagged yet.
	// Used by the one-off terminal resynchronization.
	DeliveredUnpropagated(ctx context.Context, deliveredCode int) ([]WorkItem, error)

	// UnprintedLabels returns shipments with a tracking id whose label has
	// not been dispatched to the print sink yet.
	UnprintedLabels(ctx context.Context) ([]WorkItem, error)

	// MarkLabelPrinted flags an order's label as dispatched.
	MarkLabelPrinted(ctx context.Context, orderID string) error

	// FindByTracking returns the order owning a tracking id, or nil when
	// the tracking id is unknown locally.
	FindByTracking(ctx context.Context, trackingID string) (*WorkItem, error)
}
