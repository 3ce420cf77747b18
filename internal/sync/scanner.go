// Package sync implements the courier reconciliation pass: scan pending
// work, fetch remote statuses, normalize and persist them, and propagate
// delivered orders to the e-commerce status table.
package sync

import (
	"context"
	"fmt"

	"github.com/lakerscorp/courier-sync/internal/store"
	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/samber/lo"
)

// Scanner finds the work items for one reconciliation pass. The queries are
// stable: two scans without intervening writes return the same set.
type Scanner struct {
	store    store.RecordStore
	statuses *courier.StatusMap
}

// NewScanner creates a scanner bound to a courier's status vocabulary.
func NewScanner(st store.RecordStore, statuses *courier.StatusMap) *Scanner {
	return &Scanner{store: st, statuses: statuses}
}

// NeedsShipment returns orders ready to ship with no tracking id assigned.
func (s *Scanner) NeedsShipment(ctx context.Context) ([]store.WorkItem, error) {
	items, err := s.store.PendingShipments(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning orders needing shipment: %w", err)
	}

	return lo.Filter(items, func(it store.WorkItem, _ int) bool {
		return it.OrderID != ""
	}), nil
}

// NeedsStatusRefresh returns tracked orders whose last known status is not
// terminal for this courier and not the courier's withdrawn state.
func (s *Scanner) NeedsStatusRefresh(ctx context.Context) ([]store.WorkItem, error) {
	items, err := s.store.PendingStatusRefresh(ctx, s.statuses.TerminalCodes(), s.statuses.WithdrawnState())
	if err != nil {
		return nil, fmt.Errorf("scanning orders needing status refresh: %w", err)
	}

	return lo.Filter(items, func(it store.WorkItem, _ int) bool {
		return it.TrackingID != ""
	}), nil
}
