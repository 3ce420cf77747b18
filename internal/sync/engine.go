package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lakerscorp/courier-sync/internal/store"
	"github.com/lakerscorp/courier-sync/internal/telemetry"
	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for the reconciliation pass.
const (
	defaultWorkers       = 10
	defaultCreationDelay = 500 * time.Millisecond
)

// Stats summarizes one reconciliation pass. It is reported to the caller
// even when the pass ends with partial failures.
type Stats struct {
	Processed           int
	Succeeded           int
	Failed              int
	Skipped             int
	ShipmentsCreated    int
	DeliveredPropagated int
}

// Merge adds other's counts into s.
func (s *Stats) Merge(other Stats) {
	s.Processed += other.Processed
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.ShipmentsCreated += other.ShipmentsCreated
	s.DeliveredPropagated += other.DeliveredPropagated
}

// counters collects pass counts from concurrent item workers.
type counters struct {
	processed  atomic.Int64
	succeeded  atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
	propagated atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Processed:           int(c.processed.Load()),
		Succeeded:           int(c.succeeded.Load()),
		Failed:              int(c.failed.Load()),
		Skipped:             int(c.skipped.Load()),
		DeliveredPropagated: int(c.propagated.Load()),
	}
}

// Config tunes the reconciliation engine.
type Config struct {
	// Workers caps concurrent in-flight remote status fetches.
	Workers int

	// CreationDelay is the pause between sequential shipment creations,
	// keeping the remote API from being hammered.
	CreationDelay time.Duration
}

// Engine reconciles local orders with one courier. Per-item failures never
// abort the batch; only credential failures and the inability to scan the
// store end the pass early.
type Engine struct {
	provider courier.Provider
	store    store.RecordStore
	scanner  *Scanner
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics

	workers       int
	creationDelay time.Duration
	now           func() time.Time
}

// NewEngine creates a reconciliation engine for one courier.
func NewEngine(provider courier.Provider, st store.RecordStore, cfg Config, logger *otelzap.Logger, metrics *telemetry.Metrics) *Engine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	delay := cfg.CreationDelay
	if delay == 0 {
		delay = defaultCreationDelay
	}

	return &Engine{
		provider:      provider,
		store:         st,
		scanner:       NewScanner(st, provider.StatusMap()),
		logger:        logger,
		metrics:       metrics,
		workers:       workers,
		creationDelay: delay,
		now:           time.Now,
	}
}

// Run executes a full reconciliation pass: create missing shipments, then
// refresh delivery statuses. A summary is returned even on partial failure.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	var total Stats

	created, err := e.CreateShipments(ctx)
	total.Merge(created)
	if err != nil {
		return total, err
	}

	refreshed, err := e.RefreshStatuses(ctx)
	total.Merge(refreshed)
	return total, err
}

// CreateShipments registers a shipment for every order that is ready to
// ship and has no tracking id yet. Items are processed sequentially with a
// short pause between remote calls.
func (e *Engine) CreateShipments(ctx context.Context) (Stats, error) {
	log := e.logger.Ctx(ctx)
	var stats Stats

	items, err := e.scanner.NeedsShipment(ctx)
	if err != nil {
		e.metrics.RecordPass(e.provider.Name(), "create", "error")
		return stats, err
	}
	if len(items) == 0 {
		log.Info("No orders pending shipment creation", zap.String("courier", e.provider.Name()))
		return stats, nil
	}

	log.Info("Creating pending shipments",
		zap.String("courier", e.provider.Name()),
		zap.Int("count", len(items)),
	)

	for i, item := range items {
		stats.Processed++

		resp, err := e.provider.CreateShipment(ctx, &courier.CreateShipmentRequest{
			OrderID:      item.OrderID,
			TicketSeries: item.TicketSeries,
			StoreOrderID: item.StoreOrderID,
			Reference:    item.OrderID,
		})
		if err != nil {
			if courier.IsAuth(err) {
				e.metrics.RecordPass(e.provider.Name(), "create", "auth_error")
				return stats, fmt.Errorf("creating shipment for order %s: %w", item.OrderID, err)
			}
			stats.Failed++
			e.metrics.RecordItem(e.provider.Name(), "create_failed")
			log.Error("Failed to create shipment",
				zap.String("order_id", item.OrderID),
				zap.Error(err),
			)
			continue
		}

		if err := e.store.AssignTracking(ctx, item.OrderID, item.TicketSeries, resp.TrackingID, resp.GroupID); err != nil {
			stats.Failed++
			e.metrics.RecordItem(e.provider.Name(), "create_failed")
			log.Error("Failed to record tracking id",
				zap.String("order_id", item.OrderID),
				zap.String("tracking_id", resp.TrackingID),
				zap.Error(err),
			)
			continue
		}

		stats.Succeeded++
		stats.ShipmentsCreated++
		e.metrics.RecordItem(e.provider.Name(), "created")
		log.Info("Shipment created",
			zap.String("order_id", item.OrderID),
			zap.String("tracking_id", resp.TrackingID),
		)

		if i < len(items)-1 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(e.creationDelay):
			}
		}
	}

	e.metrics.RecordPass(e.provider.Name(), "create", "ok")
	return stats, nil
}

// RefreshStatuses polls the courier for every tracked, non-terminal order
// and persists the normalized status. Fetches fan out concurrently, capped
// by the worker limit; each item is owned by exactly one worker, so no two
// writes target the same tracking id within a pass.
func (e *Engine) RefreshStatuses(ctx context.Context) (Stats, error) {
	log := e.logger.Ctx(ctx)

	items, err := e.scanner.NeedsStatusRefresh(ctx)
	if err != nil {
		e.metrics.RecordPass(e.provider.Name(), "refresh", "error")
		return Stats{}, err
	}
	if len(items) == 0 {
		log.Info("No orders pending status refresh", zap.String("courier", e.provider.Name()))
		return Stats{}, nil
	}

	log.Info("Refreshing delivery statuses",
		zap.String("courier", e.provider.Name()),
		zap.Int("count", len(items)),
		zap.Int("workers", e.workers),
	)

	var (
		cnt     counters
		mu      sync.Mutex
		itemErr *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, item := range items {
		item := item
		g.Go(func() error {
			cnt.processed.Inc()

			err := e.refreshItem(gctx, item, &cnt)
			if err == nil {
				return nil
			}
			// Credential failures are provider-wide: abort the pass.
			if courier.IsAuth(err) {
				return err
			}
			mu.Lock()
			itemErr = multierror.Append(itemErr, fmt.Errorf("order %s: %w", item.OrderID, err))
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.metrics.RecordPass(e.provider.Name(), "refresh", "auth_error")
		return cnt.snapshot(), fmt.Errorf("refreshing statuses: %w", err)
	}

	stats := cnt.snapshot()
	if itemErr.ErrorOrNil() != nil {
		log.Warn("Status refresh finished with item errors",
			zap.String("courier", e.provider.Name()),
			zap.Int("errors", itemErr.Len()),
			zap.Error(itemErr),
		)
	}

	e.metrics.RecordPass(e.provider.Name(), "refresh", "ok")
	return stats, nil
}

// refreshItem walks a single work item through fetch, map, persist, and
// delivered propagation. The returned error is nil when the item was
// handled, including the skip cases.
func (e *Engine) refreshItem(ctx context.Context, item store.WorkItem, cnt *counters) error {
	log := e.logger.Ctx(ctx)

	fetchStart := e.now()
	remote, err := e.provider.TrackingStatus(ctx, item.TrackingID)
	e.metrics.ObserveFetch(e.provider.Name(), e.now().Sub(fetchStart).Seconds())
	if err != nil {
		switch {
		case courier.IsAuth(err):
			return err
		case courier.IsNotFound(err):
			// Not yet known remotely; the item stays pending for the
			// next pass.
			cnt.skipped.Inc()
			e.metrics.RecordItem(e.provider.Name(), "skipped_not_found")
			log.Info("Tracking id not known to courier yet",
				zap.String("tracking_id", item.TrackingID),
			)
			return nil
		default:
			cnt.skipped.Inc()
			e.metrics.RecordItem(e.provider.Name(), "skipped_transient")
			log.Warn("Transient fetch failure, item left pending",
				zap.String("tracking_id", item.TrackingID),
				zap.Error(err),
			)
			return err
		}
	}

	text, code := e.provider.StatusMap().Map(remote.RawStatus)
	status := store.PersistedStatus{
		Text: text,
		Code: code,
		Date: remote.LatestEventTime(e.now()),
	}

	if err := e.store.UpdateShipmentStatus(ctx, item.TrackingID, status); err != nil {
		cnt.failed.Inc()
		e.metrics.RecordItem(e.provider.Name(), "persist_failed")
		log.Error("Failed to persist status",
			zap.String("tracking_id", item.TrackingID),
			zap.String("status", text),
			zap.Error(err),
		)
		return err
	}

	e.metrics.RecordItem(e.provider.Name(), "persisted")

	// The item counts as succeeded only once propagation is through, so a
	// propagation failure is not double-counted as both outcomes.
	if code == e.provider.StatusMap().DeliveredCode() {
		if err := e.propagateDelivered(ctx, item, status.Date, cnt); err != nil {
			return err
		}
	}
	cnt.succeeded.Inc()
	return nil
}

// propagateDelivered flips the e-commerce delivered flag for orders tracked
// in the secondary table. Absence of the row and an already-set flag are
// both valid states, not errors.
func (e *Engine) propagateDelivered(ctx context.Context, item store.WorkItem, at time.Time, cnt *counters) error {
	log := e.logger.Ctx(ctx)

	if item.TicketSeries == "" {
		log.Warn("Delivered order has no ticket series, cannot propagate",
			zap.String("order_id", item.OrderID),
		)
		return nil
	}

	exists, err := e.store.EcommerceRowExists(ctx, item.OrderID, item.TicketSeries)
	if err != nil {
		cnt.failed.Inc()
		e.metrics.RecordItem(e.provider.Name(), "propagate_failed")
		return err
	}
	if !exists {
		// The order was never tracked in the e-commerce table.
		log.Info("Order not tracked in e-commerce table, no propagation needed",
			zap.String("order_id", item.OrderID),
		)
		return nil
	}

	flipped, err := e.store.MarkDelivered(ctx, item.OrderID, item.TicketSeries, at)
	if err != nil {
		cnt.failed.Inc()
		e.metrics.RecordItem(e.provider.Name(), "propagate_failed")
		log.Error("Failed to mark order delivered",
			zap.String("order_id", item.OrderID),
			zap.Error(err),
		)
		return err
	}
	if flipped {
		cnt.propagated.Inc()
		e.metrics.RecordDelivered(e.provider.Name())
		log.Info("Order marked delivered in e-commerce table",
			zap.String("order_id", item.OrderID),
		)
	}
	return nil
}

// ResyncTerminal is the one-off catch-up for orders already persisted as
// delivered whose e-commerce flag was missed, e.g. when a previous pass
// died between the primary and secondary writes.
func (e *Engine) ResyncTerminal(ctx context.Context) (Stats, error) {
	log := e.logger.Ctx(ctx)
	var stats Stats

	items, err := e.store.DeliveredUnpropagated(ctx, e.provider.StatusMap().DeliveredCode())
	if err != nil {
		return stats, err
	}
	if len(items) == 0 {
		log.Info("No delivered orders missing propagation", zap.String("courier", e.provider.Name()))
		return stats, nil
	}

	for _, item := range items {
		stats.Processed++
		flipped, err := e.store.MarkDelivered(ctx, item.OrderID, item.TicketSeries, e.now())
		if err != nil {
			stats.Failed++
			log.Error("Failed to backfill delivered flag",
				zap.String("order_id", item.OrderID),
				zap.Error(err),
			)
			continue
		}
		stats.Succeeded++
		if flipped {
			stats.DeliveredPropagated++
			e.metrics.RecordDelivered(e.provider.Name())
		}
	}

	log.Info("Terminal resynchronization finished",
		zap.String("courier", e.provider.Name()),
		zap.Int("processed", stats.Processed),
		zap.Int("propagated", stats.DeliveredPropagated),
	)
	return stats, nil
}

// ItemStatus is the report for a single-shipment query.
type ItemStatus struct {
	TrackingID string
	RawStatus  string
	StatusText string
	StatusCode int
	StatusDate time.Time
	Local      *store.WorkItem // nil when the tracking id is unknown locally
}

// QueryOne fetches and maps the remote status of one tracking id without
// persisting anything.
func (e *Engine) QueryOne(ctx context.Context, trackingID string) (*ItemStatus, error) {
	remote, err := e.provider.TrackingStatus(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	text, code := e.provider.StatusMap().Map(remote.RawStatus)
	local, err := e.store.FindByTracking(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	return &ItemStatus{
		TrackingID: trackingID,
		RawStatus:  remote.RawStatus,
		StatusText: text,
		StatusCode: code,
		StatusDate: remote.LatestEventTime(e.now()),
		Local:      local,
	}, nil
}
