package labels

import (
	"context"
	"time"

	"github.com/lakerscorp/courier-sync/internal/store"
	"github.com/lakerscorp/courier-sync/internal/telemetry"
	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const defaultFetchDelay = 500 * time.Millisecond

// Stats summarizes one label dispatch pass.
type Stats struct {
	Processed int
	Printed   int
	Failed    int
}

// Dispatcher fetches pending labels from one courier and feeds them to the
// print sink. Items are handled sequentially; a failed item is logged and
// retried on the next pass, never aborting the batch.
type Dispatcher struct {
	provider courier.Provider
	store    store.RecordStore
	sink     PrintSink
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics

	fetchDelay time.Duration
}

// NewDispatcher creates a label dispatcher for one courier.
func NewDispatcher(provider courier.Provider, st store.RecordStore, sink PrintSink, logger *otelzap.Logger, metrics *telemetry.Metrics) *Dispatcher {
	return &Dispatcher{
		provider:   provider,
		store:      st,
		sink:       sink,
		logger:     logger,
		metrics:    metrics,
		fetchDelay: defaultFetchDelay,
	}
}

// SetFetchDelay overrides the pause between per-item remote fetches.
func (d *Dispatcher) SetFetchDelay(delay time.Duration) {
	d.fetchDelay = delay
}

// Run dispatches every unprinted label. The printed flag is flipped only
// after the sink accepts the label, so a crash mid-pass re-dispatches at
// most the in-flight item.
func (d *Dispatcher) Run(ctx context.Context) (Stats, error) {
	log := d.logger.Ctx(ctx)
	var stats Stats

	items, err := d.store.UnprintedLabels(ctx)
	if err != nil {
		return stats, err
	}
	if len(items) == 0 {
		log.Info("No labels pending dispatch", zap.String("courier", d.provider.Name()))
		return stats, nil
	}

	log.Info("Dispatching labels",
		zap.String("courier", d.provider.Name()),
		zap.Int("count", len(items)),
	)

	for i, item := range items {
		stats.Processed++

		if err := d.dispatchOne(ctx, item); err != nil {
			stats.Failed++
			log.Error("Failed to dispatch label",
				zap.String("order_id", item.OrderID),
				zap.String("tracking_id", item.TrackingID),
				zap.Error(err),
			)
		} else {
			stats.Printed++
			d.metrics.RecordLabelPrinted(d.provider.Name())
		}

		if i < len(items)-1 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(d.fetchDelay):
			}
		}
	}

	log.Info("Label dispatch finished",
		zap.String("courier", d.provider.Name()),
		zap.Int("printed", stats.Printed),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, item store.WorkItem) error {
	label, err := d.provider.FetchLabel(ctx, &courier.FetchLabelRequest{
		TrackingID: item.TrackingID,
		GroupID:    item.GroupID,
	})
	if err != nil {
		return err
	}
	if err := d.sink.Dispatch(ctx, label); err != nil {
		return err
	}
	return d.store.MarkLabelPrinted(ctx, item.OrderID)
}
