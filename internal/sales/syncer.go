package sales

import (
	"context"

	"github.com/lakerscorp/courier-sync/internal/telemetry"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Stats summarizes one invoice sync run.
type Stats struct {
	Scanned  int
	Accepted int
	Rejected int
}

// Syncer pushes unsynced invoices to the reporting backend in one batch and
// flags the accepted ones. Rejected invoices are logged and retried on the
// next run; they never abort the batch.
type Syncer struct {
	source  InvoiceSource
	client  ReportingClient
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
}

// NewSyncer creates an invoice syncer.
func NewSyncer(source InvoiceSource, client ReportingClient, logger *otelzap.Logger, metrics *telemetry.Metrics) *Syncer {
	return &Syncer{source: source, client: client, logger: logger, metrics: metrics}
}

// Run pushes every unsynced invoice.
func (s *Syncer) Run(ctx context.Context) (Stats, error) {
	log := s.logger.Ctx(ctx)
	var stats Stats

	invoices, err := s.source.Unsynced(ctx)
	if err != nil {
		return stats, err
	}
	stats.Scanned = len(invoices)
	if len(invoices) == 0 {
		log.Info("No invoices pending sync")
		return stats, nil
	}

	log.Info("Pushing invoice batch", zap.Int("count", len(invoices)))

	result, err := s.client.Push(ctx, invoices)
	if err != nil {
		return stats, err
	}

	stats.Accepted = len(result.Accepted)
	stats.Rejected = len(result.Rejected)

	for _, rej := range result.Rejected {
		s.metrics.RecordInvoice("rejected")
		log.Warn("Invoice rejected by reporting backend",
			zap.String("invoice_number", rej.InvoiceNumber),
			zap.String("reason", rej.Reason),
		)
	}

	if len(result.Accepted) > 0 {
		if err := s.source.MarkSynced(ctx, result.Accepted); err != nil {
			return stats, err
		}
		for range result.Accepted {
			s.metrics.RecordInvoice("accepted")
		}
	}

	log.Info("Invoice sync finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("accepted", stats.Accepted),
		zap.Int("rejected", stats.Rejected),
	)
	return stats, nil
}
