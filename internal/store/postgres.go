package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Postgres implements RecordStore against the orders database.
type Postgres struct {
	db           *sql.DB
	retry        RetryPolicy
	logger       *otelzap.Logger
	ticketSeries []string
}

// Config holds Postgres store configuration.
type Config struct {
	DatabaseURL  string
	TicketSeries []string // series included in the needs-shipment scan
	Retry        RetryPolicy
}

// shipping method eligible for courier dispatch
const methodHomeDelivery = "DOMICILIO"

// Open connects to the orders database and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *otelzap.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoConnection, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrNoConnection, err)
	}

	retry := cfg.Retry
	if retry.Attempts == 0 {
		retry = DefaultRetryPolicy
	}

	p := &Postgres{db: db, retry: retry, logger: logger}
	p.ticketSeries = cfg.TicketSeries
	return p, nil
}

// NewWithDB wraps an existing handle; used by tests and by the sales syncer
// which shares the connection pool.
func NewWithDB(db *sql.DB, retry RetryPolicy, logger *otelzap.Logger) *Postgres {
	if retry.Attempts == 0 {
		retry = DefaultRetryPolicy
	}
	return &Postgres{db: db, retry: retry, logger: logger}
}

var _ RecordStore = (*Postgres)(nil)

// DB exposes the underlying handle for collaborators sharing the pool.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// PendingShipments returns home-delivery orders in the configured ticket
// series with no tracking id yet.
func (p *Postgres) PendingShipments(ctx context.Context) ([]WorkItem, error) {
	in, args := InClause(2, p.ticketSeries)
	query := fmt.Sprintf(`
		SELECT order_id, ticket_series, COALESCE(store_order_id, '')
		FROM shipment_orders
		WHERE tracking_id IS NULL
		  AND shipping_method = $1
		  AND ticket_series IN %s`, in)

	rows, err := p.db.QueryContext(ctx, query, append([]any{methodHomeDelivery}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("querying pending shipments: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		var it WorkItem
		if err := rows.Scan(&it.OrderID, &it.TicketSeries, &it.StoreOrderID); err != nil {
			return nil, fmt.Errorf("scanning pending shipment: %w", err)
		}
		it.OrderID = strings.TrimSpace(it.OrderID)
		it.StoreOrderID = strings.TrimSpace(it.StoreOrderID)
		items = append(items, it)
	}
	return items, rows.Err()
}

// PendingStatusRefresh returns tracked orders whose status is not terminal
// and not the withdrawn state.
func (p *Postgres) PendingStatusRefresh(ctx context.Context, terminalCodes []int, withdrawnState string) ([]WorkItem, error) {
	in, args := InClause(2, terminalCodes)
	query := fmt.Sprintf(`
		SELECT order_id, ticket_series, tracking_id, COALESCE(group_id, ''), status_code
		FROM shipment_orders
		WHERE tracking_id IS NOT NULL
		  AND label_printed
		  AND (status_code IS NULL OR status_code NOT IN %s)
		  AND COALESCE(status_text, '') <> $1`, in)

	rows, err := p.db.QueryContext(ctx, query, append([]any{withdrawnState}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("querying pending status refresh: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		var it WorkItem
		var code sql.NullInt64
		if err := rows.Scan(&it.OrderID, &it.TicketSeries, &it.TrackingID, &it.GroupID, &code); err != nil {
			return nil, fmt.Errorf("scanning pending refresh: %w", err)
		}
		it.OrderID = strings.TrimSpace(it.OrderID)
		it.TrackingID = strings.TrimSpace(it.TrackingID)
		if code.Valid {
			c := int(code.Int64)
			it.StatusCode = &c
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AssignTracking records the courier identifiers for a new shipment. Only
// rows still lacking a tracking id are touched so duplicate runs are no-ops.
func (p *Postgres) AssignTracking(ctx context.Context, orderID, ticketSeries, trackingID, groupID string) error {
	return retryConflicts(ctx, p.retry, func() error {
		res, err := p.db.ExecContext(ctx, `
			UPDATE shipment_orders
			SET tracking_id = $1, group_id = NULLIF($2, '')
			WHERE btrim(order_id) = $3 AND ticket_series = $4 AND tracking_id IS NULL`,
			trackingID, groupID, strings.TrimSpace(orderID), ticketSeries)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			p.logger.Ctx(ctx).Warn("No row updated assigning tracking",
				zap.String("order_id", orderID),
				zap.String("tracking_id", trackingID),
			)
		}
		return nil
	})
}

// UpdateShipmentStatus persists the mapped status fields, retrying on
// deadlock per the store policy.
func (p *Postgres) UpdateShipmentStatus(ctx context.Context, trackingID string, status PersistedStatus) error {
	return retryConflicts(ctx, p.retry, func() error {
		_, err := p.db.ExecContext(ctx, `
			UPDATE shipment_orders
			SET status_text = $1, status_code = $2, status_date = $3
			WHERE tracking_id = $4`,
			status.Text, status.Code, status.Date, trackingID)
		return err
	})
}

// EcommerceRowExists checks the secondary completion table.
func (p *Postgres) EcommerceRowExists(ctx context.Context, orderID, ticketSeries string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ecommerce_order_status
			WHERE btrim(order_id) = $1 AND ticket_series = $2
		)`,
		strings.TrimSpace(orderID), ticketSeries).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking ecommerce row: %w", err)
	}
	return exists, nil
}

// MarkDelivered flips the completion flag. The WHERE clause excludes rows
// already flagged, making re-runs idempotent: zero rows affected on an
// existing-but-flagged row is success, not an error.
func (p *Postgres) MarkDelivered(ctx context.Context, orderID, ticketSeries string, at time.Time) (bool, error) {
	var flipped bool
	err := retryConflicts(ctx, p.retry, func() error {
		res, err := p.db.ExecContext(ctx, `
			UPDATE ecommerce_order_status
			SET delivered = TRUE, delivered_at = $1
			WHERE btrim(order_id) = $2 AND ticket_series = $3 AND NOT delivered`,
			at, strings.TrimSpace(orderID), ticketSeries)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		flipped = n > 0
		return nil
	})
	return flipped, err
}

// DeliveredUnpropagated finds rows persisted as delivered whose secondary
// row missed the flag, e.g. because a previous pass died between the two
// writes.
func (p *Postgres) DeliveredUnpropagated(ctx context.Context, deliveredCode int) ([]WorkItem, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT s.order_id, s.ticket_series, s.tracking_id
		FROM shipment_orders s
		JOIN ecommerce_order_status e
		  ON btrim(e.order_id) = btrim(s.order_id) AND e.ticket_series = s.ticket_series
		WHERE s.status_code = $1 AND NOT e.delivered`,
		deliveredCode)
	if err != nil {
		return nil, fmt.Errorf("querying unpropagated deliveries: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		var it WorkItem
		if err := rows.Scan(&it.OrderID, &it.TicketSeries, &it.TrackingID); err != nil {
			return nil, fmt.Errorf("scanning unpropagated delivery: %w", err)
		}
		it.OrderID = strings.TrimSpace(it.OrderID)
		it.TrackingID = strings.TrimSpace(it.TrackingID)
		code := deliveredCode
		it.StatusCode = &code
		items = append(items, it)
	}
	return items, rows.Err()
}

// UnprintedLabels returns shipments whose label was never dispatched.
func (p *Postgres) UnprintedLabels(ctx context.Context) ([]WorkItem, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT order_id, ticket_series, tracking_id, COALESCE(group_id, '')
		FROM shipment_orders
		WHERE tracking_id IS NOT NULL AND NOT label_printed`)
	if err != nil {
		return nil, fmt.Errorf("querying unprinted labels: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		var it WorkItem
		if err := rows.Scan(&it.OrderID, &it.TicketSeries, &it.TrackingID, &it.GroupID); err != nil {
			return nil, fmt.Errorf("scanning unprinted label: %w", err)
		}
		it.OrderID = strings.TrimSpace(it.OrderID)
		it.TrackingID = strings.TrimSpace(it.TrackingID)
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkLabelPrinted flags the order's label as dispatched.
func (p *Postgres) MarkLabelPrinted(ctx context.Context, orderID string) error {
	return retryConflicts(ctx, p.retry, func() error {
		_, err := p.db.ExecContext(ctx, `
			UPDATE shipment_orders
			SET label_printed = TRUE
			WHERE btrim(order_id) = $1 AND tracking_id IS NOT NULL`,
			strings.TrimSpace(orderID))
		return err
	})
}

// FindByTracking returns the order owning a tracking id.
func (p *Postgres) FindByTracking(ctx context.Context, trackingID string) (*WorkItem, error) {
	var it WorkItem
	var code sql.NullInt64
	err := p.db.QueryRowContext(ctx, `
		SELECT order_id, ticket_series, tracking_id, COALESCE(group_id, ''), status_code
		FROM shipment_orders
		WHERE tracking_id = $1`,
		trackingID).Scan(&it.OrderID, &it.TicketSeries, &it.TrackingID, &it.GroupID, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding order by tracking: %w", err)
	}
	it.OrderID = strings.TrimSpace(it.OrderID)
	if code.Valid {
		c := int(code.Int64)
		it.StatusCode = &c
	}
	return &it, nil
}

// ticketSeries is set at Open time; kept on the struct so NewWithDB callers
// can override it for tests.
func (p *Postgres) SetTicketSeries(series []string) {
	p.ticketSeries = series
}
