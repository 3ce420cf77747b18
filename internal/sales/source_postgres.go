package sales

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lakerscorp/courier-sync/internal/store"
	"github.com/samber/lo"
)

// PostgresSource reads invoices from the order database. It shares the
// connection pool with the record store.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource creates an invoice source on an existing connection pool.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Unsynced returns every invoice not yet pushed, oldest first, with its
// lines attached.
func (s *PostgresSource) Unsynced(ctx context.Context) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice_number, customer_id, issued_at, net_amount, tax_amount
		FROM sales_invoices
		WHERE NOT synced
		ORDER BY issued_at`)
	if err != nil {
		return nil, fmt.Errorf("querying unsynced invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.Number, &inv.CustomerID, &inv.IssuedAt, &inv.NetAmount, &inv.TaxAmount); err != nil {
			return nil, fmt.Errorf("scanning invoice row: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice rows: %w", err)
	}
	if len(invoices) == 0 {
		return nil, nil
	}

	numbers := lo.Map(invoices, func(inv Invoice, _ int) string { return inv.Number })
	lines, err := s.linesFor(ctx, numbers)
	if err != nil {
		return nil, err
	}

	for i := range invoices {
		invoices[i].Lines = lines[invoices[i].Number]
	}
	return invoices, nil
}

func (s *PostgresSource) linesFor(ctx context.Context, numbers []string) (map[string][]InvoiceLine, error) {
	clause, args := store.InClause(1, numbers)
	rows, err := s.db.QueryContext(ctx, `
		SELECT invoice_number, line_no, sku, quantity, net_amount, tax_amount
		FROM sales_invoice_lines
		WHERE invoice_number IN `+clause+`
		ORDER BY invoice_number, line_no`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying invoice lines: %w", err)
	}
	defer rows.Close()

	type numberedLine struct {
		number string
		line   InvoiceLine
	}
	var all []numberedLine
	for rows.Next() {
		var nl numberedLine
		if err := rows.Scan(&nl.number, &nl.line.LineNo, &nl.line.SKU, &nl.line.Quantity, &nl.line.NetAmount, &nl.line.TaxAmount); err != nil {
			return nil, fmt.Errorf("scanning invoice line: %w", err)
		}
		all = append(all, nl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice lines: %w", err)
	}

	grouped := lo.GroupBy(all, func(nl numberedLine) string { return nl.number })
	byInvoice := make(map[string][]InvoiceLine, len(grouped))
	for number, nls := range grouped {
		byInvoice[number] = lo.Map(nls, func(nl numberedLine, _ int) InvoiceLine { return nl.line })
	}
	return byInvoice, nil
}

// MarkSynced flags the listed invoice numbers as pushed with one
// parameterized IN update.
func (s *PostgresSource) MarkSynced(ctx context.Context, numbers []string) error {
	if len(numbers) == 0 {
		return nil
	}

	clause, args := store.InClause(1, numbers)
	_, err := s.db.ExecContext(ctx, `
		UPDATE sales_invoices
		SET synced = TRUE, synced_at = NOW()
		WHERE invoice_number IN `+clause, args...)
	if err != nil {
		return fmt.Errorf("marking invoices synced: %w", err)
	}
	return nil
}
