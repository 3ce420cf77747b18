package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lakerscorp/courier-sync/internal/sales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type fakeSource struct {
	invoices []sales.Invoice
	synced   []string
	markErr  error
}

func (f *fakeSource) Unsynced(context.Context) ([]sales.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeSource) MarkSynced(_ context.Context, numbers []string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.synced = append(f.synced, numbers...)
	return nil
}

func testInvoices() []sales.Invoice {
	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []sales.Invoice{
		{
			Number: "FA-0001", CustomerID: "C-1", IssuedAt: issued,
			NetAmount: 100, TaxAmount: 21,
			Lines: []sales.InvoiceLine{{LineNo: 1, SKU: "SKU-1", Quantity: 2, NetAmount: 100, TaxAmount: 21}},
		},
		{
			Number: "FA-0002", CustomerID: "C-2", IssuedAt: issued.Add(time.Hour),
			NetAmount: 50, TaxAmount: 10.5,
			Lines: []sales.InvoiceLine{{LineNo: 1, SKU: "SKU-2", Quantity: 1, NetAmount: 50, TaxAmount: 10.5}},
		},
	}
}

func newSyncer(source sales.InvoiceSource, client sales.ReportingClient) *sales.Syncer {
	return sales.NewSyncer(source, client, otelzap.New(zap.NewNop()), nil)
}

func TestSyncer_MarksOnlyAcceptedInvoices(t *testing.T) {
	source := &fakeSource{invoices: testInvoices()}
	client := sales.NewMockReportingClient()
	client.OnPush = func(_ context.Context, invoices []sales.Invoice) (*sales.PushResult, error) {
		return &sales.PushResult{
			Accepted: []string{"FA-0001"},
			Rejected: []sales.Rejection{{InvoiceNumber: "FA-0002", Reason: "unknown customer"}},
		}, nil
	}

	stats, err := newSyncer(source, client).Run(context.Background())
	require.NoError(t, err, "per-invoice rejections do not fail the run")
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, []string{"FA-0001"}, source.synced)
}

func TestSyncer_PushesBatchWithLines(t *testing.T) {
	source := &fakeSource{invoices: testInvoices()}
	client := sales.NewMockReportingClient()

	stats, err := newSyncer(source, client).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Accepted)

	require.Len(t, client.Pushed, 1)
	batch := client.Pushed[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "SKU-1", batch[0].Lines[0].SKU)
	assert.Equal(t, []string{"FA-0001", "FA-0002"}, source.synced)
}

func TestSyncer_NothingToPush(t *testing.T) {
	source := &fakeSource{}
	client := sales.NewMockReportingClient()

	stats, err := newSyncer(source, client).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Scanned)
	assert.Empty(t, client.Pushed, "no batch is sent for an empty scan")
}

func TestSyncer_PushFailureLeavesInvoicesUnsynced(t *testing.T) {
	source := &fakeSource{invoices: testInvoices()}
	client := sales.NewMockReportingClient()
	client.OnPush = func(context.Context, []sales.Invoice) (*sales.PushResult, error) {
		return nil, errors.New("backend unavailable")
	}

	_, err := newSyncer(source, client).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, source.synced)
}
