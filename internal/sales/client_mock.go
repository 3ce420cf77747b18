package sales

import (
	"context"
)

// MockReportingClient is a scriptable ReportingClient for testing. Without a
// hook it accepts every invoice.
type MockReportingClient struct {
	OnPush func(ctx context.Context, invoices []Invoice) (*PushResult, error)

	Pushed [][]Invoice
}

// NewMockReportingClient creates a mock reporting client.
func NewMockReportingClient() *MockReportingClient {
	return &MockReportingClient{}
}

// Push records the batch and accepts everything unless scripted otherwise.
func (m *MockReportingClient) Push(ctx context.Context, invoices []Invoice) (*PushResult, error) {
	m.Pushed = append(m.Pushed, invoices)
	if m.OnPush != nil {
		return m.OnPush(ctx, invoices)
	}

	accepted := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		accepted = append(accepted, inv.Number)
	}
	return &PushResult{Accepted: accepted}, nil
}
