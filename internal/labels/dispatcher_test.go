package labels_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lakerscorp/courier-sync/internal/labels"
	"github.com/lakerscorp/courier-sync/internal/store"
	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/lakerscorp/courier-sync/pkg/courier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// labelStore is a minimal in-memory RecordStore for dispatch tests.
type labelStore struct {
	unprinted []store.WorkItem
	printed   map[string]bool
}

func newLabelStore(items ...store.WorkItem) *labelStore {
	return &labelStore{unprinted: items, printed: map[string]bool{}}
}

func (s *labelStore) UnprintedLabels(context.Context) ([]store.WorkItem, error) {
	return s.unprinted, nil
}

func (s *labelStore) MarkLabelPrinted(_ context.Context, orderID string) error {
	s.printed[orderID] = true
	return nil
}

func (s *labelStore) PendingShipments(context.Context) ([]store.WorkItem, error) { return nil, nil }
func (s *labelStore) PendingStatusRefresh(context.Context, []int, string) ([]store.WorkItem, error) {
	return nil, nil
}
func (s *labelStore) AssignTracking(context.Context, string, string, string, string) error {
	return nil
}
func (s *labelStore) UpdateShipmentStatus(context.Context, string, store.PersistedStatus) error {
	return nil
}
func (s *labelStore) EcommerceRowExists(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *labelStore) MarkDelivered(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
}
func (s *labelStore) DeliveredUnpropagated(context.Context, int) ([]store.WorkItem, error) {
	return nil, nil
}
func (s *labelStore) FindByTracking(context.Context, string) (*store.WorkItem, error) {
	return nil, nil
}

// memorySink records dispatched labels and can be scripted to fail.
type memorySink struct {
	dispatched []*courier.FetchLabelResponse
	failFor    string
}

func (m *memorySink) Dispatch(_ context.Context, label *courier.FetchLabelResponse) error {
	if label.TrackingID == m.failFor {
		return errors.New("printer offline")
	}
	m.dispatched = append(m.dispatched, label)
	return nil
}

func nopLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func TestDispatcher_FlagsOnlyDispatchedLabels(t *testing.T) {
	st := newLabelStore(
		store.WorkItem{OrderID: "A-1", TrackingID: "trk-1"},
		store.WorkItem{OrderID: "A-2", TrackingID: "trk-2"},
	)
	sink := &memorySink{failFor: "trk-2"}

	d := labels.NewDispatcher(mock.New("welivery"), st, sink, nopLogger(), nil)
	d.SetFetchDelay(time.Millisecond)
	stats, err := d.Run(context.Background())

	require.NoError(t, err, "item failures never abort the batch")
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Printed)
	assert.Equal(t, 1, stats.Failed)
	assert.True(t, st.printed["A-1"])
	assert.False(t, st.printed["A-2"], "failed dispatch must stay unflagged")
	require.Len(t, sink.dispatched, 1)
	assert.Equal(t, "trk-1", sink.dispatched[0].TrackingID)
}

func TestDispatcher_FetchFailureLeavesItemPending(t *testing.T) {
	st := newLabelStore(store.WorkItem{OrderID: "A-1", TrackingID: "trk-1"})

	provider := mock.New("welivery")
	provider.OnFetchLabel = func(context.Context, *courier.FetchLabelRequest) (*courier.FetchLabelResponse, error) {
		return nil, courier.NewError("welivery", courier.KindTransient, "gateway timeout")
	}

	sink := &memorySink{}
	d := labels.NewDispatcher(provider, st, sink, nopLogger(), nil)
	stats, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Empty(t, sink.dispatched)
	assert.Empty(t, st.printed)
}

func TestFileSink_WritesLabelToSpoolDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	sink, err := labels.NewFileSink(dir)
	require.NoError(t, err)

	err = sink.Dispatch(context.Background(), &courier.FetchLabelResponse{
		TrackingID:  "trk-1",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 test"),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "trk-1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 test"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
