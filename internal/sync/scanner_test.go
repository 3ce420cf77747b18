package sync_test

import (
	"context"
	"testing"

	"github.com/lakerscorp/courier-sync/internal/store"
	coursync "github.com/lakerscorp/courier-sync/internal/sync"
	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocabulary() *courier.StatusMap {
	return courier.NewStatusMap(map[string]int{
		"PENDIENTE":  0,
		"EN CURSO":   2,
		"COMPLETADO": 3,
		"CANCELADO":  4,
		"RETIRADO":   21,
	}, 3, []int{3, 4, 21}, "RETIRADO")
}

func TestScanner_NeedsShipmentDropsBlankOrderIDs(t *testing.T) {
	st := newFakeStore()
	st.pending = []store.WorkItem{
		{OrderID: "A-1", StoreOrderID: "W-100"},
		{OrderID: "", StoreOrderID: "W-101"},
		{OrderID: "A-3", StoreOrderID: "W-102"},
	}

	items, err := coursync.NewScanner(st, testVocabulary()).NeedsShipment(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A-1", items[0].OrderID)
	assert.Equal(t, "A-3", items[1].OrderID)
}

func TestScanner_NeedsStatusRefreshPassesVocabularyBounds(t *testing.T) {
	st := newFakeStore()
	st.refresh = []store.WorkItem{
		{OrderID: "A-1", TrackingID: "trk-1"},
		{OrderID: "A-2", TrackingID: ""},
	}

	items, err := coursync.NewScanner(st, testVocabulary()).NeedsStatusRefresh(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "trk-1", items[0].TrackingID)

	assert.Equal(t, []int{3, 4, 21}, st.terminalCodes)
	assert.Equal(t, "RETIRADO", st.withdrawn)
}

func TestScanner_StableWithoutIntermediateWrites(t *testing.T) {
	st := newFakeStore()
	st.refresh = []store.WorkItem{
		{OrderID: "A-1", TrackingID: "trk-1"},
		{OrderID: "A-2", TrackingID: "trk-2"},
	}

	scanner := coursync.NewScanner(st, testVocabulary())

	first, err := scanner.NeedsStatusRefresh(context.Background())
	require.NoError(t, err)
	second, err := scanner.NeedsStatusRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
