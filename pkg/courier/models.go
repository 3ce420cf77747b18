package courier

import (
	"time"
)

// TrackingEvent is a single entry in a shipment's remote event history.
type TrackingEvent struct {
	Description string
	Timestamp   time.Time
	Location    string
}

// RemoteStatus is the status of a shipment as reported by the courier.
// It is ephemeral: produced by a Provider and consumed immediately by the
// reconciliation engine.
type RemoteStatus struct {
	RawStatus string
	Events    []TrackingEvent
}

// LatestEventTime returns the timestamp of the most recent event in the
// history. When the history is empty the fallback is returned; callers pass
// time.Now() so a shipment with no usable history is stamped with the poll
// time, matching the source systems.
func (s *RemoteStatus) LatestEventTime(fallback time.Time) time.Time {
	latest := time.Time{}
	for _, ev := range s.Events {
		if ev.Timestamp.After(latest) {
			latest = ev.Timestamp
		}
	}
	if latest.IsZero() {
		return fallback
	}
	return latest
}

// Event timestamp layouts tolerated across courier APIs. The plain layout is
// the documented one; some endpoints append a Z or return full RFC3339.
var eventTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z",
	time.RFC3339,
}

// ParseEventTime parses a courier event timestamp in any tolerated layout.
func ParseEventTime(s string) (time.Time, error) {
	var err error
	for _, layout := range eventTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// CreateShipmentRequest is the request for registering a shipment.
type CreateShipmentRequest struct {
	OrderID      string // local order identifier, already trimmed
	TicketSeries string
	StoreOrderID string // e-commerce platform order id, used as external reference
	Reference    string // optional idempotency reference
}

// CreateShipmentResponse is the response from registering a shipment.
type CreateShipmentResponse struct {
	TrackingID string
	GroupID    string // label-grouping identifier, empty when the courier has none
}

// FetchLabelRequest is the request for downloading a label asset.
type FetchLabelRequest struct {
	TrackingID string
	GroupID    string
}

// FetchLabelResponse carries the rendered label.
type FetchLabelResponse struct {
	TrackingID  string
	ContentType string
	Data        []byte
}
