package report

import (
	"sort"
	"time"

	"recycle-bot/internal/model"
)

// EventKind tags the origin of a combined feed entry.
type EventKind string

const (
	KindRequest  EventKind = "request"
	KindShipment EventKind = "shipment"
)

// Event is one row of the combined export. Exactly one of Request and Shipment is set.
type Event struct {
	Kind     EventKind
	At       time.Time
	Request  *model.Request
	Shipment *model.Shipment
}

// Merge interleaves requests and shipments chronologically.
// On equal timestamps requests come first, then input order is kept.
func Merge(requests []model.Request, shipments []model.Shipment) []Event {
	events := make([]Event, 0, len(requests)+len(shipments))
	for i := range requests {
		events = append(events, Event{Kind: KindRequest, At: requests[i].CreatedAt, Request: &requests[i]})
	}
	for i := range shipments {
		events = append(events, Event{Kind: KindShipment, At: shipments[i].CreatedAt, Shipment: &shipments[i]})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
	return events
}
