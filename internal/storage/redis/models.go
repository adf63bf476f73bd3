package redis

import (
	"recycle-bot/internal/points"
	"recycle-bot/internal/shipment"
)

// UserState is the dialogue position of one chat. Only the draft of the
// active flow is set.
type UserState struct {
	Step     string          `json:"step"`
	Shipment *shipment.Draft `json:"shipment,omitempty"`
	Point    *points.Draft   `json:"point,omitempty"`
	Bags     *BagsDraft      `json:"bags,omitempty"`
	// DeletePointID is the point awaiting delete confirmation.
	DeletePointID *int64 `json:"delete_point_id,omitempty"`
}

// BagsDraft holds the bag counts entered so far in the bag-full flow.
// Counts are in category order: aluminum, PET, glass, other.
type BagsDraft struct {
	Counts []int `json:"counts"`
}

// Idle reports whether no flow is in progress.
func (s *UserState) Idle() bool {
	return s.Step == ""
}
