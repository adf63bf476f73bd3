// Package shipment implements the add-shipment dialogue: the draft an operator fills in,
// the transitions between prompts and the final assembly of a shipment record.
package shipment

import "github.com/shopspring/decimal"

// Step is a position of the add-shipment dialogue.
type Step string

const (
	StepAwaitingPointID      Step = "shipment_point_id"
	StepAwaitingCategory     Step = "shipment_category"
	StepAwaitingWeight       Step = "shipment_weight"
	StepAwaitingPrice        Step = "shipment_price"
	StepAwaitingConfirmation Step = "shipment_confirmation"
)

// Line is the entry for one material. It exists only once a weight was typed,
// so an untouched material and an explicit zero are told apart.
type Line struct {
	Material string          `json:"material"`
	Weight   decimal.Decimal `json:"weight"`
	Price    decimal.Decimal `json:"price"`
	PriceSet bool            `json:"price_set"`
}

// Total is weight × price.
func (l Line) Total() decimal.Decimal {
	return l.Weight.Mul(l.Price)
}

// Draft is the uncommitted shipment of one conversation. Lines holds entries
// with a known price; Pending holds a weight still waiting for its price.
type Draft struct {
	PointID int64  `json:"point_id"`
	Current string `json:"current,omitempty"`
	Lines   []Line `json:"lines,omitempty"`
	Pending *Line  `json:"pending,omitempty"`
}

// NewDraft starts an empty draft for a point.
func NewDraft(pointID int64) *Draft {
	return &Draft{PointID: pointID}
}

// Line returns the entry of a material.
func (d *Draft) Line(material string) (Line, bool) {
	for _, l := range d.Lines {
		if l.Material == material {
			return l, true
		}
	}
	return Line{}, false
}

func (d *Draft) put(l Line) {
	for i := range d.Lines {
		if d.Lines[i].Material == l.Material {
			d.Lines[i] = l
			return
		}
	}
	d.Lines = append(d.Lines, l)
}
