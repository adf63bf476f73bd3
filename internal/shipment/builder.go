package shipment

import (
	"time"

	"github.com/shopspring/decimal"

	"recycle-bot/internal/model"
)

// Builder assembles a shipment row. Every item total and the grand total are
// computed here from weight and price.
type Builder struct {
	s model.Shipment
}

func NewBuilder(pointID, userID int64) *Builder {
	return &Builder{s: model.Shipment{
		PointID:     pointID,
		UserID:      userID,
		TotalWeight: decimal.Zero,
		TotalPay:    decimal.Zero,
	}}
}

// Add appends a material. A line without a confirmed price is priced at 0.
func (b *Builder) Add(l Line) *Builder {
	price := l.Price
	if !l.PriceSet || l.Weight.IsZero() {
		price = decimal.Zero
	}
	b.s.Items = append(b.s.Items, model.ShipmentItem{
		Material: l.Material,
		WeightKg: l.Weight,
		Price:    price,
		Total:    l.Weight.Mul(price),
	})
	return b
}

// AddDraft appends every line of a draft.
func (b *Builder) AddDraft(d *Draft) *Builder {
	for _, l := range d.Lines {
		b.Add(l)
	}
	return b
}

func (b *Builder) Build(at time.Time) model.Shipment {
	s := b.s
	s.Items = append([]model.ShipmentItem(nil), b.s.Items...)
	s.TotalWeight = decimal.Zero
	s.TotalPay = decimal.Zero
	for _, it := range s.Items {
		s.TotalWeight = s.TotalWeight.Add(it.WeightKg)
		s.TotalPay = s.TotalPay.Add(it.Total)
	}
	s.CreatedAt = at
	return s
}
