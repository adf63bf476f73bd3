package shipment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"recycle-bot/internal/materials"
)

// SummaryLine is one row of the confirmation screen.
type SummaryLine struct {
	Material string
	Title    string
	Weight   decimal.Decimal
	Price    decimal.Decimal
	Cost     decimal.Decimal
}

// Summary is what the operator confirms. It is for display only:
// committed totals are recomputed by Builder.
type Summary struct {
	Lines       []SummaryLine
	TotalWeight decimal.Decimal
	TotalCost   decimal.Decimal
}

// Summarize lists every material with a recorded weight in catalogue order.
func Summarize(d *Draft, catalog *materials.Catalog) Summary {
	s := Summary{TotalWeight: decimal.Zero, TotalCost: decimal.Zero}
	seen := make(map[string]bool, len(d.Lines))
	add := func(l Line) {
		cost := l.Total()
		s.Lines = append(s.Lines, SummaryLine{
			Material: l.Material,
			Title:    catalog.Title(l.Material),
			Weight:   l.Weight,
			Price:    l.Price,
			Cost:     cost,
		})
		s.TotalWeight = s.TotalWeight.Add(l.Weight)
		s.TotalCost = s.TotalCost.Add(cost)
		seen[l.Material] = true
	}

	for _, m := range catalog.Materials() {
		if l, ok := d.Line(m.Key); ok {
			add(l)
		}
	}
	for _, l := range d.Lines {
		if !seen[l.Material] {
			add(l)
		}
	}
	return s
}

// Text renders the summary for the chat.
func (s Summary) Text() string {
	var b strings.Builder
	b.WriteString("Проверьте данные отгрузки:\n\n")
	for _, l := range s.Lines {
		fmt.Fprintf(&b, "%s: %s кг, %s руб\n", l.Title, l.Weight.String(), l.Cost.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nОбщий вес: %s кг\nИтого к оплате: %s руб", s.TotalWeight.String(), s.TotalCost.StringFixed(2))
	return b.String()
}
