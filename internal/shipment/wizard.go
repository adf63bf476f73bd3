package shipment

import (
	"errors"
	"fmt"

	"recycle-bot/internal/materials"
)

var (
	ErrUnknownMaterial = errors.New("unknown material")
	ErrNoMaterial      = errors.New("no material selected")
	ErrEmptyDraft      = errors.New("no material entered")
)

// Wizard moves a draft between prompts. It never touches storage: point
// existence is checked by the caller before the draft is created.
type Wizard struct {
	catalog *materials.Catalog
}

func NewWizard(catalog *materials.Catalog) *Wizard {
	return &Wizard{catalog: catalog}
}

// ChooseMaterial opens the weight prompt for a material.
func (w *Wizard) ChooseMaterial(d *Draft, key string) (Step, error) {
	if _, ok := w.catalog.Material(key); !ok {
		return StepAwaitingCategory, fmt.Errorf("%w: %q", ErrUnknownMaterial, key)
	}
	d.Current = key
	return StepAwaitingWeight, nil
}

// EnterWeight records the weight of the current material. A zero weight or a
// table-priced material is stored at once; otherwise the weight waits in
// Pending for its price and any earlier entry stays untouched. On error the
// draft is unchanged.
func (w *Wizard) EnterWeight(d *Draft, text string) (Step, error) {
	m, ok := w.catalog.Material(d.Current)
	if !ok {
		return StepAwaitingCategory, ErrNoMaterial
	}
	weight, err := ParseAmount(text)
	if err != nil {
		return StepAwaitingWeight, err
	}

	line := Line{Material: m.Key, Weight: weight}
	switch {
	case weight.IsZero():
		line.PriceSet = true
	case m.HasFixedPrice():
		line.Price = *m.FixedPrice
		line.PriceSet = true
	default:
		d.Pending = &line
		return StepAwaitingPrice, nil
	}
	d.put(line)
	d.Pending = nil
	d.Current = ""
	return StepAwaitingCategory, nil
}

// EnterPrice prices the pending weight and stores the line.
func (w *Wizard) EnterPrice(d *Draft, text string) (Step, error) {
	if d.Pending == nil || d.Pending.Material != d.Current {
		d.Pending = nil
		return StepAwaitingCategory, ErrNoMaterial
	}
	price, err := ParseAmount(text)
	if err != nil {
		return StepAwaitingPrice, err
	}
	line := *d.Pending
	line.Price = price
	line.PriceSet = true
	d.put(line)
	d.Pending = nil
	d.Current = ""
	return StepAwaitingCategory, nil
}

// Back abandons the material being entered and returns to the category screen.
// An unpriced weight is discarded; stored lines are kept as they were.
func (w *Wizard) Back(d *Draft) Step {
	d.Pending = nil
	d.Current = ""
	return StepAwaitingCategory
}

// Finish builds the confirmation summary.
func (w *Wizard) Finish(d *Draft) (Summary, Step, error) {
	if len(d.Lines) == 0 {
		return Summary{}, StepAwaitingCategory, ErrEmptyDraft
	}
	d.Pending = nil
	d.Current = ""
	return Summarize(d, w.catalog), StepAwaitingConfirmation, nil
}
