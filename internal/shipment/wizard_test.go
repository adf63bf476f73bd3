package shipment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"recycle-bot/internal/materials"
)

func testCatalog(t testing.TB) *materials.Catalog {
	c, err := materials.Parse([]byte(`
groups:
  - key: main
    title: Основные
    materials:
      - key: alum
        title: Алюминий
      - key: pet
        title: PET
      - key: glass
        title: Стекло
  - key: mix
    title: Микс
    materials:
      - key: pet_mix
        title: Смешанный пластик
        fixed_price: 3.5
`))
	require.NoError(t, err)
	return c
}

func copyDraft(d *Draft) Draft {
	c := *d
	c.Lines = append([]Line(nil), d.Lines...)
	return c
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseAmount(t *testing.T) {
	for in, want := range map[string]string{"5": "5", " 2,5 ": "2.5", "0.75": "0.75", "0": "0"} {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(dec(want)), in)
	}

	for _, in := range []string{"", "abc", "1,2,3", "1e3", "5kg"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrNotANumber, in)
	}
	_, err := ParseAmount("-1")
	assert.ErrorIs(t, err, ErrNegative)
}

func TestWizard_AluminiumAndZeroPET(t *testing.T) {
	w := NewWizard(testCatalog(t))
	d := NewDraft(1021)

	step, err := w.ChooseMaterial(d, "alum")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingWeight, step)

	step, err = w.EnterWeight(d, "5")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingPrice, step)

	step, err = w.EnterPrice(d, "2")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingCategory, step)

	_, err = w.ChooseMaterial(d, "pet")
	require.NoError(t, err)
	step, err = w.EnterWeight(d, "0")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingCategory, step, "zero weight skips the price prompt")

	pet, ok := d.Line("pet")
	require.True(t, ok)
	assert.True(t, pet.Price.IsZero())

	summary, step, err := w.Finish(d)
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingConfirmation, step)
	require.Len(t, summary.Lines, 2)
	assert.True(t, summary.TotalCost.Equal(dec("10")))
	assert.True(t, summary.TotalWeight.Equal(dec("5")))
	assert.Contains(t, summary.Text(), "Алюминий: 5 кг, 10.00 руб")
	assert.Contains(t, summary.Text(), "PET: 0 кг, 0.00 руб")

	s := NewBuilder(d.PointID, 7).AddDraft(d).Build(time.Unix(0, 0))
	alum, ok := s.Item("alum")
	require.True(t, ok)
	assert.True(t, alum.WeightKg.Equal(dec("5")))
	assert.True(t, alum.Total.Equal(dec("10")))
	petItem, ok := s.Item("pet")
	require.True(t, ok)
	assert.True(t, petItem.Total.IsZero())
	assert.True(t, s.TotalPay.Equal(dec("10")))
	_, ok = s.Item("glass")
	assert.False(t, ok, "untouched materials are not stored")
}

func TestWizard_FixedPrice(t *testing.T) {
	w := NewWizard(testCatalog(t))
	d := NewDraft(1021)

	_, err := w.ChooseMaterial(d, "pet_mix")
	require.NoError(t, err)
	step, err := w.EnterWeight(d, "4")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingCategory, step)

	l, ok := d.Line("pet_mix")
	require.True(t, ok)
	assert.True(t, l.Price.Equal(dec("3.5")))
	assert.True(t, l.Total().Equal(dec("14")))
}

func TestWizard_InvalidInputKeepsState(t *testing.T) {
	w := NewWizard(testCatalog(t))
	d := NewDraft(1021)
	_, err := w.ChooseMaterial(d, "glass")
	require.NoError(t, err)

	before := copyDraft(d)
	step, err := w.EnterWeight(d, "много")
	assert.ErrorIs(t, err, ErrNotANumber)
	assert.Equal(t, StepAwaitingWeight, step)
	assert.Equal(t, before, *d)

	step, err = w.EnterWeight(d, "-3")
	assert.ErrorIs(t, err, ErrNegative)
	assert.Equal(t, StepAwaitingWeight, step)
	assert.Equal(t, before, *d)

	_, err = w.EnterWeight(d, "3")
	require.NoError(t, err)
	before = copyDraft(d)
	step, err = w.EnterPrice(d, "x")
	assert.ErrorIs(t, err, ErrNotANumber)
	assert.Equal(t, StepAwaitingPrice, step)
	assert.Equal(t, before, *d)
}

func TestWizard_Errors(t *testing.T) {
	w := NewWizard(testCatalog(t))
	d := NewDraft(1021)

	step, err := w.ChooseMaterial(d, "gold")
	assert.ErrorIs(t, err, ErrUnknownMaterial)
	assert.Equal(t, StepAwaitingCategory, step)

	_, err = w.EnterWeight(d, "1")
	assert.ErrorIs(t, err, ErrNoMaterial)
	_, err = w.EnterPrice(d, "1")
	assert.ErrorIs(t, err, ErrNoMaterial)

	_, step, err = w.Finish(d)
	assert.ErrorIs(t, err, ErrEmptyDraft)
	assert.Equal(t, StepAwaitingCategory, step)
}

func TestWizard_BackAndReentry(t *testing.T) {
	w := NewWizard(testCatalog(t))
	d := NewDraft(1021)

	_, _ = w.ChooseMaterial(d, "alum")
	_, _ = w.EnterWeight(d, "5")
	assert.Equal(t, StepAwaitingCategory, w.Back(d))
	_, ok := d.Line("alum")
	assert.False(t, ok, "unpriced weight is dropped")

	_, _ = w.ChooseMaterial(d, "alum")
	_, _ = w.EnterWeight(d, "5")
	_, _ = w.EnterPrice(d, "2")
	_, _ = w.ChooseMaterial(d, "alum")
	_, _ = w.EnterWeight(d, "7")
	_, _ = w.EnterPrice(d, "3")

	require.Len(t, d.Lines, 1)
	assert.True(t, d.Lines[0].Total().Equal(dec("21")))
}

func TestWizard_BackAfterReentryKeepsPricedLine(t *testing.T) {
	w := NewWizard(testCatalog(t))
	d := NewDraft(1021)

	_, _ = w.ChooseMaterial(d, "alum")
	_, _ = w.EnterWeight(d, "5")
	_, _ = w.EnterPrice(d, "2")
	confirmed, ok := d.Line("alum")
	require.True(t, ok)

	_, err := w.ChooseMaterial(d, "alum")
	require.NoError(t, err)
	step, err := w.EnterWeight(d, "7")
	require.NoError(t, err)
	assert.Equal(t, StepAwaitingPrice, step)

	line, ok := d.Line("alum")
	require.True(t, ok)
	assert.Equal(t, confirmed, line, "stored line is untouched until the new price arrives")

	assert.Equal(t, StepAwaitingCategory, w.Back(d))
	line, ok = d.Line("alum")
	require.True(t, ok)
	assert.Equal(t, confirmed, line)
	assert.Nil(t, d.Pending)
	assert.Empty(t, d.Current)

	s := NewBuilder(d.PointID, 1).AddDraft(d).Build(time.Unix(0, 0))
	assert.True(t, s.TotalPay.Equal(dec("10")))
}

// Every committed item total is weight × price and the shipment total is their sum,
// whatever was shown on the summary screen.
func TestBuilderTotalsProperty(t *testing.T) {
	catalog := testCatalog(t)
	keys := []string{"alum", "pet", "glass", "pet_mix"}

	rapid.Check(t, func(t *rapid.T) {
		w := NewWizard(catalog)
		d := NewDraft(1021)

		n := rapid.IntRange(1, 12).Draw(t, "entries")
		for i := 0; i < n; i++ {
			key := rapid.SampledFrom(keys).Draw(t, "material")
			weight := decimal.New(rapid.Int64Range(0, 100000).Draw(t, "weight"), -2)
			price := decimal.New(rapid.Int64Range(0, 100000).Draw(t, "price"), -2)

			if _, err := w.ChooseMaterial(d, key); err != nil {
				t.Fatalf("choose: %v", err)
			}
			step, err := w.EnterWeight(d, weight.String())
			if err != nil {
				t.Fatalf("weight: %v", err)
			}
			if weight.IsZero() && step != StepAwaitingCategory {
				t.Fatalf("zero weight must skip price, got %s", step)
			}
			if step == StepAwaitingPrice {
				if _, err := w.EnterPrice(d, price.String()); err != nil {
					t.Fatalf("price: %v", err)
				}
			}
		}

		summary, _, err := w.Finish(d)
		if err != nil {
			t.Fatalf("finish: %v", err)
		}
		// Tampering with the displayed summary must not affect the commit.
		summary.TotalCost = summary.TotalCost.Add(decimal.NewFromInt(1))

		s := NewBuilder(d.PointID, 1).AddDraft(d).Build(time.Now())
		sum := decimal.Zero
		for _, it := range s.Items {
			if !it.Total.Equal(it.WeightKg.Mul(it.Price)) {
				t.Fatalf("item %s total %s != %s × %s", it.Material, it.Total, it.WeightKg, it.Price)
			}
			if it.WeightKg.IsZero() && !it.Price.IsZero() {
				t.Fatalf("zero weight %s has price %s", it.Material, it.Price)
			}
			sum = sum.Add(it.Total)
		}
		if !s.TotalPay.Equal(sum) {
			t.Fatalf("total %s != sum %s", s.TotalPay, sum)
		}
		if !s.TotalPay.Equal(Summarize(d, catalog).TotalCost) {
			t.Fatalf("summary and commit disagree")
		}
	})
}

func TestInvalidWeightProperty(t *testing.T) {
	catalog := testCatalog(t)
	rapid.Check(t, func(t *rapid.T) {
		w := NewWizard(catalog)
		d := NewDraft(1021)
		_, _ = w.ChooseMaterial(d, "alum")

		input := rapid.StringMatching(`[a-zA-Zа-я%$#!-]{1,10}`).Draw(t, "input")
		before := copyDraft(d)
		step, err := w.EnterWeight(d, input)
		if err == nil {
			return
		}
		if step != StepAwaitingWeight {
			t.Fatalf("state advanced to %s", step)
		}
		if len(d.Lines) != len(before.Lines) || d.Current != before.Current {
			t.Fatalf("draft mutated")
		}
	})
}
