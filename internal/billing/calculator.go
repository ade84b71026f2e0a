package billing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Segment is one rate period of a session, in fractional minutes.
type Segment struct {
	Minutes float64
	Table   TierTable
}

// PriceForDuration prices a whole usage duration against a single tier table.
//
// Minutes are rounded up before lookup. The first tier in ascending Min order
// whose range holds the value wins. Past every bounded tier the highest tier's
// price applies, plus overflow blocks when the table defines them. A value that
// falls into a gap of an unvalidated table prices at 0.
func PriceForDuration(minutes float64, table TierTable) int64 {
	if minutes <= 0 || len(table.Tiers) == 0 {
		return 0
	}
	d := int(math.Ceil(minutes))

	tiers := table.Sorted()
	for _, tier := range tiers {
		if tier.contains(d) {
			return tier.Price
		}
	}

	maxMax, top, bounded := ceiling(tiers)
	if !bounded || d <= maxMax {
		return 0
	}

	price := top.Price
	if o := table.Overflow; o != nil && o.BlockMinutes > 0 {
		blocks := int64((d-maxMax)/o.BlockMinutes) + 1
		price += blocks * o.BlockPrice
	}
	return price
}

// ceiling returns the largest Max across the tiers and the tier that owns it.
func ceiling(tiers []Tier) (int, Tier, bool) {
	var (
		top   Tier
		found bool
		upper int
	)
	for _, tier := range tiers {
		if tier.Max == nil {
			continue
		}
		if !found || *tier.Max > upper {
			upper = *tier.Max
			top = tier
			found = true
		}
	}
	return upper, top, found
}

// WeightedBill blends the price of the session's total duration under each
// segment's table, weighted by the share of time spent in that segment.
// Rounding to a whole amount happens once, at the end.
func WeightedBill(segments []Segment) int64 {
	total := decimal.Zero
	for _, s := range segments {
		if s.Minutes > 0 {
			total = total.Add(decimal.NewFromFloat(s.Minutes))
		}
	}
	if !total.IsPositive() {
		return 0
	}
	totalMinutes := total.InexactFloat64()

	sum := decimal.Zero
	for _, s := range segments {
		if s.Minutes <= 0 {
			continue
		}
		price := decimal.NewFromInt(PriceForDuration(totalMinutes, s.Table))
		sum = sum.Add(price.Mul(decimal.NewFromFloat(s.Minutes)))
	}

	// decimal.Round rounds half away from zero.
	return sum.DivRound(total, 16).Round(0).IntPart()
}
