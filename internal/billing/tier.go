package billing

import (
	"errors"
	"fmt"
	"sort"
)

// Tier charges a flat Price for any usage inside [Min, Max] minutes, inclusive.
// A nil Max means the tier is open-ended.
type Tier struct {
	Min   int
	Max   *int
	Price int64
}

func (t Tier) contains(minutes int) bool {
	if minutes < t.Min {
		return false
	}
	return t.Max == nil || minutes <= *t.Max
}

// Overflow bills usage past the last bounded tier in fixed blocks.
type Overflow struct {
	BlockMinutes int
	BlockPrice   int64
}

// TierTable is the pricing schedule of one rate profile.
type TierTable struct {
	Tiers    []Tier
	Overflow *Overflow
}

var (
	ErrEmptyTierTable    = errors.New("empty_tier_table")
	ErrTierStart         = errors.New("first_tier_must_start_at_zero")
	ErrTierGap           = errors.New("tier_gap")
	ErrTierOverlap       = errors.New("tier_overlap")
	ErrTierOpenEnded     = errors.New("only_last_tier_may_be_open")
	ErrTierBounds        = errors.New("tier_max_below_min")
	ErrNegativePrice     = errors.New("negative_price")
	ErrInvalidOverflow   = errors.New("invalid_overflow")
	ErrOverflowOpenTable = errors.New("overflow_requires_bounded_last_tier")
)

// Sorted returns the tiers ordered by Min ascending. The receiver is not modified.
func (t TierTable) Sorted() []Tier {
	tiers := make([]Tier, len(t.Tiers))
	copy(tiers, t.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Min < tiers[j].Min })
	return tiers
}

// Validate rejects tables the calculator could only price by falling through to zero.
func (t TierTable) Validate() error {
	if len(t.Tiers) == 0 {
		return ErrEmptyTierTable
	}

	tiers := t.Sorted()
	if tiers[0].Min != 0 {
		return ErrTierStart
	}

	for i, tier := range tiers {
		if tier.Price < 0 {
			return fmt.Errorf("tier %d: %w", i, ErrNegativePrice)
		}
		if tier.Max != nil && *tier.Max < tier.Min {
			return fmt.Errorf("tier %d: %w", i, ErrTierBounds)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if prev.Max == nil {
			return fmt.Errorf("tier %d: %w", i-1, ErrTierOpenEnded)
		}
		switch {
		case tier.Min <= *prev.Max:
			return fmt.Errorf("tier %d: %w", i, ErrTierOverlap)
		case tier.Min != *prev.Max+1:
			return fmt.Errorf("tier %d: %w", i, ErrTierGap)
		}
	}

	if t.Overflow != nil {
		if t.Overflow.BlockMinutes <= 0 || t.Overflow.BlockPrice <= 0 {
			return ErrInvalidOverflow
		}
		if tiers[len(tiers)-1].Max == nil {
			return ErrOverflowOpenTable
		}
	}
	return nil
}
