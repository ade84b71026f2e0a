package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func consoleTable() TierTable {
	return TierTable{
		Tiers: []Tier{
			{Min: 0, Max: intPtr(40), Price: 100},
			{Min: 41, Max: intPtr(70), Price: 150},
		},
		Overflow: &Overflow{BlockMinutes: 15, BlockPrice: 50},
	}
}

func TestPriceForDuration(t *testing.T) {
	table := consoleTable()

	cases := []struct {
		name    string
		minutes float64
		want    int64
	}{
		{name: "zero", minutes: 0, want: 0},
		{name: "negative", minutes: -5, want: 0},
		{name: "fraction rounds up into first tier", minutes: 0.2, want: 100},
		{name: "first tier upper bound", minutes: 40, want: 100},
		{name: "just past bound rounds up", minutes: 40.01, want: 150},
		{name: "second tier upper bound", minutes: 70, want: 150},
		{name: "first overflow block", minutes: 71, want: 200},
		{name: "85 minutes", minutes: 85, want: 250},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PriceForDuration(tc.minutes, table))
		})
	}
}

func TestPriceForDurationFlatInsideTier(t *testing.T) {
	table := consoleTable()
	for d := 41; d <= 70; d++ {
		assert.Equal(t, int64(150), PriceForDuration(float64(d), table), "minute %d", d)
	}
}

func TestPriceForDurationBeyondMaxWithoutOverflow(t *testing.T) {
	table := TierTable{Tiers: []Tier{
		{Min: 0, Max: intPtr(30), Price: 80},
		{Min: 31, Max: intPtr(60), Price: 120},
	}}
	assert.Equal(t, int64(120), PriceForDuration(500, table))
}

func TestPriceForDurationEmptyAndGap(t *testing.T) {
	assert.Equal(t, int64(0), PriceForDuration(30, TierTable{}))

	gapped := TierTable{Tiers: []Tier{
		{Min: 0, Max: intPtr(10), Price: 10},
		{Min: 20, Max: intPtr(30), Price: 30},
	}}
	assert.Equal(t, int64(0), PriceForDuration(15, gapped))
}

func TestPriceForDurationBoundaryTieBreak(t *testing.T) {
	// overlapping bounds resolve to the earliest tier in ascending order
	overlapping := TierTable{Tiers: []Tier{
		{Min: 30, Max: intPtr(60), Price: 200},
		{Min: 0, Max: intPtr(30), Price: 100},
	}}
	assert.Equal(t, int64(100), PriceForDuration(30, overlapping))
}

func TestPriceForDurationOpenLastTier(t *testing.T) {
	table := TierTable{Tiers: []Tier{
		{Min: 0, Max: intPtr(30), Price: 40},
		{Min: 31, Max: nil, Price: 70},
	}}
	assert.Equal(t, int64(70), PriceForDuration(1000, table))
}

func TestWeightedBillSingleSegmentMatchesPrice(t *testing.T) {
	table := consoleTable()
	for _, d := range []float64{0.5, 12.3, 40, 55.75, 85, 130.2} {
		assert.Equal(t, PriceForDuration(d, table), WeightedBill([]Segment{{Minutes: d, Table: table}}), "duration %v", d)
	}
}

func TestWeightedBillEmpty(t *testing.T) {
	assert.Equal(t, int64(0), WeightedBill(nil))
	assert.Equal(t, int64(0), WeightedBill([]Segment{{Minutes: 0, Table: consoleTable()}}))
}

func TestWeightedBillBlendsWholeDurationPrices(t *testing.T) {
	a := TierTable{Tiers: []Tier{
		{Min: 0, Max: intPtr(30), Price: 100},
		{Min: 31, Max: intPtr(60), Price: 180},
	}}
	b := TierTable{Tiers: []Tier{
		{Min: 0, Max: intPtr(60), Price: 100},
	}}

	got := WeightedBill([]Segment{
		{Minutes: 30, Table: a},
		{Minutes: 30, Table: b},
	})
	// 0.5*180 + 0.5*100, not 100+100
	assert.Equal(t, int64(140), got)
}

func TestWeightedBillRoundsOnceAtTheEnd(t *testing.T) {
	a := TierTable{Tiers: []Tier{{Min: 0, Max: nil, Price: 100}}}
	b := TierTable{Tiers: []Tier{{Min: 0, Max: nil, Price: 101}}}

	// 100*(2/3) + 101*(1/3) = 100.333..
	assert.Equal(t, int64(100), WeightedBill([]Segment{{Minutes: 20, Table: a}, {Minutes: 10, Table: b}}))
	// 100*0.5 + 101*0.5 = 100.5 rounds away from zero
	assert.Equal(t, int64(101), WeightedBill([]Segment{{Minutes: 15, Table: a}, {Minutes: 15, Table: b}}))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		table TierTable
		want  error
	}{
		{name: "valid", table: consoleTable()},
		{name: "empty", table: TierTable{}, want: ErrEmptyTierTable},
		{
			name:  "not starting at zero",
			table: TierTable{Tiers: []Tier{{Min: 1, Max: nil, Price: 10}}},
			want:  ErrTierStart,
		},
		{
			name: "gap",
			table: TierTable{Tiers: []Tier{
				{Min: 0, Max: intPtr(10), Price: 10},
				{Min: 12, Max: nil, Price: 20},
			}},
			want: ErrTierGap,
		},
		{
			name: "overlap",
			table: TierTable{Tiers: []Tier{
				{Min: 0, Max: intPtr(10), Price: 10},
				{Min: 10, Max: nil, Price: 20},
			}},
			want: ErrTierOverlap,
		},
		{
			name: "open tier in the middle",
			table: TierTable{Tiers: []Tier{
				{Min: 0, Max: nil, Price: 10},
				{Min: 11, Max: intPtr(20), Price: 20},
			}},
			want: ErrTierOpenEnded,
		},
		{
			name:  "negative price",
			table: TierTable{Tiers: []Tier{{Min: 0, Max: nil, Price: -1}}},
			want:  ErrNegativePrice,
		},
		{
			name: "overflow without block size",
			table: TierTable{
				Tiers:    []Tier{{Min: 0, Max: intPtr(10), Price: 10}},
				Overflow: &Overflow{BlockMinutes: 0, BlockPrice: 5},
			},
			want: ErrInvalidOverflow,
		},
		{
			name: "overflow after open tier",
			table: TierTable{
				Tiers:    []Tier{{Min: 0, Max: nil, Price: 10}},
				Overflow: &Overflow{BlockMinutes: 15, BlockPrice: 5},
			},
			want: ErrOverflowOpenTable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.table.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
