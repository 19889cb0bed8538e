package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestFoldRating(t *testing.T) {
	avg, total := FoldRating(decimal.Zero, 0, 4)
	assert.True(t, avg.Equal(dec("4")))
	assert.Equal(t, int64(1), total)

	avg, total = FoldRating(avg, total, 5)
	assert.True(t, avg.Equal(dec("4.5")))
	assert.Equal(t, int64(2), total)

	// (4.5*2 + 2) / 3 = 3.666... -> 3.7
	avg, total = FoldRating(avg, total, 2)
	assert.True(t, avg.Equal(dec("3.7")))
	assert.Equal(t, int64(3), total)
}

func TestSwapRating(t *testing.T) {
	// one review of 2, edited to 5: average follows, count stays
	avg, total := SwapRating(dec("2"), 1, 2, 5)
	assert.True(t, avg.Equal(dec("5")))
	assert.Equal(t, int64(1), total)

	// {4, 5} avg 4.5, edit the 4 to a 3: (9-4+3)/2 = 4.0
	avg, total = SwapRating(dec("4.5"), 2, 4, 3)
	assert.True(t, avg.Equal(dec("4")))
	assert.Equal(t, int64(2), total)
}

func TestUnfoldRating(t *testing.T) {
	// removing the last review resets the aggregate
	avg, total := UnfoldRating(dec("5"), 1, 5)
	assert.True(t, avg.IsZero())
	assert.Equal(t, int64(0), total)

	// {4, 5} avg 4.5, the 5 gets hidden: (9-5)/1 = 4
	avg, total = UnfoldRating(dec("4.5"), 2, 5)
	assert.True(t, avg.Equal(dec("4")))
	assert.Equal(t, int64(1), total)
}

func TestFoldThenUnfoldRoundTrip(t *testing.T) {
	avg, total := decimal.Zero, int64(0)
	for _, r := range []int{5, 3, 4, 4, 1} {
		avg, total = FoldRating(avg, total, r)
	}
	assert.Equal(t, int64(5), total)
	assert.True(t, avg.Equal(dec("3.4")))

	avg, total = UnfoldRating(avg, total, 1)
	assert.Equal(t, int64(4), total)
	assert.True(t, avg.Equal(dec("4")))
}
