package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "abcd", b: "abcd", want: 1.0},
		{name: "overlapping block", a: "abcd", b: "bcde", want: 0.75},
		{name: "disjoint", a: "abc", b: "xyz", want: 0.0},
		{name: "both empty", a: "", b: "", want: 0.0},
		{name: "one empty", a: "abc", b: "", want: 0.0},
		{name: "single common character", a: "ab", b: "bc", want: 0.5},
		// Counting bytes instead of runes would give 6/9 here, because
		// the accented vowel is two bytes in UTF-8.
		{name: "accented rune counts once", a: "café", b: "cafe", want: 0.75},
		{name: "identical multibyte", a: "日本語", b: "日本語", want: 1.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Ratio(tc.a, tc.b), 1e-9)
		})
	}
}

func TestRatioTransposedBlocksStillContribute(t *testing.T) {
	// "hello world" vs "world hello": the longest block wins first,
	// then the recursion picks up what is left either side of it.
	got := Ratio("hello world", "world hello")

	// Longest block: " world" in a matches "world" plus the separator
	// differently depending on scan order; whichever side is chosen,
	// the remainders can only match on the opposite side of the block,
	// so the total stays below 1.
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestRatioIsSymmetricInLength(t *testing.T) {
	// The denominator is the combined length, so swapping arguments
	// yields the same value.
	assert.InDelta(t, Ratio("kitten", "sitting"), Ratio("sitting", "kitten"), 1e-9)
}
