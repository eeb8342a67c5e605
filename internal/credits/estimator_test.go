package credits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateChatCost_Empty(t *testing.T) {
	got := EstimateChatCost("", "")

	assert.Equal(t, 1, got.InputTokens)
	assert.Equal(t, 129, got.OutputTokens)
	assert.Equal(t, 517, got.EffectiveTokens)
	assert.Equal(t, 1, got.Credits)
}

func TestEstimateChatCost_Bounds(t *testing.T) {
	for _, n := range []int{0, 1, 10, 100, 1_000, 10_000, 100_000, 1_000_000} {
		got := EstimateChatCost(strings.Repeat("a", n), "")
		assert.GreaterOrEqual(t, got.Credits, 1, "n=%d", n)
		assert.LessOrEqual(t, got.Credits, 8, "n=%d", n)
		assert.GreaterOrEqual(t, got.OutputTokens, 64, "n=%d", n)
		assert.LessOrEqual(t, got.OutputTokens, 2048, "n=%d", n)
	}
}

func TestEstimateChatCost_Monotonic(t *testing.T) {
	prev := 0
	for n := 0; n <= 40_000; n += 250 {
		got := EstimateChatCost(strings.Repeat("x", n), "").Credits
		if got < prev {
			t.Fatalf("credits decreased at %d chars: %d < %d", n, got, prev)
		}
		prev = got
	}
}

func TestEstimateChatCost_SaturatesAtCap(t *testing.T) {
	got := EstimateChatCost(strings.Repeat("x", 200_000), strings.Repeat("y", 200_000))

	assert.Equal(t, 2048, got.OutputTokens)
	assert.Equal(t, 8, got.Credits)
}

func TestEstimateChatCost_CountsRunesAndJoinsHistory(t *testing.T) {
	// 3 runes + newline + 4 runes = 8 characters -> 2 input tokens.
	got := EstimateChatCost("ünïc", "hé!")

	assert.Equal(t, 2, got.InputTokens)
	assert.Equal(t, 129, got.OutputTokens)
}

func TestEstimateChatCost_MidRange(t *testing.T) {
	// 7999 + 1 = 8000 chars -> 2000 input, 1128 output, 6512 effective -> 4 credits.
	got := EstimateChatCost(strings.Repeat("a", 7999), "")

	assert.Equal(t, 2000, got.InputTokens)
	assert.Equal(t, 1128, got.OutputTokens)
	assert.Equal(t, 6512, got.EffectiveTokens)
	assert.Equal(t, 4, got.Credits)
}

func TestEstimateYouTubePlaylistCost(t *testing.T) {
	cases := map[int]int{
		-3:  5,
		0:   5,
		1:   6,
		7:   12,
		10:  15,
		11:  15,
		100: 15,
	}
	for videos, want := range cases {
		assert.Equal(t, want, EstimateYouTubePlaylistCost(videos), "videos=%d", videos)
	}
}

func TestFlatActionCost(t *testing.T) {
	assert.Equal(t, 5, FlatActionCost(0))
	assert.Equal(t, 10, FlatActionCost(1))
	assert.Equal(t, 10, FlatActionCost(4))
}
