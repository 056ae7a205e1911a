package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharForLuminanceCoversAlphabet(t *testing.T) {
	seen := make(map[byte]bool)
	for l := 0; l <= 255; l++ {
		c := CharForLuminance(uint8(l))
		assert.Contains(t, shadeAlphabet[:], c, "luminance %d", l)
		seen[c] = true
	}
	assert.Len(t, seen, len(shadeAlphabet), "every alphabet character should be reachable")
}

func TestCharForLuminanceMonotonic(t *testing.T) {
	// bucket index never decreases as luminance rises
	prev := -1
	for l := 0; l <= 255; l++ {
		c := CharForLuminance(uint8(l))
		idx := -1
		for i, a := range shadeAlphabet {
			if a == c {
				idx = i
				break
			}
		}
		require.GreaterOrEqual(t, idx, prev, "luminance %d", l)
		prev = idx
	}
}

func TestCharForLuminanceBuckets(t *testing.T) {
	assert.Equal(t, byte('B'), CharForLuminance(0))
	assert.Equal(t, byte('B'), CharForLuminance(24))
	assert.Equal(t, byte('S'), CharForLuminance(25))
	assert.Equal(t, byte(' '), CharForLuminance(250))

	// 255 shares the last bucket with 250-254
	assert.Equal(t, CharForLuminance(250), CharForLuminance(255))
}

func TestGlyphFrameDimensions(t *testing.T) {
	f := newGlyphFrame(24, 80)
	assert.Equal(t, 24, f.Rows())
	assert.Equal(t, 80, f.Cols())
	assert.Len(t, f.Row(0), 80)
}
