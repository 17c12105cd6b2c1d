package qkd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKey_RemovesDisclosedPreservingOrder(t *testing.T) {
	key := extractKey([]Bit{1, 0, 1, 1, 0, 0}, []int{1, 4})
	assert.Equal(t, []Bit{1, 1, 1, 0}, key)
}

func TestExtractKey_LengthProperty(t *testing.T) {
	in := []Bit{0, 1, 0, 1, 1, 0, 1, 0, 0, 1}
	sampled := []int{0, 3, 7}
	assert.Len(t, extractKey(in, sampled), len(in)-len(sampled))
}

func TestExtractKey_AllDisclosedYieldsEmptyKey(t *testing.T) {
	// Empty is valid output, not an error: "empty but secure".
	key := extractKey([]Bit{1, 0}, []int{0, 1})
	assert.Empty(t, key)
}

func TestExtractKey_NothingDisclosed(t *testing.T) {
	in := []Bit{1, 0, 1}
	assert.Equal(t, in, extractKey(in, nil))
}

func TestSecureBitEstimate(t *testing.T) {
	assert.Equal(t, 25, secureBitEstimate(25, 0))
	assert.Equal(t, 20, secureBitEstimate(25, 0.1))
	assert.Equal(t, 0, secureBitEstimate(25, 0.75), "estimate floors at zero")
	assert.Equal(t, 0, secureBitEstimate(0, 0))
}
