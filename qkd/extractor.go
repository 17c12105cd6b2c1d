package qkd

// extractKey removes the disclosed sample indices from a sifted bit
// sequence, preserving order. The result is the pre-privacy-amplification
// shared secret; an empty result is valid when every sifted bit was
// disclosed.
//
// sampled must be sorted ascending, as produced by estimateErrorRate.
func extractKey(bits []Bit, sampled []int) []Bit {
	key := make([]Bit, 0, len(bits)-len(sampled))
	next := 0
	for i, b := range bits {
		if next < len(sampled) && sampled[next] == i {
			next++
			continue
		}
		key = append(key, b)
	}
	return key
}

// secureBitEstimate is the simplified post-privacy-amplification size
// estimate reported alongside the final key: len * (1 - 2*qber), floored
// at zero. Estimation only; actual privacy amplification is out of scope.
func secureBitEstimate(keyLen int, qber float64) int {
	est := int(float64(keyLen) * (1 - 2*qber))
	if est < 0 {
		return 0
	}
	return est
}
