package qkd

import (
	"math"
	"math/rand"
	"sort"
)

// Verdict is the security decision of the error-estimation stage.
type Verdict string

const (
	// VerdictProceed means the sampled error rate was within threshold.
	VerdictProceed Verdict = "PROCEED"
	// VerdictAbort means possible eavesdropping: the sampled error rate
	// exceeded the threshold. Expected behavior, not an error.
	VerdictAbort Verdict = "ABORT"
)

// ErrorEstimate is the outcome of sampling the sifted key. The sampled
// positions are disclosed over the public channel during comparison and
// are therefore consumed: the extractor never reuses them.
type ErrorEstimate struct {
	// SampledIndices are indices into the sifted key (not transmission
	// positions), sorted ascending, chosen without replacement.
	SampledIndices []int
	SampleSize     int
	Mismatches     int
	QBER           float64
	Verdict        Verdict
}

// estimateErrorRate samples ceil(fraction*len) sifted positions without
// replacement (minimum 1 when the key is non-empty), compares the two
// parties' bits there, and decides against the threshold. The second
// return is false when the sifted key is empty and no estimate is
// possible.
func estimateErrorRate(key SiftedKey, fraction, threshold float64, rng *rand.Rand) (ErrorEstimate, bool) {
	n := key.Len()
	if n == 0 {
		return ErrorEstimate{}, false
	}
	k := int(math.Ceil(fraction * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	sampled := rng.Perm(n)[:k]
	sort.Ints(sampled)

	mismatches := 0
	for _, i := range sampled {
		if key.Sender[i] != key.Receiver[i] {
			mismatches++
		}
	}
	est := ErrorEstimate{
		SampledIndices: sampled,
		SampleSize:     k,
		Mismatches:     mismatches,
		QBER:           float64(mismatches) / float64(k),
		Verdict:        VerdictProceed,
	}
	if est.QBER > threshold {
		est.Verdict = VerdictAbort
	}
	return est, true
}
