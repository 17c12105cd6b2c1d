package trace

// StageRecord captures one stage transition of a protocol run. Fields not
// meaningful for a stage stay zero-valued (e.g. QBER before estimation).
type StageRecord struct {
	Seq   int
	Stage string

	// Transmission quantities.
	Sent      int
	Delivered int
	Lost      int

	// Sifting quantities.
	SiftedLength int
	Efficiency   float64

	// Estimation quantities.
	SampleSize   int
	Mismatches   int
	QBER         float64
	Insufficient bool

	// Terminal quantities.
	Verdict   string
	Reason    string
	KeyLength int
}
