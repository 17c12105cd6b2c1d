// Tracks per-run statistics for final reporting.

package qkd

import "fmt"

// Stats aggregates the semantic quantities of one run for final reporting.
// Useful for comparing configurations and debugging channel settings.
type Stats struct {
	QubitsSent  int
	Delivered   int
	Lost        int
	Intercepted int

	SiftedLength      int
	SiftingEfficiency float64

	SampleSize int
	QBER       float64

	FinalKeyLength    int
	SecureBitEstimate int // simplified privacy-amplification estimate
}

// TheoreticalEfficiency is the ideal sifting efficiency of a protocol on a
// lossless channel: BB84 keeps half the positions (basis agreement), B92 a
// quarter (conclusive outcomes).
func TheoreticalEfficiency(p Protocol) float64 {
	if p == ProtocolB92 {
		return 0.25
	}
	return 0.5
}

// Print displays the run report.
func (s *Stats) Print(p Protocol, result ProtocolResult) {
	fmt.Println("=== QKD Run Report ===")
	fmt.Printf("Protocol             : %s\n", p)
	fmt.Printf("Qubits sent          : %d\n", s.QubitsSent)
	fmt.Printf("Delivered / lost     : %d / %d\n", s.Delivered, s.Lost)
	fmt.Printf("Sifted key length    : %d\n", s.SiftedLength)
	fmt.Printf("Sifting efficiency   : %.4f (theoretical max %.2f)\n",
		s.SiftingEfficiency, TheoreticalEfficiency(p))
	fmt.Printf("Sampled positions    : %d\n", s.SampleSize)
	fmt.Printf("QBER                 : %.4f\n", s.QBER)
	fmt.Printf("Status               : %s\n", result.Status)
	if result.Reason != "" {
		fmt.Printf("Reason               : %s\n", result.Reason)
	}
	if result.Status == StageKeyReady {
		fmt.Printf("Final key length     : %d\n", s.FinalKeyLength)
		fmt.Printf("Est. secure bits     : %d\n", s.SecureBitEstimate)
	}
}
