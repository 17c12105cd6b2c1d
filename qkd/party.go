package qkd

import "math/rand"

// Sender holds the transmitting party's per-position records: generated
// bits, chosen bases, and prepared states. Index i of every slice refers
// to transmission position i; that alignment is what sifting relies on.
type Sender struct {
	Bits   []Bit
	Bases  []Basis
	States []State
}

// newSender generates n random bits (and, for BB84, n random bases) and
// prepares the corresponding states in order. B92 senders record
// Rectilinear for every position; the encoder ignores it.
func newSender(p Protocol, enc Encoder, n int, rng *rand.Rand) *Sender {
	s := &Sender{
		Bits:   make([]Bit, n),
		Bases:  make([]Basis, n),
		States: make([]State, n),
	}
	for i := 0; i < n; i++ {
		s.Bits[i] = Bit(rng.Intn(2))
		if p == ProtocolBB84 && rng.Intn(2) == 1 {
			s.Bases[i] = Diagonal
		}
		s.States[i] = enc.Encode(s.Bits[i], s.Bases[i])
	}
	return s
}

// Receiver holds the measuring party's per-position records. A position
// where nothing arrived keeps its basis choice (the detector was set
// before the loss was known) and records OutcomeLost.
type Receiver struct {
	Bases    []Basis
	Outcomes []Outcome
}

func newReceiver(n int) *Receiver {
	return &Receiver{
		Bases:    make([]Basis, n),
		Outcomes: make([]Outcome, n),
	}
}

// measure records the basis choice and measurement outcome for position
// pos. The basis is uniform over the two candidates for both protocols:
// BB84 receivers guess the preparation basis, B92 receivers pick one of
// the two fixed measurement bases.
func (r *Receiver) measure(pos int, state State, enc Encoder, rng *rand.Rand) {
	basis := Rectilinear
	if rng.Intn(2) == 1 {
		basis = Diagonal
	}
	r.Bases[pos] = basis
	r.Outcomes[pos] = enc.Measure(state, basis, rng)
}

// PositionRecord is one row of a TransmissionRecord: everything both
// parties know about one transmitted position after the quantum phase.
type PositionRecord struct {
	SenderBit     Bit
	SenderBasis   Basis
	ReceiverBasis Basis
	Outcome       Outcome
	Delivered     bool
}

// TransmissionRecord is the position-ordered record of one quantum
// transmission phase. Its length is fixed per run and identical for both
// parties by construction.
type TransmissionRecord []PositionRecord

// buildRecord zips the two parties' aligned slices into one record.
func buildRecord(s *Sender, r *Receiver) TransmissionRecord {
	rec := make(TransmissionRecord, len(s.Bits))
	for i := range rec {
		rec[i] = PositionRecord{
			SenderBit:     s.Bits[i],
			SenderBasis:   s.Bases[i],
			ReceiverBasis: r.Bases[i],
			Outcome:       r.Outcomes[i],
			Delivered:     r.Outcomes[i] != OutcomeLost,
		}
	}
	return rec
}

// delivered counts positions where a state arrived.
func (t TransmissionRecord) delivered() int {
	n := 0
	for _, p := range t {
		if p.Delivered {
			n++
		}
	}
	return n
}
