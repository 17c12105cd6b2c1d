package qkd

import (
	"fmt"
	"math/rand"
)

// Bit is a classical bit, the information unit generated by the sender.
type Bit byte

func (b Bit) String() string {
	return fmt.Sprintf("%d", byte(b))
}

// Basis identifies a preparation or measurement basis. Rectilinear is the
// Z basis {|0>, |1>}; Diagonal is the X basis {|+>, |->}. B92 receivers
// choose between the same two bases; B92 senders do not use a basis at all.
type Basis int

const (
	Rectilinear Basis = iota
	Diagonal
)

func (b Basis) String() string {
	switch b {
	case Rectilinear:
		return "rectilinear"
	case Diagonal:
		return "diagonal"
	default:
		return fmt.Sprintf("basis(%d)", int(b))
	}
}

// State is a symbolic single-qubit state. The engine tracks polarization
// symbolically rather than with complex amplitudes; StateAbsent marks a
// qubit lost in the channel.
type State int

const (
	StateAbsent State = iota
	StateZero         // |0>
	StateOne          // |1>
	StatePlus         // |+>
	StateMinus        // |->
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateZero:
		return "|0>"
	case StateOne:
		return "|1>"
	case StatePlus:
		return "|+>"
	case StateMinus:
		return "|->"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// basis returns the encoding basis a definite state belongs to.
func (s State) basis() Basis {
	if s == StateZero || s == StateOne {
		return Rectilinear
	}
	return Diagonal
}

// bit returns the classical bit a definite state encodes within its basis.
func (s State) bit() Bit {
	if s == StateOne || s == StateMinus {
		return 1
	}
	return 0
}

// Outcome is the result of measuring one received qubit. It is four-valued:
// a definite bit, an inconclusive B92 result, or a loss marker. Collapsing
// inconclusive into lost (or into a fabricated bit) would break B92 sifting,
// so all four are first-class.
type Outcome int

const (
	// OutcomeLost records a position where no state arrived.
	OutcomeLost Outcome = iota
	// OutcomeInconclusive records a B92 measurement that reveals nothing
	// about the sender's bit. Never produced by BB84 measurements.
	OutcomeInconclusive
	// OutcomeZero and OutcomeOne are definite results. For BB84 they are
	// the receiver's measured bit; for B92 a conclusive outcome carries the
	// sender's bit, which the two-state encoding determines exactly.
	OutcomeZero
	OutcomeOne
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLost:
		return "lost"
	case OutcomeInconclusive:
		return "inconclusive"
	case OutcomeZero:
		return "0"
	case OutcomeOne:
		return "1"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Conclusive reports whether the outcome pins down a bit value.
func (o Outcome) Conclusive() bool {
	return o == OutcomeZero || o == OutcomeOne
}

// Bit returns the bit value of a conclusive outcome. Calling it on a lost
// or inconclusive outcome is a programmer error.
func (o Outcome) Bit() Bit {
	switch o {
	case OutcomeZero:
		return 0
	case OutcomeOne:
		return 1
	}
	panic(fmt.Sprintf("qkd: Bit() on non-conclusive outcome %v", o))
}

// Protocol selects the QKD protocol variant for a run.
type Protocol string

const (
	ProtocolBB84 Protocol = "bb84"
	ProtocolB92  Protocol = "b92"
)

// ParseProtocol maps a CLI/preset string onto a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(s) {
	case ProtocolBB84:
		return ProtocolBB84, nil
	case ProtocolB92:
		return ProtocolB92, nil
	}
	return "", fmt.Errorf("%w: unknown protocol %q", ErrConfiguration, s)
}

// An Encoder maps classical bits onto symbolic quantum states and measures
// received states in a chosen basis. Implementations are pure apart from
// the explicit RNG used for indeterminate measurement branches.
type Encoder interface {
	// Encode prepares the state transmitting bit under basis. B92 encoders
	// ignore the basis: the two non-orthogonal code states are fixed.
	Encode(bit Bit, basis Basis) State

	// Measure observes state in basis. A lost state yields OutcomeLost.
	Measure(state State, basis Basis, rng *rand.Rand) Outcome
}

// NewEncoder returns the encoder for the given protocol variant.
func NewEncoder(p Protocol) Encoder {
	if p == ProtocolB92 {
		return b92Encoder{}
	}
	return bb84Encoder{}
}

// bb84Encoder implements the four-state BB84 encoding:
// rectilinear 0 -> |0>, 1 -> |1>; diagonal 0 -> |+>, 1 -> |->.
type bb84Encoder struct{}

func (bb84Encoder) Encode(bit Bit, basis Basis) State {
	if basis == Rectilinear {
		if bit == 0 {
			return StateZero
		}
		return StateOne
	}
	if bit == 0 {
		return StatePlus
	}
	return StateMinus
}

// Measure reads the exact bit when the measurement basis matches the
// encoding basis, and a uniformly random bit otherwise.
func (bb84Encoder) Measure(state State, basis Basis, rng *rand.Rand) Outcome {
	if state == StateAbsent {
		return OutcomeLost
	}
	bit := state.bit()
	if state.basis() != basis {
		bit = Bit(rng.Intn(2))
	}
	if bit == 0 {
		return OutcomeZero
	}
	return OutcomeOne
}

// b92Encoder implements the two-state B92 encoding: 0 -> |0>, 1 -> |+>.
// The receiver measures in Z or X; a raw detector click of 1 is conclusive
// (Z: sender sent |+>, bit 1; X: sender sent |0>, bit 0), a raw 0 reveals
// nothing and is reported as inconclusive.
type b92Encoder struct{}

func (b92Encoder) Encode(bit Bit, _ Basis) State {
	if bit == 0 {
		return StateZero
	}
	return StatePlus
}

func (b92Encoder) Measure(state State, basis Basis, rng *rand.Rand) Outcome {
	if state == StateAbsent {
		return OutcomeLost
	}
	if rawClick(state, basis, rng) == 0 {
		return OutcomeInconclusive
	}
	// Raw 1 in Z is orthogonal to |0>, so the sender must have sent |+>.
	// Raw 1 in X is orthogonal to |+>, so the sender must have sent |0>.
	if basis == Rectilinear {
		return OutcomeOne
	}
	return OutcomeZero
}

// rawClick simulates a projective measurement of state in basis and returns
// the raw detector bit: deterministic for basis eigenstates, a fair coin
// for the conjugate-basis states.
func rawClick(state State, basis Basis, rng *rand.Rand) Bit {
	if state.basis() == basis {
		return state.bit()
	}
	return Bit(rng.Intn(2))
}
