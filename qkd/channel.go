package qkd

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Channel applies loss, transmutation noise, and optional intercept-resend
// eavesdropping to each transmitted state. It is purely a per-qubit
// transformation: delivery, routing, and timing are outside the engine.
//
// Impairments apply in attack order: the eavesdropper sits on the line
// before loss and noise, so an intercepted-and-resent qubit can still be
// lost or flipped downstream.
type Channel struct {
	cfg      ChannelConfig
	protocol Protocol
	enc      Encoder

	lineRNG *rand.Rand // loss and noise draws
	eveRNG  *rand.Rand // interceptor basis choices and measurement branches

	// Intercepted counts qubits the eavesdropper measured this run.
	Intercepted int
}

// NewChannel builds a channel for one run, drawing from the run's
// partitioned RNG so that eavesdropper activity never perturbs loss or
// noise sequences for a given seed.
func NewChannel(cfg ChannelConfig, protocol Protocol, rng *PartitionedRNG) *Channel {
	return &Channel{
		cfg:      cfg,
		protocol: protocol,
		enc:      NewEncoder(protocol),
		lineRNG:  rng.ForSubsystem(SubsystemChannel),
		eveRNG:   rng.ForSubsystem(SubsystemEavesdropper),
	}
}

// Transmit carries one state across the channel, returning the possibly
// altered state or StateAbsent when the qubit is lost.
func (c *Channel) Transmit(pos int, state State) State {
	if state == StateAbsent {
		return StateAbsent
	}
	if c.cfg.InterceptProbability > 0 && c.eveRNG.Float64() < c.cfg.InterceptProbability {
		state = c.interceptResend(pos, state)
	}
	if c.cfg.LossProbability > 0 && c.lineRNG.Float64() < c.cfg.LossProbability {
		logrus.Debugf("channel: qubit %d lost in transmission", pos)
		return StateAbsent
	}
	if c.cfg.NoiseProbability > 0 && c.lineRNG.Float64() < c.cfg.NoiseProbability {
		flipped := c.flip(state)
		logrus.Debugf("channel: qubit %d bit-flip %v -> %v", pos, state, flipped)
		state = flipped
	}
	return state
}

// interceptResend models the standard attack: the eavesdropper measures in
// a random basis and forwards a re-encoding of whatever it observed. For
// B92 an inconclusive interception forces a guess, since the eavesdropper
// must put some state back on the line; the guess is what makes the attack
// detectable downstream.
func (c *Channel) interceptResend(pos int, state State) State {
	basis := Rectilinear
	if c.eveRNG.Intn(2) == 1 {
		basis = Diagonal
	}
	c.Intercepted++
	outcome := c.enc.Measure(state, basis, c.eveRNG)

	var bit Bit
	switch {
	case outcome.Conclusive():
		bit = outcome.Bit()
	default:
		bit = Bit(c.eveRNG.Intn(2))
	}
	resent := c.enc.Encode(bit, basis)
	logrus.Tracef("channel: qubit %d intercepted in %v basis, resent as %v", pos, basis, resent)
	return resent
}

// flip applies transmutation (bit-flip) noise within the active encoding:
// the state moves to the one encoding the opposite bit. For BB84 that is
// the orthogonal state in the same basis; for B92 the other code state.
func (c *Channel) flip(state State) State {
	if c.protocol == ProtocolB92 {
		if state == StateZero {
			return StatePlus
		}
		return StateZero
	}
	switch state {
	case StateZero:
		return StateOne
	case StateOne:
		return StateZero
	case StatePlus:
		return StateMinus
	default:
		return StatePlus
	}
}
