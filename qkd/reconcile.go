package qkd

import "fmt"

// SiftedKey is the ordered key material both parties retain after
// reconciliation. Sender and Receiver are always equal in length and,
// absent channel errors, equal in value. Positions indexes back into the
// TransmissionRecord for traceability.
type SiftedKey struct {
	Positions []int
	Sender    []Bit
	Receiver  []Bit
}

// Len returns the sifted key length.
func (k SiftedKey) Len() int {
	return len(k.Positions)
}

// A reconciler computes the sifted key from a transmission record using
// the protocol-specific retention predicate. BB84 and B92 differ only
// here and in the encoder, so the run state machine stays
// protocol-agnostic.
type reconciler interface {
	Sift(rec TransmissionRecord) (SiftedKey, error)
}

func newReconciler(p Protocol) reconciler {
	if p == ProtocolB92 {
		return b92Reconciler{}
	}
	return bb84Reconciler{}
}

// bb84Reconciler retains positions where the state arrived and the two
// disclosed basis choices agree. Only bases are disclosed; bit values stay
// secret. As an integrity check, the retained-position set is derived
// twice — once from each party's view of the disclosed lists — and any
// discrepancy fails the run rather than silently dropping positions.
type bb84Reconciler struct{}

func (bb84Reconciler) Sift(rec TransmissionRecord) (SiftedKey, error) {
	senderView := make([]int, 0, len(rec))
	for i, p := range rec {
		if p.Delivered && p.SenderBasis == p.ReceiverBasis {
			senderView = append(senderView, i)
		}
	}
	receiverView := make([]int, 0, len(rec))
	for i, p := range rec {
		if p.Outcome.Conclusive() && p.ReceiverBasis == p.SenderBasis {
			receiverView = append(receiverView, i)
		}
	}
	if err := crossCheck(senderView, receiverView); err != nil {
		return SiftedKey{}, err
	}

	key := SiftedKey{
		Positions: senderView,
		Sender:    make([]Bit, 0, len(senderView)),
		Receiver:  make([]Bit, 0, len(senderView)),
	}
	for _, i := range senderView {
		key.Sender = append(key.Sender, rec[i].SenderBit)
		key.Receiver = append(key.Receiver, rec[i].Outcome.Bit())
	}
	return key, nil
}

// crossCheck verifies that both independently derived retained-position
// sets agree. A mismatch means the classical exchange was corrupted or the
// records desynchronized; that is fatal, not a silent drop.
func crossCheck(a, b []int) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: retained sets differ in size (%d vs %d)", ErrIntegrity, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			return fmt.Errorf("%w: retained sets diverge at index %d (%d vs %d)", ErrIntegrity, i, a[i], b[i])
		}
	}
	return nil
}

// b92Reconciler retains exactly the conclusive positions. A conclusive B92
// outcome already determines the sender's bit, so the receiver reads its
// key straight off the outcomes and only the position list is disclosed.
// No sender-side bit comparison happens here: a wrong conclusive bit
// (noise, eavesdropping) must survive into the sifted key so that error
// estimation can see it.
type b92Reconciler struct{}

func (b92Reconciler) Sift(rec TransmissionRecord) (SiftedKey, error) {
	key := SiftedKey{}
	for i, p := range rec {
		if !p.Outcome.Conclusive() {
			continue
		}
		key.Positions = append(key.Positions, i)
		key.Sender = append(key.Sender, p.SenderBit)
		key.Receiver = append(key.Receiver, p.Outcome.Bit())
	}
	return key, nil
}
