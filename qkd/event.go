package qkd

import "github.com/sirupsen/logrus"

// Stage names the states of the run state machine.
type Stage string

const (
	StageInit         Stage = "INIT"
	StageTransmitting Stage = "TRANSMITTING"
	StageSifting      Stage = "SIFTING"
	StageEstimating   Stage = "ESTIMATING"
	StageKeyReady     Stage = "KEY_READY"
	StageAborted      Stage = "ABORTED"
	StageCancelled    Stage = "CANCELLED"
)

// Terminal reports whether the stage ends the run. Terminal stages accept
// no further transitions; another attempt means a fresh run.
func (s Stage) Terminal() bool {
	return s == StageKeyReady || s == StageAborted || s == StageCancelled
}

// StageEvent is emitted after each state transition for consumption by
// logging/UI layers. Payloads carry semantic quantities (counts, rates,
// positions), never presentation strings. Seq is a per-run sequence
// number; the engine is untimed.
type StageEvent struct {
	Stage   Stage
	Seq     int
	Payload Payload
}

// Payload is the stage-specific data of a StageEvent.
type Payload interface {
	stagePayload()
}

// TransmissionPayload reports the quantum phase: every position was sent
// and measured-or-lost, loss never blocks progress.
type TransmissionPayload struct {
	Sent      int
	Delivered int
	Lost      int
}

// SiftingPayload reports reconciliation output.
type SiftingPayload struct {
	SiftedLength int
	// Efficiency is sifted length over transmitted length.
	Efficiency float64
	// Positions are the retained transmission positions.
	Positions []int
}

// EstimatePayload reports the error-estimation stage. Insufficient is true
// when the sifted key was empty and no sample could be taken; the run then
// aborts on the next transition.
type EstimatePayload struct {
	Insufficient bool
	SampleSize   int
	Mismatches   int
	QBER         float64
	Verdict      Verdict
}

// TerminalPayload reports the final stage: KEY_READY, ABORTED, or
// CANCELLED.
type TerminalPayload struct {
	Verdict   Verdict
	Reason    string
	KeyLength int
}

func (TransmissionPayload) stagePayload() {}
func (SiftingPayload) stagePayload()      {}
func (EstimatePayload) stagePayload()     {}
func (TerminalPayload) stagePayload()     {}

// logEvent mirrors each transition into the structured log; events remain
// the API, logs are diagnostics.
func logEvent(ev StageEvent) {
	logrus.Infof("[seq %02d] stage %s", ev.Seq, ev.Stage)
	switch p := ev.Payload.(type) {
	case TransmissionPayload:
		logrus.Debugf("  sent=%d delivered=%d lost=%d", p.Sent, p.Delivered, p.Lost)
	case SiftingPayload:
		logrus.Debugf("  sifted=%d efficiency=%.4f", p.SiftedLength, p.Efficiency)
	case EstimatePayload:
		logrus.Debugf("  sample=%d mismatches=%d qber=%.4f verdict=%s", p.SampleSize, p.Mismatches, p.QBER, p.Verdict)
	case TerminalPayload:
		logrus.Debugf("  verdict=%s reason=%q key=%d bits", p.Verdict, p.Reason, p.KeyLength)
	}
}
