package qkd

import "errors"

var (
	// ErrConfiguration marks invalid run parameters: non-positive qubit
	// counts, probabilities outside [0,1], unknown protocol selectors.
	// It is reported by NewRun before any state machine exists.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrIntegrity marks a BB84 reconciliation disagreement: the two
	// parties derived different retained-position sets from the disclosed
	// basis lists. Fatal for the run and distinct from a noise abort.
	ErrIntegrity = errors.New("reconciliation integrity failure")

	// ErrRunNotFinished is returned by Result before the run reaches a
	// terminal stage.
	ErrRunNotFinished = errors.New("run has not reached a terminal stage")

	// ErrRunFinished is returned by Advance once the run is terminal.
	ErrRunFinished = errors.New("run already reached a terminal stage")
)

// ReasonInsufficientData is the abort reason when the sifted key is too
// short to sample. Recoverable by re-running with more qubits or a less
// lossy channel, so it is an abort reason rather than an error value.
const ReasonInsufficientData = "insufficient key material"

// ReasonErrorRate is the abort reason when the sampled error rate exceeds
// the configured threshold. An expected, correctly-handled outcome.
const ReasonErrorRate = "error rate above threshold"

// ReasonCancelled is the terminal reason for a caller-cancelled run.
const ReasonCancelled = "cancelled by caller"
