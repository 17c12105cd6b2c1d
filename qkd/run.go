package qkd

import (
	"sync/atomic"
)

// ProtocolResult is the terminal report of a run.
type ProtocolResult struct {
	// Status is the terminal stage: KEY_READY, ABORTED, or CANCELLED.
	Status Stage

	// Verdict is the security decision. An aborted run always carries
	// VerdictAbort; Reason distinguishes a noise/eavesdropping abort from
	// insufficient key material.
	Verdict Verdict
	Reason  string

	// FinalKey is the shared secret after removing disclosed positions, as
	// held by the sender; ReceiverKey is the receiver's copy. Below the
	// error threshold the two may still differ in residual positions —
	// error correction is downstream of this engine. An empty key with
	// Status KEY_READY is valid ("empty but secure").
	FinalKey    []Bit
	ReceiverKey []Bit

	QBER              float64
	SiftingEfficiency float64
}

// Run drives one protocol execution through the stage machine
//
//	INIT -> TRANSMITTING -> SIFTING -> ESTIMATING -> {ABORTED | KEY_READY}
//
// plus CANCELLED from any non-terminal stage boundary. Each Advance call
// performs the work of the next stage and emits one StageEvent. A Run is
// single-use and single-threaded; only Cancel may be called from another
// goroutine.
type Run struct {
	cfg        RunConfig
	rng        *PartitionedRNG
	enc        Encoder
	channel    *Channel
	reconciler reconciler

	sender   *Sender
	receiver *Receiver
	record   TransmissionRecord
	sifted   SiftedKey
	estimate ErrorEstimate

	stage     Stage
	seq       int
	cancelled atomic.Bool
	failure   error
	result    *ProtocolResult
	stats     Stats

	observers []func(StageEvent)
}

// NewRun validates cfg and constructs a run in StageInit. Validation
// failures never enter the state machine.
func NewRun(cfg RunConfig) (*Run, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := NewPartitionedRNG(NewRunKey(cfg.Seed))
	return &Run{
		cfg:        cfg,
		rng:        rng,
		enc:        NewEncoder(cfg.Protocol),
		channel:    NewChannel(cfg.Channel, cfg.Protocol, rng),
		reconciler: newReconciler(cfg.Protocol),
		stage:      StageInit,
	}, nil
}

// Stage returns the current stage.
func (r *Run) Stage() Stage {
	return r.stage
}

// Config returns the effective configuration, defaults applied.
func (r *Run) Config() RunConfig {
	return r.cfg
}

// Record returns the transmission record once the quantum phase has run.
func (r *Run) Record() TransmissionRecord {
	return r.record
}

// Sifted returns the sifted key once reconciliation has run.
func (r *Run) Sifted() SiftedKey {
	return r.sifted
}

// Stats returns the statistics accumulated so far.
func (r *Run) Stats() Stats {
	return r.stats
}

// AddObserver registers a callback invoked after every stage transition.
// Observers run synchronously on the driving goroutine but the run never
// depends on anything they do; they must not call back into the Run.
func (r *Run) AddObserver(fn func(StageEvent)) {
	r.observers = append(r.observers, fn)
}

// Cancel requests cancellation. It is checked at stage boundaries only; a
// stage in progress completes. Cancelling a terminal run is a no-op.
// Safe to call from any goroutine.
func (r *Run) Cancel() {
	r.cancelled.Store(true)
}

// Advance performs the next stage and returns its event. Once the run is
// terminal it returns ErrRunFinished; after an integrity failure it keeps
// returning that failure.
func (r *Run) Advance() (StageEvent, error) {
	if r.failure != nil {
		return StageEvent{}, r.failure
	}
	if r.stage.Terminal() {
		return StageEvent{}, ErrRunFinished
	}
	if r.cancelled.Load() {
		return r.finishCancelled(), nil
	}

	switch r.stage {
	case StageInit:
		return r.transmit(), nil
	case StageTransmitting:
		return r.sift()
	case StageSifting:
		return r.estimateStage(), nil
	default: // StageEstimating
		return r.finish(), nil
	}
}

// RunToCompletion drives Advance until a terminal stage and returns the
// result. Integrity failures surface as errors.
func (r *Run) RunToCompletion() (ProtocolResult, error) {
	for !r.stage.Terminal() {
		if _, err := r.Advance(); err != nil {
			return ProtocolResult{}, err
		}
	}
	return *r.result, nil
}

// Result returns the terminal report, or ErrRunNotFinished while the run
// is still in progress.
func (r *Run) Result() (ProtocolResult, error) {
	if r.failure != nil {
		return ProtocolResult{}, r.failure
	}
	if r.result == nil {
		return ProtocolResult{}, ErrRunNotFinished
	}
	return *r.result, nil
}

// transmit runs the whole quantum phase: the sender prepares and emits all
// N states in order, the channel impairs them, the receiver measures each.
// Loss never blocks progress; lost positions carry OutcomeLost.
func (r *Run) transmit() StageEvent {
	n := r.cfg.NumQubits
	r.sender = newSender(r.cfg.Protocol, r.enc, n, r.rng.ForSubsystem(SubsystemSender))
	r.receiver = newReceiver(n)
	recvRNG := r.rng.ForSubsystem(SubsystemReceiver)
	for i := 0; i < n; i++ {
		arrived := r.channel.Transmit(i, r.sender.States[i])
		r.receiver.measure(i, arrived, r.enc, recvRNG)
	}
	r.record = buildRecord(r.sender, r.receiver)

	delivered := r.record.delivered()
	r.stats.QubitsSent = n
	r.stats.Delivered = delivered
	r.stats.Lost = n - delivered
	r.stats.Intercepted = r.channel.Intercepted

	r.stage = StageTransmitting
	return r.emit(TransmissionPayload{Sent: n, Delivered: delivered, Lost: n - delivered})
}

// sift runs reconciliation. A BB84 cross-check discrepancy is fatal: the
// run freezes and every later call reports the integrity failure.
func (r *Run) sift() (StageEvent, error) {
	key, err := r.reconciler.Sift(r.record)
	if err != nil {
		r.failure = err
		return StageEvent{}, err
	}
	r.sifted = key
	r.stats.SiftedLength = key.Len()
	r.stats.SiftingEfficiency = float64(key.Len()) / float64(r.cfg.NumQubits)

	r.stage = StageSifting
	return r.emit(SiftingPayload{
		SiftedLength: key.Len(),
		Efficiency:   r.stats.SiftingEfficiency,
		Positions:    key.Positions,
	}), nil
}

// estimateStage samples the sifted key and records the verdict. An empty
// sifted key is reported as insufficient here; the abort happens on the
// next transition, keeping SIFTING -> ESTIMATING unconditional.
func (r *Run) estimateStage() StageEvent {
	est, ok := estimateErrorRate(r.sifted, r.cfg.SampleFraction, r.cfg.ErrorThreshold, r.rng.ForSubsystem(SubsystemEstimator))
	r.stage = StageEstimating
	if !ok {
		return r.emit(EstimatePayload{Insufficient: true, Verdict: VerdictAbort})
	}
	r.estimate = est
	r.stats.SampleSize = est.SampleSize
	r.stats.QBER = est.QBER
	return r.emit(EstimatePayload{
		SampleSize: est.SampleSize,
		Mismatches: est.Mismatches,
		QBER:       est.QBER,
		Verdict:    est.Verdict,
	})
}

// finish resolves the terminal stage from the estimation outcome.
func (r *Run) finish() StageEvent {
	if r.sifted.Len() == 0 {
		return r.terminate(StageAborted, VerdictAbort, ReasonInsufficientData, nil, nil)
	}
	if r.estimate.Verdict == VerdictAbort {
		return r.terminate(StageAborted, VerdictAbort, ReasonErrorRate, nil, nil)
	}
	final := extractKey(r.sifted.Sender, r.estimate.SampledIndices)
	receiver := extractKey(r.sifted.Receiver, r.estimate.SampledIndices)
	return r.terminate(StageKeyReady, VerdictProceed, "", final, receiver)
}

func (r *Run) finishCancelled() StageEvent {
	return r.terminate(StageCancelled, VerdictAbort, ReasonCancelled, nil, nil)
}

func (r *Run) terminate(stage Stage, verdict Verdict, reason string, final, receiver []Bit) StageEvent {
	r.stage = stage
	r.result = &ProtocolResult{
		Status:            stage,
		Verdict:           verdict,
		Reason:            reason,
		FinalKey:          final,
		ReceiverKey:       receiver,
		QBER:              r.stats.QBER,
		SiftingEfficiency: r.stats.SiftingEfficiency,
	}
	r.stats.FinalKeyLength = len(final)
	if stage == StageKeyReady {
		r.stats.SecureBitEstimate = secureBitEstimate(len(final), r.stats.QBER)
	}
	return r.emit(TerminalPayload{Verdict: verdict, Reason: reason, KeyLength: len(final)})
}

// emit numbers the event, logs it, and fans it out to observers.
func (r *Run) emit(payload Payload) StageEvent {
	r.seq++
	ev := StageEvent{Stage: r.stage, Seq: r.seq, Payload: payload}
	logEvent(ev)
	for _, fn := range r.observers {
		fn(ev)
	}
	return ev
}
