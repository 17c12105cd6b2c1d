package qkd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idealConfig(p Protocol, n int) RunConfig {
	return RunConfig{
		Protocol:       p,
		NumQubits:      n,
		ErrorThreshold: 0.11,
		SampleFraction: 0.5,
		Seed:           42,
	}
}

func TestNewRun_ConfigurationErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  RunConfig
	}{
		{"zero qubits", RunConfig{Protocol: ProtocolBB84, NumQubits: 0}},
		{"negative qubits", RunConfig{Protocol: ProtocolBB84, NumQubits: -5}},
		{"unknown protocol", RunConfig{Protocol: "e91", NumQubits: 10}},
		{"loss out of range", RunConfig{Protocol: ProtocolBB84, NumQubits: 10, Channel: ChannelConfig{LossProbability: 1.5}}},
		{"negative noise", RunConfig{Protocol: ProtocolBB84, NumQubits: 10, Channel: ChannelConfig{NoiseProbability: -0.1}}},
		{"intercept out of range", RunConfig{Protocol: ProtocolBB84, NumQubits: 10, Channel: ChannelConfig{InterceptProbability: 2}}},
		{"threshold too high", RunConfig{Protocol: ProtocolBB84, NumQubits: 10, ErrorThreshold: 1}},
		{"sample fraction too high", RunConfig{Protocol: ProtocolBB84, NumQubits: 10, SampleFraction: 1.1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewRun(c.cfg)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNewRun_AppliesDefaults(t *testing.T) {
	run, err := NewRun(RunConfig{Protocol: ProtocolBB84, NumQubits: 16})
	require.NoError(t, err)
	assert.Equal(t, DefaultErrorThreshold, run.Config().ErrorThreshold)
	assert.Equal(t, DefaultSampleFraction, run.Config().SampleFraction)
}

func TestRun_IdealBB84Scenario(t *testing.T) {
	// GIVEN 100 qubits over a clean channel, threshold 0.11, sampling half
	run, err := NewRun(idealConfig(ProtocolBB84, 100))
	require.NoError(t, err)

	// WHEN the run completes
	result, err := run.RunToCompletion()
	require.NoError(t, err)

	// THEN the key is ready with zero observed error
	assert.Equal(t, StageKeyReady, result.Status)
	assert.Equal(t, VerdictProceed, result.Verdict)
	assert.Equal(t, 0.0, result.QBER, "no mismatched-basis bits survive sifting on a clean channel")

	// AND the sifted key is near half the transmission
	sifted := run.Sifted()
	assert.InDelta(t, 50, sifted.Len(), 20)
	assert.Equal(t, sifted.Sender, sifted.Receiver, "both parties hold identical sifted keys")

	// AND the final key is the sifted key minus the disclosed sample
	sample := int(math.Ceil(0.5 * float64(sifted.Len())))
	assert.Len(t, result.FinalKey, sifted.Len()-sample)
	assert.Equal(t, result.FinalKey, result.ReceiverKey)
}

func TestRun_IdealB92Scenario(t *testing.T) {
	// GIVEN a clean-channel B92 run
	run, err := NewRun(idealConfig(ProtocolB92, 400))
	require.NoError(t, err)

	// WHEN it completes
	result, err := run.RunToCompletion()
	require.NoError(t, err)

	// THEN conclusive outcomes decode the sender bits exactly
	assert.Equal(t, StageKeyReady, result.Status)
	assert.Equal(t, 0.0, result.QBER)
	assert.Equal(t, result.FinalKey, result.ReceiverKey)

	// AND sifting efficiency is near the 25% theoretical maximum
	assert.InDelta(t, 0.25, result.SiftingEfficiency, 0.1)
}

func TestRun_StageProgressionAndEvents(t *testing.T) {
	// GIVEN an observer collecting every stage event
	run, err := NewRun(idealConfig(ProtocolBB84, 64))
	require.NoError(t, err)
	var events []StageEvent
	run.AddObserver(func(ev StageEvent) { events = append(events, ev) })

	// WHEN the run is driven step by step
	stages := []Stage{StageTransmitting, StageSifting, StageEstimating, StageKeyReady}
	for _, want := range stages {
		ev, err := run.Advance()
		require.NoError(t, err)
		assert.Equal(t, want, ev.Stage)
		assert.Equal(t, want, run.Stage())
	}

	// THEN observers saw the same ordered sequence with increasing seq
	require.Len(t, events, 4)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Seq)
		assert.Equal(t, stages[i], ev.Stage)
	}

	// AND payload types match their stages
	assert.IsType(t, TransmissionPayload{}, events[0].Payload)
	assert.IsType(t, SiftingPayload{}, events[1].Payload)
	assert.IsType(t, EstimatePayload{}, events[2].Payload)
	assert.IsType(t, TerminalPayload{}, events[3].Payload)

	// AND advancing a terminal run fails
	_, err = run.Advance()
	assert.ErrorIs(t, err, ErrRunFinished)
}

func TestRun_ResultBeforeTerminal(t *testing.T) {
	run, err := NewRun(idealConfig(ProtocolBB84, 16))
	require.NoError(t, err)

	_, err = run.Result()
	assert.ErrorIs(t, err, ErrRunNotFinished)

	_, err = run.RunToCompletion()
	require.NoError(t, err)
	result, err := run.Result()
	require.NoError(t, err)
	assert.True(t, result.Status.Terminal())
}

func TestRun_DeterministicReplay(t *testing.T) {
	// GIVEN two runs with identical configuration and seed
	cfg := idealConfig(ProtocolBB84, 128)
	cfg.Channel = ChannelConfig{LossProbability: 0.1, NoiseProbability: 0.02, InterceptProbability: 0.3}

	r1, err := NewRun(cfg)
	require.NoError(t, err)
	res1, err := r1.RunToCompletion()
	require.NoError(t, err)

	r2, err := NewRun(cfg)
	require.NoError(t, err)
	res2, err := r2.RunToCompletion()
	require.NoError(t, err)

	// THEN records, sifted keys, and results are identical
	assert.Equal(t, r1.Record(), r2.Record())
	assert.Equal(t, r1.Sifted(), r2.Sifted())
	assert.Equal(t, res1, res2)
}

func TestRun_SubsystemIsolation(t *testing.T) {
	// Enabling the eavesdropper must not perturb the sender's bits and
	// bases for the same seed: the RNG streams are partitioned.
	clean, err := NewRun(idealConfig(ProtocolBB84, 64))
	require.NoError(t, err)
	_, err = clean.RunToCompletion()
	require.NoError(t, err)

	tapped := idealConfig(ProtocolBB84, 64)
	tapped.Channel.InterceptProbability = 1
	attacked, err := NewRun(tapped)
	require.NoError(t, err)
	_, _ = attacked.RunToCompletion()

	cleanRec, attackedRec := clean.Record(), attacked.Record()
	require.Equal(t, len(cleanRec), len(attackedRec))
	for i := range cleanRec {
		assert.Equal(t, cleanRec[i].SenderBit, attackedRec[i].SenderBit, "position %d", i)
		assert.Equal(t, cleanRec[i].SenderBasis, attackedRec[i].SenderBasis, "position %d", i)
	}
}

func TestRun_FullInterceptResendBB84Aborts(t *testing.T) {
	// GIVEN full intercept-resend eavesdropping on a large BB84 run
	cfg := idealConfig(ProtocolBB84, 1000)
	cfg.Channel.InterceptProbability = 1

	// WHEN the run completes
	run, err := NewRun(cfg)
	require.NoError(t, err)
	result, err := run.RunToCompletion()
	require.NoError(t, err)

	// THEN the sampled error rate sits near the 25% intercept-resend
	// signature and the run aborts under the 0.11 threshold
	assert.Equal(t, StageAborted, result.Status)
	assert.Equal(t, VerdictAbort, result.Verdict)
	assert.Equal(t, ReasonErrorRate, result.Reason)
	assert.InDelta(t, 0.25, result.QBER, 0.1)
	assert.Empty(t, result.FinalKey)
}

func TestRun_FullInterceptResendB92Aborts(t *testing.T) {
	// Full intercept-resend on B92 pushes the conclusive-outcome error
	// rate well above any reasonable threshold (≈3/8 in this model).
	cfg := idealConfig(ProtocolB92, 400)
	cfg.Channel.InterceptProbability = 1
	cfg.ErrorThreshold = 0.15

	run, err := NewRun(cfg)
	require.NoError(t, err)
	result, err := run.RunToCompletion()
	require.NoError(t, err)

	assert.Equal(t, StageAborted, result.Status)
	assert.Equal(t, ReasonErrorRate, result.Reason)
	assert.Greater(t, result.QBER, 0.15)
}

func TestRun_FullNoiseAborts(t *testing.T) {
	// Every matched-basis bit arrives flipped: QBER 1.
	cfg := idealConfig(ProtocolBB84, 128)
	cfg.Channel.NoiseProbability = 1

	run, err := NewRun(cfg)
	require.NoError(t, err)
	result, err := run.RunToCompletion()
	require.NoError(t, err)

	assert.Equal(t, StageAborted, result.Status)
	assert.Equal(t, 1.0, result.QBER)
}

func TestRun_FullLossAbortsWithInsufficientData(t *testing.T) {
	// GIVEN a channel that loses every qubit
	cfg := idealConfig(ProtocolBB84, 64)
	cfg.Channel.LossProbability = 1

	run, err := NewRun(cfg)
	require.NoError(t, err)

	// WHEN the run completes
	result, err := run.RunToCompletion()
	require.NoError(t, err)

	// THEN the empty sifted key aborts the run with a distinct reason
	assert.Equal(t, StageAborted, result.Status)
	assert.Equal(t, ReasonInsufficientData, result.Reason)
	assert.Equal(t, 0.0, result.SiftingEfficiency)
}

func TestRun_CancelBeforeStart(t *testing.T) {
	run, err := NewRun(idealConfig(ProtocolBB84, 64))
	require.NoError(t, err)

	run.Cancel()
	ev, err := run.Advance()
	require.NoError(t, err)

	assert.Equal(t, StageCancelled, ev.Stage)
	result, err := run.Result()
	require.NoError(t, err)
	assert.Equal(t, StageCancelled, result.Status)
	assert.Equal(t, ReasonCancelled, result.Reason)
}

func TestRun_CancelBetweenStages(t *testing.T) {
	// GIVEN a run that finished its quantum phase
	run, err := NewRun(idealConfig(ProtocolBB84, 64))
	require.NoError(t, err)
	_, err = run.Advance()
	require.NoError(t, err)
	require.Equal(t, StageTransmitting, run.Stage())

	// WHEN cancelled before sifting
	run.Cancel()
	ev, err := run.Advance()
	require.NoError(t, err)

	// THEN the run terminates as CANCELLED, distinct from ABORTED
	assert.Equal(t, StageCancelled, ev.Stage)

	// AND cancelling again changes nothing
	run.Cancel()
	_, err = run.Advance()
	assert.ErrorIs(t, err, ErrRunFinished)
}

func TestRun_StatsReflectRun(t *testing.T) {
	cfg := idealConfig(ProtocolBB84, 100)
	run, err := NewRun(cfg)
	require.NoError(t, err)
	result, err := run.RunToCompletion()
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 100, stats.QubitsSent)
	assert.Equal(t, 100, stats.Delivered)
	assert.Equal(t, 0, stats.Lost)
	assert.Equal(t, run.Sifted().Len(), stats.SiftedLength)
	assert.Equal(t, len(result.FinalKey), stats.FinalKeyLength)
	assert.Equal(t, len(result.FinalKey), stats.SecureBitEstimate, "zero QBER keeps every undisclosed bit")
}

func TestTheoreticalEfficiency(t *testing.T) {
	assert.Equal(t, 0.5, TheoreticalEfficiency(ProtocolBB84))
	assert.Equal(t, 0.25, TheoreticalEfficiency(ProtocolB92))
}
