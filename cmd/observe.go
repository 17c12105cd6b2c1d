package cmd

import (
	"fmt"

	"github.com/qkd-sim/qkd-sim/qkd"
	"github.com/qkd-sim/qkd-sim/qkd/trace"
)

// stageRecorder adapts run stage events into trace records. The trace
// package stores pure data types, so the mapping lives with the consumer.
func stageRecorder(rt *trace.RunTrace) func(qkd.StageEvent) {
	return func(ev qkd.StageEvent) {
		rec := trace.StageRecord{Seq: ev.Seq, Stage: string(ev.Stage)}
		switch p := ev.Payload.(type) {
		case qkd.TransmissionPayload:
			rec.Sent = p.Sent
			rec.Delivered = p.Delivered
			rec.Lost = p.Lost
		case qkd.SiftingPayload:
			rec.SiftedLength = p.SiftedLength
			rec.Efficiency = p.Efficiency
		case qkd.EstimatePayload:
			rec.SampleSize = p.SampleSize
			rec.Mismatches = p.Mismatches
			rec.QBER = p.QBER
			rec.Insufficient = p.Insufficient
			rec.Verdict = string(p.Verdict)
		case qkd.TerminalPayload:
			rec.Verdict = string(p.Verdict)
			rec.Reason = p.Reason
			rec.KeyLength = p.KeyLength
		}
		rt.RecordStage(rec)
	}
}

// printTrace displays the recorded stage transitions and their summary.
func printTrace(rt *trace.RunTrace) {
	fmt.Println("=== Stage Trace ===")
	for _, rec := range rt.Stages {
		fmt.Printf("[%02d] %s\n", rec.Seq, rec.Stage)
	}
	s := trace.Summarize(rt)
	fmt.Printf("Transitions: %d, final stage: %s, QBER: %.4f\n", s.Transitions, s.FinalStage, s.QBER)
}
