package trace

// Summary aggregates statistics from a RunTrace.
type Summary struct {
	Transitions int
	FinalStage  string
	Verdict     string
	Reason      string
	QBER        float64
	KeyLength   int
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *Summary {
	summary := &Summary{}
	if rt == nil || len(rt.Stages) == 0 {
		return summary
	}

	summary.Transitions = len(rt.Stages)
	for _, rec := range rt.Stages {
		if rec.QBER > 0 || rec.SampleSize > 0 {
			summary.QBER = rec.QBER
		}
	}
	last := rt.Stages[len(rt.Stages)-1]
	summary.FinalStage = last.Stage
	summary.Verdict = last.Verdict
	summary.Reason = last.Reason
	summary.KeyLength = last.KeyLength

	return summary
}
