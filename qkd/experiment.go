package qkd

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// ExperimentConfig describes a batch of independent trials of one run
// configuration. Trial i runs with seed Base.Seed+i, so a whole experiment
// is reproducible from the base seed alone.
type ExperimentConfig struct {
	Base   RunConfig
	Trials int

	// Parallelism caps concurrent trials; 0 means GOMAXPROCS. Trials are
	// embarrassingly parallel: each has its own RNG and party/channel
	// state, nothing is shared.
	Parallelism int
}

// TrialResult is the outcome of one trial.
type TrialResult struct {
	Trial  int
	Seed   int64
	Result ProtocolResult
	Err    error
}

// ExperimentSummary aggregates trial outcomes.
type ExperimentSummary struct {
	Trials   int
	KeyReady int
	Aborted  int
	Failed   int

	AbortRate float64

	// Mean/stddev over trials that produced an estimate (not failed).
	MeanQBER   float64
	StdDevQBER float64

	// Mean final key length over KEY_READY trials.
	MeanKeyLength float64
}

// RunExperiment executes cfg.Trials independent runs concurrently and
// aggregates their statistics. Individual run failures (integrity errors)
// are collected per trial, not fatal to the experiment.
func RunExperiment(cfg ExperimentConfig) (ExperimentSummary, []TrialResult, error) {
	if cfg.Trials <= 0 {
		return ExperimentSummary{}, nil, fmt.Errorf("%w: trials must be > 0, got %d", ErrConfiguration, cfg.Trials)
	}
	workers := cfg.Parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	results := make([]TrialResult, cfg.Trials)
	trials := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range trials {
				results[i] = runTrial(cfg.Base, i)
			}
		}()
	}
	for i := 0; i < cfg.Trials; i++ {
		trials <- i
	}
	close(trials)
	wg.Wait()

	return summarize(results), results, nil
}

func runTrial(base RunConfig, trial int) TrialResult {
	cfg := base
	cfg.Seed = base.Seed + int64(trial)
	tr := TrialResult{Trial: trial, Seed: cfg.Seed}

	run, err := NewRun(cfg)
	if err != nil {
		tr.Err = err
		return tr
	}
	tr.Result, tr.Err = run.RunToCompletion()
	return tr
}

func summarize(results []TrialResult) ExperimentSummary {
	s := ExperimentSummary{Trials: len(results)}
	qbers := make([]float64, 0, len(results))
	keyLens := make([]float64, 0, len(results))
	for _, tr := range results {
		switch {
		case tr.Err != nil:
			s.Failed++
		case tr.Result.Status == StageKeyReady:
			s.KeyReady++
			qbers = append(qbers, tr.Result.QBER)
			keyLens = append(keyLens, float64(len(tr.Result.FinalKey)))
		default:
			s.Aborted++
			qbers = append(qbers, tr.Result.QBER)
		}
	}
	if done := s.KeyReady + s.Aborted; done > 0 {
		s.AbortRate = float64(s.Aborted) / float64(done)
	}
	if len(qbers) > 0 {
		s.MeanQBER = stat.Mean(qbers, nil)
		if len(qbers) > 1 {
			s.StdDevQBER = stat.StdDev(qbers, nil)
		}
	}
	if len(keyLens) > 0 {
		s.MeanKeyLength = stat.Mean(keyLens, nil)
	}
	return s
}

// Print displays the experiment report.
func (s ExperimentSummary) Print() {
	fmt.Println("=== QKD Experiment Summary ===")
	fmt.Printf("Trials               : %d\n", s.Trials)
	fmt.Printf("Key ready / aborted  : %d / %d\n", s.KeyReady, s.Aborted)
	if s.Failed > 0 {
		fmt.Printf("Failed               : %d\n", s.Failed)
	}
	fmt.Printf("Abort rate           : %.4f\n", s.AbortRate)
	fmt.Printf("Mean QBER            : %.4f (stddev %.4f)\n", s.MeanQBER, s.StdDevQBER)
	fmt.Printf("Mean final key bits  : %.1f\n", s.MeanKeyLength)
}
