package cmd

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qkd-sim/qkd-sim/qkd"
	"github.com/qkd-sim/qkd-sim/qkd/trace"
)

var (
	// CLI flags for run configuration
	protocol       string  // Protocol variant (bb84, b92)
	numQubits      int     // Number of qubit positions transmitted
	seed           int64   // Seed for deterministic replay
	logLevel       string  // Log verbosity level
	lossProb       float64 // Per-qubit loss probability
	noiseProb      float64 // Per-qubit bit-flip probability
	interceptProb  float64 // Per-qubit intercept-resend probability
	errorThreshold float64 // QBER above which the run aborts
	sampleFraction float64 // Fraction of the sifted key disclosed for estimation
	trials         int     // Number of independent runs
	parallelism    int     // Max concurrent trials (0 = GOMAXPROCS)

	// CLI flags for scenario presets and tracing
	scenariosFilePath string // YAML file with named scenario presets
	scenarioName      string // Preset to run from the scenarios file
	traceLevel        string // Stage trace level (none, stages)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "qkd-sim",
	Short: "Simulation engine for BB84/B92 quantum key distribution",
}

// runCmd executes one run or a batch of trials from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a QKD protocol simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		cfg := buildRunConfig()

		if trials > 1 {
			summary, _, err := qkd.RunExperiment(qkd.ExperimentConfig{
				Base:        cfg,
				Trials:      trials,
				Parallelism: parallelism,
			})
			if err != nil {
				logrus.Fatalf("experiment failed: %v", err)
			}
			summary.Print()
			return
		}

		run, err := qkd.NewRun(cfg)
		if err != nil {
			logrus.Fatalf("invalid run configuration: %v", err)
		}

		var rt *trace.RunTrace
		if trace.Level(traceLevel) == trace.LevelStages {
			rt = trace.NewRunTrace(trace.Config{Level: trace.LevelStages})
			run.AddObserver(stageRecorder(rt))
		}

		result, err := run.RunToCompletion()
		if err != nil {
			if errors.Is(err, qkd.ErrIntegrity) {
				logrus.Fatalf("protocol integrity failure: %v", err)
			}
			logrus.Fatalf("run failed: %v", err)
		}

		stats := run.Stats()
		stats.Print(cfg.Protocol, result)
		if rt != nil {
			printTrace(rt)
		}
	},
}

// buildRunConfig assembles the run configuration from flags, with an
// optional scenario preset overriding flag values.
func buildRunConfig() qkd.RunConfig {
	proto, err := qkd.ParseProtocol(protocol)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	cfg := qkd.RunConfig{
		Protocol:  proto,
		NumQubits: numQubits,
		Channel: qkd.ChannelConfig{
			LossProbability:      lossProb,
			NoiseProbability:     noiseProb,
			InterceptProbability: interceptProb,
		},
		ErrorThreshold: errorThreshold,
		SampleFraction: sampleFraction,
		Seed:           seed,
	}

	if scenarioName != "" {
		scenario, err := GetScenario(scenariosFilePath, scenarioName)
		if err != nil {
			logrus.Fatalf("unable to load scenario %q: %v", scenarioName, err)
		}
		logrus.Infof("Using preset scenario %v", scenarioName)
		cfg = scenario.Apply(cfg)
		if scenario.Trials > 0 {
			trials = scenario.Trials
		}
	}
	return cfg
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&protocol, "protocol", "bb84", "Protocol variant (bb84, b92)")
	runCmd.Flags().IntVar(&numQubits, "qubits", 256, "Number of qubit positions to transmit")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for deterministic replay")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Channel configs
	runCmd.Flags().Float64Var(&lossProb, "loss", 0, "Per-qubit loss probability in [0,1]")
	runCmd.Flags().Float64Var(&noiseProb, "noise", 0, "Per-qubit bit-flip probability in [0,1]")
	runCmd.Flags().Float64Var(&interceptProb, "intercept", 0, "Per-qubit intercept-resend probability in [0,1] (1 = full eavesdropping)")

	// Post-processing configs
	runCmd.Flags().Float64Var(&errorThreshold, "threshold", qkd.DefaultErrorThreshold, "QBER threshold above which the run aborts")
	runCmd.Flags().Float64Var(&sampleFraction, "sample-fraction", qkd.DefaultSampleFraction, "Fraction of the sifted key sacrificed for error estimation")

	// Experiment configs
	runCmd.Flags().IntVar(&trials, "trials", 1, "Number of independent runs (seeds base..base+n-1)")
	runCmd.Flags().IntVar(&parallelism, "parallelism", 0, "Max concurrent trials (0 = GOMAXPROCS)")

	// Presets and tracing
	runCmd.Flags().StringVar(&scenariosFilePath, "scenarios", "scenarios.yaml", "YAML file with named scenario presets")
	runCmd.Flags().StringVar(&scenarioName, "scenario", "", "Named scenario preset to run")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Stage trace level (none, stages)")

	rootCmd.AddCommand(runCmd)
}
