package qkd

import "fmt"

// Defaults applied by RunConfig.withDefaults when the corresponding field
// is left zero. The 0.11 threshold is the 11% BB84 security bound; half the
// sifted key is the customary sacrifice for error estimation.
var (
	DefaultErrorThreshold = 0.11
	DefaultSampleFraction = 0.5
)

// ChannelConfig groups the transmission impairments applied per qubit.
type ChannelConfig struct {
	// LossProbability is the chance a qubit never arrives.
	LossProbability float64 `yaml:"loss_probability"`

	// NoiseProbability is the chance of a bit-flip within the encoding
	// (transmutation noise).
	NoiseProbability float64 `yaml:"noise_probability"`

	// InterceptProbability is the chance an eavesdropper performs an
	// intercept-resend attack on a qubit. 1 models full interception,
	// 0 (the default) no eavesdropper.
	InterceptProbability float64 `yaml:"intercept_probability"`
}

// RunConfig fixes every parameter of a single protocol run. All entities
// of a run are created fresh from it; nothing is shared across runs.
type RunConfig struct {
	// Protocol selects the variant: ProtocolBB84 or ProtocolB92.
	Protocol Protocol

	// NumQubits is the number of positions transmitted. Must be > 0.
	NumQubits int

	// Channel configures loss, noise, and eavesdropping.
	Channel ChannelConfig

	// ErrorThreshold is the sampled error rate above which the run aborts.
	// Zero means DefaultErrorThreshold.
	ErrorThreshold float64

	// SampleFraction is the fraction of the sifted key disclosed for error
	// estimation, in (0,1]. Zero means DefaultSampleFraction.
	SampleFraction float64

	// Seed determines every random draw of the run via PartitionedRNG.
	Seed int64
}

// withDefaults returns a copy with zero-valued tunables replaced by the
// package defaults, mirroring how unset options pick up defaults elsewhere.
func (c RunConfig) withDefaults() RunConfig {
	if c.ErrorThreshold == 0 {
		c.ErrorThreshold = DefaultErrorThreshold
	}
	if c.SampleFraction == 0 {
		c.SampleFraction = DefaultSampleFraction
	}
	return c
}

// validate rejects configurations that must never enter the state machine.
func (c RunConfig) validate() error {
	if c.Protocol != ProtocolBB84 && c.Protocol != ProtocolB92 {
		return fmt.Errorf("%w: unknown protocol %q", ErrConfiguration, string(c.Protocol))
	}
	if c.NumQubits <= 0 {
		return fmt.Errorf("%w: num qubits must be > 0, got %d", ErrConfiguration, c.NumQubits)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"loss_probability", c.Channel.LossProbability},
		{"noise_probability", c.Channel.NoiseProbability},
		{"intercept_probability", c.Channel.InterceptProbability},
	} {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrConfiguration, p.name, p.value)
		}
	}
	if c.ErrorThreshold <= 0 || c.ErrorThreshold >= 1 {
		return fmt.Errorf("%w: error threshold must be in (0,1), got %v", ErrConfiguration, c.ErrorThreshold)
	}
	if c.SampleFraction <= 0 || c.SampleFraction > 1 {
		return fmt.Errorf("%w: sample fraction must be in (0,1], got %v", ErrConfiguration, c.SampleFraction)
	}
	return nil
}
