package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qkd-sim/qkd-sim/qkd"
)

func TestGetScenario_LoadsPreset(t *testing.T) {
	s, err := GetScenario(filepath.Join("testdata", "scenarios.yaml"), "eavesdropped-b92")
	require.NoError(t, err)

	assert.Equal(t, "b92", s.Protocol)
	assert.Equal(t, 200, s.Qubits)
	require.NotNil(t, s.InterceptProbability)
	assert.Equal(t, 1.0, *s.InterceptProbability)
	require.NotNil(t, s.ErrorThreshold)
	assert.Equal(t, 0.15, *s.ErrorThreshold)
	assert.Equal(t, 4, s.Trials)
	assert.Nil(t, s.Seed, "unset fields stay nil")
}

func TestGetScenario_UnknownName(t *testing.T) {
	_, err := GetScenario(filepath.Join("testdata", "scenarios.yaml"), "nope")
	assert.Error(t, err)
}

func TestGetScenario_MissingFile(t *testing.T) {
	_, err := GetScenario(filepath.Join("testdata", "absent.yaml"), "ideal-bb84")
	assert.Error(t, err)
}

func TestGetScenario_StrictParsingRejectsTypos(t *testing.T) {
	_, err := GetScenario(filepath.Join("testdata", "scenarios_typo.yaml"), "typo-scenario")
	assert.Error(t, err, "unknown fields must fail, not silently default")
}

func TestScenario_ApplyOverlaysOnlySetFields(t *testing.T) {
	// GIVEN a base config from flags and a partial scenario
	base := qkd.RunConfig{
		Protocol:       qkd.ProtocolBB84,
		NumQubits:      256,
		ErrorThreshold: 0.11,
		SampleFraction: 0.5,
		Seed:           42,
	}
	intercept := 1.0
	s := &Scenario{Protocol: "b92", Qubits: 200, InterceptProbability: &intercept}

	// WHEN applied
	got := s.Apply(base)

	// THEN scenario fields win and unset fields keep flag values
	assert.Equal(t, qkd.ProtocolB92, got.Protocol)
	assert.Equal(t, 200, got.NumQubits)
	assert.Equal(t, 1.0, got.Channel.InterceptProbability)
	assert.Equal(t, 0.11, got.ErrorThreshold)
	assert.Equal(t, 0.5, got.SampleFraction)
	assert.Equal(t, int64(42), got.Seed)
}
