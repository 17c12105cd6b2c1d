// Package trace provides stage-event recording for post-run inspection.
// This package has no dependencies on qkd/ — it stores pure data types and
// is fed through an observer adapter on the consumer side.
package trace

// Level controls the verbosity of stage tracing.
type Level string

const (
	// LevelNone disables tracing (zero overhead).
	LevelNone Level = "none"
	// LevelStages captures one record per stage transition.
	LevelStages Level = "stages"
)

// validLevels maps accepted trace level strings.
var validLevels = map[Level]bool{
	LevelNone:   true,
	LevelStages: true,
	"":          true, // empty defaults to none
}

// IsValidLevel returns true if the given level string is a recognized
// trace level.
func IsValidLevel(level string) bool {
	return validLevels[Level(level)]
}

// Config controls trace collection behavior.
type Config struct {
	Level Level
}

// RunTrace collects stage records during a protocol run.
type RunTrace struct {
	Config Config
	Stages []StageRecord
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace(config Config) *RunTrace {
	return &RunTrace{
		Config: config,
		Stages: make([]StageRecord, 0),
	}
}

// RecordStage appends a stage transition record.
func (rt *RunTrace) RecordStage(record StageRecord) {
	rt.Stages = append(rt.Stages, record)
}
