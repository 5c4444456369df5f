package model

// GenerationStage is the progress of the in-flight response.
// Stages only move forward: idle -> thinking -> searching -> responding -> idle.
type GenerationStage int

const (
	StageIdle GenerationStage = iota
	StageThinking
	StageSearching
	StageResponding
)

func (s GenerationStage) String() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageThinking:
		return "Thinking..."
	case StageSearching:
		return "Searching..."
	case StageResponding:
		return "Responding..."
	default:
		return "Unknown"
	}
}

// Next returns the stage that follows s. Responding wraps to idle.
func (s GenerationStage) Next() GenerationStage {
	switch s {
	case StageThinking:
		return StageSearching
	case StageSearching:
		return StageResponding
	default:
		return StageIdle
	}
}
