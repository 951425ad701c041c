package domain

// TurnState is the phase of the voice loop. Exactly one is active per
// controller.
type TurnState int

const (
	TurnIdle TurnState = iota
	TurnCapturing
	TurnTranscribing
	TurnInterpreting
	TurnSpeaking
)

// String returns a human-readable turn state.
func (s TurnState) String() string {
	switch s {
	case TurnIdle:
		return "idle"
	case TurnCapturing:
		return "capturing"
	case TurnTranscribing:
		return "transcribing"
	case TurnInterpreting:
		return "interpreting"
	case TurnSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}
