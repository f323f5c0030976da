package arena

// Phase is the lifecycle state of a session.
type Phase uint8

const (
	// PhaseStopped means the session is idle with no participants.
	PhaseStopped Phase = iota

	// PhaseLobby means the session is counting down to the match.
	PhaseLobby

	// PhasePlayed means the match is running.
	PhasePlayed

	// PhaseEdited means the session is being set up by editors.
	PhaseEdited
)

// String returns the lowercase phase name used in messages and logs.
func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "stopped"
	case PhaseLobby:
		return "lobby"
	case PhasePlayed:
		return "played"
	case PhaseEdited:
		return "edited"
	default:
		return "unknown"
	}
}
