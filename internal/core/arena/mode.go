package arena

// Mode is the role a participant holds within a session.
type Mode uint8

const (
	// modeNone is the zero value of an unjoined participant.
	modeNone Mode = iota

	// ModePlaying participates in the match itself.
	ModePlaying

	// ModeEditing sets the session up; only valid while the session
	// is stopped or edited.
	ModeEditing

	// ModeSpectating observes a running match without playing.
	ModeSpectating
)

// String returns the lowercase mode name used in messages.
func (m Mode) String() string {
	switch m {
	case ModePlaying:
		return "playing"
	case ModeEditing:
		return "editing"
	case ModeSpectating:
		return "spectating"
	default:
		return "none"
	}
}
