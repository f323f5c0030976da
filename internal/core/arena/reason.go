package arena

// Control is the tagged result hooks return to steer event pipelines.
// Handled means the event is fully dealt with and default processing
// must not continue for this call.
type Control uint8

const (
	// Continue lets default processing carry on.
	Continue Control = iota

	// Handled stops further processing of the triggering event.
	Handled
)

// LeaveReason explains why a participant leaves a session. The
// capability flags decide whether the leaver may convert to a
// spectator and whether the reward path runs.
type LeaveReason struct {
	name     string
	message  string
	spectate bool
	reward   bool
}

// Name returns the stable reason identifier.
func (r *LeaveReason) Name() string { return r.name }

// Message returns the user-facing template, empty when the reason is
// silent. Templates may contain {session}, {deaths} and
// {lacking_players} placeholders.
func (r *LeaveReason) Message() string { return r.message }

// CanSpectate reports whether the leaver may stay as a spectator.
func (r *LeaveReason) CanSpectate() bool { return r.spectate }

// CanReward reports whether the reward path runs for this reason.
func (r *LeaveReason) CanReward() bool { return r.reward }

func (r *LeaveReason) String() string { return r.name }

var (
	// LeaveTimer fires when the match duration ran out.
	LeaveTimer = &LeaveReason{name: "timer", message: "The session timer has run out! Thank you for playing.", reward: true}

	// LeaveNoLivesLeft fires when a participant died past the lives
	// limit.
	LeaveNoLivesLeft = &LeaveReason{name: "no_lives_left", message: "You have died {deaths} times and the game is now over for you!", spectate: true, reward: true}

	// LeaveNoClass fires when no class was selected or assignable in
	// time.
	LeaveNoClass = &LeaveReason{name: "no_class", message: "You did not select a class in time!"}

	// LeaveNoTeam fires when no team was selected or assignable in
	// time.
	LeaveNoTeam = &LeaveReason{name: "no_team", message: "You did not select a team in time!"}

	// LeaveNotEnoughPlayers fires when the lobby failed to reach the
	// minimum participant threshold.
	LeaveNotEnoughPlayers = &LeaveReason{name: "not_enough_players", message: "Session could not start, lacking {lacking_players}!"}

	// LeaveDisconnect fires when the participant disconnected from
	// the host.
	LeaveDisconnect = &LeaveReason{name: "disconnect"}

	// LeaveLastStanding fires for the last participant alive.
	LeaveLastStanding = &LeaveReason{name: "last_standing", message: "Congratulations for winning the session {session}!", reward: true}

	// LeaveLastTeamStanding fires for the winning team's members.
	LeaveLastTeamStanding = &LeaveReason{name: "last_team_standing", message: "Congratulations! Your team won the game!", reward: true}

	// LeaveOtherTeamsLeft fires when every other team abandoned the
	// match.
	LeaveOtherTeamsLeft = &LeaveReason{name: "other_teams_left", message: "All other teams have left the session!", reward: true}

	// LeaveObjectiveDestroyed fires when the participant's objective
	// was destroyed.
	LeaveObjectiveDestroyed = &LeaveReason{name: "objective_destroyed", message: "Your objective got destroyed!", spectate: true}

	// LeaveEscape fires when the participant moved out of the session
	// bounds.
	LeaveEscape = &LeaveReason{name: "escape", message: "We have detected you moved away from the session {session} and your game is now over!"}

	// LeaveCommand fires when the participant left voluntarily.
	LeaveCommand = &LeaveReason{name: "command", message: "You have left the session {session}."}

	// LeaveEditStop fires when an editor stopped editing.
	LeaveEditStop = &LeaveReason{name: "edit_stop", message: "You are no longer editing session {session}."}

	// LeaveSessionStop is the generic reason used when the session
	// stops for causes with no dedicated leave reason.
	LeaveSessionStop = &LeaveReason{name: "session_stop", message: "The session {session} has been stopped. Thank you for playing."}
)

// StopReason explains why a session stops.
type StopReason struct {
	name string
}

// Name returns the stable reason identifier.
func (r *StopReason) Name() string { return r.name }

func (r *StopReason) String() string { return r.name }

var (
	// StopTimer means the game duration ran out.
	StopTimer = &StopReason{name: "timer"}

	// StopCommand means an operator stopped the session.
	StopCommand = &StopReason{name: "command"}

	// StopLastPlayerLeft means the session emptied out.
	StopLastPlayerLeft = &StopReason{name: "last_player_left"}

	// StopLastTeamStanding means one team eliminated all others.
	StopLastTeamStanding = &StopReason{name: "last_team_standing"}

	// StopOtherTeamsLeft means every other team abandoned the match.
	StopOtherTeamsLeft = &StopReason{name: "other_teams_left"}

	// StopNotEnoughPlayers means the lobby missed its minimum.
	StopNotEnoughPlayers = &StopReason{name: "not_enough_players"}

	// StopError means an internal error forced the session down.
	StopError = &StopReason{name: "error"}

	// StopReload means the host is reloading the engine.
	StopReload = &StopReason{name: "reload"}

	// StopPlugin covers external causes such as shutdown or API use.
	StopPlugin = &StopReason{name: "plugin"}
)

// leaveReasonByName maps reason names shared between the two
// taxonomies. Stop reasons without a counterpart fall back to
// LeaveSessionStop.
var leaveReasonByName = map[string]*LeaveReason{
	LeaveTimer.name:            LeaveTimer,
	LeaveCommand.name:          LeaveCommand,
	LeaveLastTeamStanding.name: LeaveLastTeamStanding,
	LeaveOtherTeamsLeft.name:   LeaveOtherTeamsLeft,
	// Explicit override: the stop reason shares its name with a leave
	// reason carrying a different message, keep them linked anyway.
	StopNotEnoughPlayers.name: LeaveNotEnoughPlayers,
}

// LeaveReason translates the stop reason into the leave reason used
// to evict remaining participants.
func (r *StopReason) LeaveReason() *LeaveReason {
	if leave, ok := leaveReasonByName[r.name]; ok {
		return leave
	}

	return LeaveSessionStop
}
