package domain

// Winner names the team that won a game, if any.
type Winner int

const (
	WinnerNone Winner = iota
	WinnerTeamA
	WinnerTeamB
)

func (w Winner) String() string {
	switch w {
	case WinnerTeamA:
		return "A"
	case WinnerTeamB:
		return "B"
	default:
		return "none"
	}
}

// GameResult is the terminal record of a game. The reward comes from the ledger and is only recorded here.
type GameResult struct {
	TeamA  Team
	TeamB  Team
	Winner Winner
	Reward int64
}

// Finalize snapshots both teams and names the higher score the winner.
// Equal scores produce WinnerNone rather than favouring either team.
func Finalize(teamA, teamB *Team, reward int64) GameResult {
	result := GameResult{
		TeamA:  teamA.Snapshot(),
		TeamB:  teamB.Snapshot(),
		Reward: reward,
	}
	switch {
	case teamA.Score > teamB.Score:
		result.Winner = WinnerTeamA
	case teamB.Score > teamA.Score:
		result.Winner = WinnerTeamB
	default:
		result.Winner = WinnerNone
	}
	return result
}

// WinningTeam returns the winner's snapshot, or false on a tie.
func (r GameResult) WinningTeam() (Team, bool) {
	switch r.Winner {
	case WinnerTeamA:
		return r.TeamA, true
	case WinnerTeamB:
		return r.TeamB, true
	default:
		return Team{}, false
	}
}

// LocalWon reports whether the observing player's team won.
func (r GameResult) LocalWon() bool {
	t, ok := r.WinningTeam()
	return ok && t.IsLocal
}
