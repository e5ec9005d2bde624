package domain

// TeamRole is the part a team plays in the current hand.
type TeamRole int32

const (
	RoleNone      TeamRole = 0
	RoleMakers    TeamRole = 1
	RoleDefenders TeamRole = 2
)

// TeamRecord is the replicated per-team state shared with every participant.
type TeamRecord struct {
	Seat0 int
	Seat1 int
	Score int
	Role  TeamRole
	Solo  bool
}

// TrumpRecord is the replicated trump selection.
type TrumpRecord struct {
	ChoosingSeat int
	Suit         Suit
	ChoiceCode   ChoiceCode
}

// TeamRecords derives the replicated records for both teams from game state.
func TeamRecords(g *Game) [2]TeamRecord {
	var out [2]TeamRecord
	for i, t := range g.Teams {
		if t == nil {
			continue
		}
		rec := TeamRecord{Seat0: t.Seats[0], Seat1: t.Seats[1], Score: t.Score}
		if g.Trump.Made() {
			if t.Has(g.Trump.ChoosingSeat) {
				rec.Role = RoleMakers
				rec.Solo = g.Trump.Alone
			} else {
				rec.Role = RoleDefenders
			}
		}
		out[i] = rec
	}
	return out
}

// Record converts the selection to its replicated form.
func (ts TrumpSelection) Record() TrumpRecord {
	return TrumpRecord{ChoosingSeat: ts.ChoosingSeat, Suit: ts.Suit, ChoiceCode: ts.Choice}
}

// TeamFromRecord rebuilds a team as seen by the player at localSeat.
func TeamFromRecord(id TeamID, rec TeamRecord, localSeat int) (*Team, error) {
	t, err := NewTeam(id, rec.Seat0, rec.Seat1, localSeat, SeatCount)
	if err != nil {
		return nil, err
	}
	t.Score = rec.Score
	return t, nil
}
