package domain

// TeamID identifies one of the two partnerships.
type TeamID int

const (
	TeamA TeamID = iota // seats 0 and 2
	TeamB               // seats 1 and 3
)

func (id TeamID) String() string {
	if id == TeamA {
		return "A"
	}
	return "B"
}

// TeamOf returns the partnership a seat belongs to.
func TeamOf(seat int) TeamID {
	return TeamID(seat % 2)
}

// PartnerOf returns the seat across the table.
func PartnerOf(seat int) int {
	return (seat + 2) % SeatCount
}

// Team is a partnership of two seats and its running score.
// Score is mutated only by the authoritative hand controller.
type Team struct {
	ID      TeamID
	Seats   [2]int
	Score   int
	IsLocal bool
}

// NewTeam builds a team from two seats. localSeat is the observing player's seat, or -1 for none.
func NewTeam(id TeamID, seat0, seat1, localSeat, playerCount int) (*Team, error) {
	for _, s := range []int{seat0, seat1} {
		if s < 0 || s >= playerCount {
			return nil, newRuleError(ErrIndex, "NewTeam", "seat %d outside %d players", s, playerCount)
		}
	}
	if seat0 == seat1 {
		return nil, newRuleError(ErrIndex, "NewTeam", "seat %d used twice", seat0)
	}
	if localSeat < -1 || localSeat >= playerCount {
		return nil, newRuleError(ErrIndex, "NewTeam", "local seat %d outside %d players", localSeat, playerCount)
	}
	return &Team{
		ID:      id,
		Seats:   [2]int{seat0, seat1},
		IsLocal: seat0 == localSeat || seat1 == localSeat,
	}, nil
}

// AssembleTeams pairs seats {0,2} as team A and {1,3} as team B.
func AssembleTeams(localSeat int) ([2]*Team, error) {
	a, err := NewTeam(TeamA, 0, 2, localSeat, SeatCount)
	if err != nil {
		return [2]*Team{}, err
	}
	b, err := NewTeam(TeamB, 1, 3, localSeat, SeatCount)
	if err != nil {
		return [2]*Team{}, err
	}
	return [2]*Team{a, b}, nil
}

// Label is "Us" for the observing player's team and "Them" otherwise.
func (t *Team) Label() string {
	if t.IsLocal {
		return "Us"
	}
	return "Them"
}

// Has reports whether seat plays for t.
func (t *Team) Has(seat int) bool {
	return t.Seats[0] == seat || t.Seats[1] == seat
}

// AddPoints credits points to the team.
func (t *Team) AddPoints(points int) {
	t.Score += points
}

// Snapshot returns a copy detached from further score updates.
func (t *Team) Snapshot() Team {
	return *t
}
