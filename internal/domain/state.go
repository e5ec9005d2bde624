package domain

// Phase represents the lifecycle stage of a euchre table.
type Phase string

const (
	// PhaseLobby is the pre-game state where players can join.
	PhaseLobby Phase = "lobby"
	// PhaseBidding is the trump selection stage of a hand.
	PhaseBidding Phase = "bidding"
	// PhaseDiscard waits for the dealer to discard after trump was ordered up.
	PhaseDiscard Phase = "discard"
	// PhasePlaying is the trick-taking stage of a hand.
	PhasePlaying Phase = "playing"
	// PhaseEnded is the state after a team reached the winning score.
	PhaseEnded Phase = "ended"
	// PhaseAborted is set when a hand hit an internal inconsistency.
	PhaseAborted Phase = "aborted"
)

// ChoiceCode distinguishes the bidding actions.
type ChoiceCode int32

const (
	ChoicePass     ChoiceCode = 0
	ChoiceOrderUp  ChoiceCode = 1
	ChoiceNameSuit ChoiceCode = 2
)

func (c ChoiceCode) String() string {
	switch c {
	case ChoicePass:
		return "pass"
	case ChoiceOrderUp:
		return "order_up"
	case ChoiceNameSuit:
		return "name_suit"
	default:
		return "unknown"
	}
}

// TrumpSelection records who chose trump and how. Fixed for the rest of the hand once made.
type TrumpSelection struct {
	ChoosingSeat int
	Suit         Suit
	Choice       ChoiceCode
	Alone        bool
}

// Made reports whether a trump suit has been chosen.
func (ts TrumpSelection) Made() bool {
	return ts.Suit.Valid() && ts.Choice != ChoicePass
}

// Player holds the state for one seat.
type Player struct {
	UserID     string
	Seat       int
	Hand       []Card
	SittingOut bool
}

// Game is the authoritative state of a euchre game spanning several hands.
type Game struct {
	Phase       Phase
	Players     [SeatCount]*Player
	Teams       [2]*Team
	PointsToWin int
	Reward      int64
	HandNumber  int

	Dealer      int
	Upcard      Card
	Kitty       []Card
	BidRound    int
	Passes      int
	CurrentTurn int
	Trump       TrumpSelection

	Trick        *Trick
	TricksWon    [2]int
	TricksPlayed int
	Result       *GameResult
}

// Team returns the team a seat plays for.
func (g *Game) Team(seat int) *Team {
	return g.Teams[TeamOf(seat)]
}

// ActiveSeats counts players not sitting out this hand.
func (g *Game) ActiveSeats() int {
	n := 0
	for _, p := range g.Players {
		if p != nil && !p.SittingOut {
			n++
		}
	}
	return n
}

// NextActiveSeat returns the next seat clockwise from seat that is in play this hand.
func (g *Game) NextActiveSeat(seat int) int {
	for i := 1; i <= SeatCount; i++ {
		next := (seat + i) % SeatCount
		if p := g.Players[next]; p != nil && !p.SittingOut {
			return next
		}
	}
	return seat
}

// SeatOf returns the seat of userID or -1.
func (g *Game) SeatOf(userID string) int {
	for i, p := range g.Players {
		if p != nil && p.UserID == userID {
			return i
		}
	}
	return -1
}
