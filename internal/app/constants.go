package app

import "euchre/internal/domain"

// PlayersToStartGame is the number of occupied seats (humans or bots) a euchre table needs.
const PlayersToStartGame = domain.SeatCount

// DefaultPointsToWin is used when the game options leave the target score unset.
const DefaultPointsToWin = 10

// Points awarded at the end of a hand.
const (
	pointsMakersTook3     = 1
	pointsMakersMarch     = 2
	pointsMakersMarchSolo = 4
	pointsEuchre          = 2
	tricksToMake          = 3
)
