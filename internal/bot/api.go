package bot

import (
	"euchre/internal/domain"
)

// MoveKind tells the match which service call a Move maps to.
type MoveKind int

const (
	MoveNone MoveKind = iota
	MoveBid
	MoveDiscard
	MovePlay
)

// Move represents the decision made by the AI.
type Move struct {
	Kind   MoveKind
	Choice domain.ChoiceCode
	Suit   domain.Suit
	Alone  bool
	Card   domain.Card
}

// Brain is the interface that all bot strategies must implement.
// CalculateMove is only called when it is the player's turn to act in the current phase.
type Brain interface {
	CalculateMove(game *domain.Game, player *domain.Player) (Move, error)
	OnEvent(event interface{})
}

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelEasy BotLevel = iota
	BotLevelStandard
	BotLevelSmart
)

// LevelFor maps an identity difficulty string to a level. Unknown values play standard.
func LevelFor(difficulty string) BotLevel {
	switch difficulty {
	case "easy":
		return BotLevelEasy
	case "hard", "smart":
		return BotLevelSmart
	default:
		return BotLevelStandard
	}
}
