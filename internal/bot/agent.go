package bot

import (
	"errors"
	"fmt"

	"euchre/internal/app"
	"euchre/internal/domain"
)

// ErrNotSeated is returned when the agent has no seat in the game.
var ErrNotSeated = errors.New("bot is not seated in this game")

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// Play asks the agent to calculate its move based on the current game state.
func (a *Agent) Play(game *domain.Game) (Move, error) {
	seat := game.SeatOf(a.ID)
	if seat < 0 {
		return Move{}, ErrNotSeated
	}
	return a.PlayAtSeat(game, seat)
}

// PlayAtSeat calculates a move for the player at seat, for agents not keyed by user id.
func (a *Agent) PlayAtSeat(game *domain.Game, seat int) (Move, error) {
	if seat < 0 || seat >= domain.SeatCount || game.Players[seat] == nil {
		return Move{}, ErrNotSeated
	}
	return a.Strategy.CalculateMove(game, game.Players[seat])
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(event interface{}) {
	a.Strategy.OnEvent(event)
}

// Apply submits move for seat through the app service.
func Apply(svc *app.Service, game *domain.Game, seat int, move Move) ([]app.Event, error) {
	switch move.Kind {
	case MoveBid:
		return svc.Bid(game, seat, move.Choice, move.Suit, move.Alone)
	case MoveDiscard:
		return svc.Discard(game, seat, move.Card)
	case MovePlay:
		return svc.PlayCard(game, seat, move.Card)
	default:
		return nil, fmt.Errorf("unsupported move kind %d", move.Kind)
	}
}

// FallbackMove is the first legal action for seat: a pass while bidding, the first
// card of the hand when discarding and the first legal card when playing.
func FallbackMove(game *domain.Game, seat int) (Move, bool) {
	if game == nil || seat < 0 || seat >= domain.SeatCount || game.Players[seat] == nil {
		return Move{}, false
	}
	hand := game.Players[seat].Hand
	switch game.Phase {
	case domain.PhaseBidding:
		return Move{Kind: MoveBid, Choice: domain.ChoicePass, Suit: domain.SuitNone}, true
	case domain.PhaseDiscard:
		if len(hand) == 0 {
			return Move{}, false
		}
		return Move{Kind: MoveDiscard, Card: hand[0]}, true
	case domain.PhasePlaying:
		if game.Trick == nil {
			return Move{}, false
		}
		legal := domain.LegalPlays(hand, game.Trick.Lead, game.Trump.Suit)
		if len(legal) == 0 {
			return Move{}, false
		}
		return Move{Kind: MovePlay, Card: legal[0]}, true
	default:
		return Move{}, false
	}
}
