package bot

import (
	"fmt"

	"euchre/internal/domain"
)

// StandardBot bids on hand strength and plays the cheapest card that takes the trick.
// With Memory set it also tracks played cards and leads trump only when it is boss.
type StandardBot struct {
	Tuning Tuning
	Memory *GameMemory
}

func (b *StandardBot) CalculateMove(game *domain.Game, player *domain.Player) (Move, error) {
	if game == nil || player == nil {
		return Move{}, fmt.Errorf("no game or player")
	}
	if b.Memory != nil {
		b.Memory.UpdateHand(player.Hand)
	}

	switch game.Phase {
	case domain.PhaseBidding:
		return b.bid(game, player), nil
	case domain.PhaseDiscard:
		if len(player.Hand) == 0 {
			return Move{}, fmt.Errorf("dealer has no cards to discard")
		}
		return Move{Kind: MoveDiscard, Card: bestDiscard(player.Hand, game.Trump.Suit)}, nil
	case domain.PhasePlaying:
		if len(player.Hand) == 0 || game.Trick == nil {
			return Move{}, fmt.Errorf("nothing to play")
		}
		return Move{Kind: MovePlay, Card: b.play(game, player)}, nil
	default:
		return Move{}, fmt.Errorf("no move in phase %s", game.Phase)
	}
}

func (b *StandardBot) OnEvent(event interface{}) {
	if b.Memory != nil {
		b.Memory.Observe(event)
	}
}

func (b *StandardBot) bid(game *domain.Game, player *domain.Player) Move {
	pass := Move{Kind: MoveBid, Choice: domain.ChoicePass}
	upcard := game.Upcard

	if game.BidRound <= 1 {
		trump := upcard.Suit
		var strength int
		if player.Seat == game.Dealer {
			strength = strengthWithUpcard(player.Hand, upcard)
		} else {
			strength = HandStrength(player.Hand, trump)
			if domain.TeamOf(game.Dealer) == domain.TeamOf(player.Seat) {
				strength += b.Tuning.DealerPartnerBonus
			} else {
				strength -= b.Tuning.DealerPartnerBonus
			}
		}
		if strength < b.Tuning.OrderUpThreshold {
			return pass
		}
		return Move{
			Kind:   MoveBid,
			Choice: domain.ChoiceOrderUp,
			Suit:   trump,
			Alone:  strength >= b.Tuning.AloneThreshold,
		}
	}

	best, bestStrength := domain.SuitNone, -1
	for _, s := range domain.Suits {
		if s == upcard.Suit {
			continue
		}
		if v := HandStrength(player.Hand, s); v > bestStrength {
			best, bestStrength = s, v
		}
	}
	if bestStrength < b.Tuning.NameSuitThreshold {
		return pass
	}
	return Move{
		Kind:   MoveBid,
		Choice: domain.ChoiceNameSuit,
		Suit:   best,
		Alone:  bestStrength >= b.Tuning.AloneThreshold,
	}
}

func (b *StandardBot) play(game *domain.Game, player *domain.Player) domain.Card {
	trick := game.Trick
	trump := game.Trump.Suit
	legal := domain.LegalPlays(player.Hand, trick.Lead, trump)

	if len(trick.Plays) == 0 {
		return b.lead(game, player, legal)
	}

	winning := trick.Plays[0]
	for _, p := range trick.Plays[1:] {
		if domain.CardPower(p.Card, trump, trick.Lead) > domain.CardPower(winning.Card, trump, trick.Lead) {
			winning = p
		}
	}
	if b.Tuning.CoverPartner && domain.TeamOf(winning.Seat) == domain.TeamOf(player.Seat) {
		return lowest(legal, trump, trick.Lead)
	}

	top := domain.CardPower(winning.Card, trump, trick.Lead)
	var beaters []domain.Card
	for _, c := range legal {
		if domain.CardPower(c, trump, trick.Lead) > top {
			beaters = append(beaters, c)
		}
	}
	if len(beaters) > 0 {
		return lowest(beaters, trump, trick.Lead)
	}
	return lowest(legal, trump, trick.Lead)
}

func (b *StandardBot) lead(game *domain.Game, player *domain.Player, legal []domain.Card) domain.Card {
	trump := game.Trump.Suit
	makers := domain.TeamOf(game.Trump.ChoosingSeat) == domain.TeamOf(player.Seat)

	var trumps, aces []domain.Card
	for _, c := range legal {
		switch {
		case domain.IsTrump(c, trump):
			trumps = append(trumps, c)
		case c.Rank == domain.RankAce:
			aces = append(aces, c)
		}
	}

	if makers && len(trumps) > 0 {
		top := highest(trumps, trump, trump)
		if b.Memory != nil && b.Memory.IsBoss(top, trump) {
			return top
		}
		if b.Memory == nil && domain.IsRightBower(top, trump) {
			return top
		}
	}
	if len(aces) > 0 {
		return aces[0]
	}
	return lowest(legal, trump, domain.SuitNone)
}
