package bot

import (
	"euchre/internal/domain"
)

// trumpBase is subtracted from trump card power so the nine of trump scores 5
// and the right bower 15.
const trumpBase = 85

const (
	offSuitAceValue = 4
	voidValue       = 2
)

// HandStrength scores hand as if trump were named: trump cards by power,
// off-suit aces, and voids once two trumps are held.
func HandStrength(hand []domain.Card, trump domain.Suit) int {
	score := 0
	trumps := 0
	suits := make(map[domain.Suit]bool)
	for _, c := range hand {
		if domain.IsTrump(c, trump) {
			trumps++
			score += domain.CardPower(c, trump, trump) - trumpBase
			continue
		}
		suits[c.Suit] = true
		if c.Rank == domain.RankAce {
			score += offSuitAceValue
		}
	}
	if trumps >= 2 {
		for _, s := range domain.Suits {
			if s != trump && !suits[s] {
				score += voidValue
			}
		}
	}
	return score
}

// bestDiscard returns the card the holder would give up from hand under trump:
// the weakest off-suit card, preferring singletons so a void opens up.
func bestDiscard(hand []domain.Card, trump domain.Suit) domain.Card {
	counts := make(map[domain.Suit]int)
	for _, c := range hand {
		if !domain.IsTrump(c, trump) {
			counts[c.Suit]++
		}
	}

	best := hand[0]
	bestScore := discardScore(best, trump, counts)
	for _, c := range hand[1:] {
		if s := discardScore(c, trump, counts); s < bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

func discardScore(c domain.Card, trump domain.Suit, counts map[domain.Suit]int) int {
	power := domain.CardPower(c, trump, domain.SuitNone)
	if domain.IsTrump(c, trump) {
		return power * 10
	}
	if c.Rank == domain.RankAce {
		power += 20
	}
	if counts[c.Suit] == 1 {
		power -= 3
	}
	return power
}

// strengthWithUpcard scores the hand the dealer would hold after picking up upcard.
func strengthWithUpcard(hand []domain.Card, upcard domain.Card) int {
	trump := upcard.Suit
	held := append(append([]domain.Card(nil), hand...), upcard)
	drop := bestDiscard(held, trump)
	return HandStrength(domain.RemoveCards(held, []domain.Card{drop}), trump)
}

func lowest(cards []domain.Card, trump, lead domain.Suit) domain.Card {
	low := cards[0]
	for _, c := range cards[1:] {
		if domain.CardPower(c, trump, lead) < domain.CardPower(low, trump, lead) {
			low = c
		}
	}
	return low
}

func highest(cards []domain.Card, trump, lead domain.Suit) domain.Card {
	high := cards[0]
	for _, c := range cards[1:] {
		if domain.CardPower(c, trump, lead) > domain.CardPower(high, trump, lead) {
			high = c
		}
	}
	return high
}
