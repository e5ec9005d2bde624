package domain

import "fmt"

// Suit is a card suit. SuitNone marks "no suit assigned" and never appears on a dealt card.
type Suit int32

const (
	SuitNone Suit = iota
	SuitHearts
	SuitDiamonds
	SuitClubs
	SuitSpades
)

// Suits lists the four playable suits in canonical deck order.
var Suits = [4]Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Valid reports whether s is one of the four playable suits.
func (s Suit) Valid() bool {
	return s >= SuitHearts && s <= SuitSpades
}

func (s Suit) String() string {
	if info, ok := LookupBySuit(s); ok {
		return info.Name
	}
	return "none"
}

// Rank is a card rank ordered low to high. The numeric value feeds card power directly.
type Rank int32

const (
	RankNine Rank = iota
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
)

// Ranks lists the six ranks from low to high.
var Ranks = [6]Rank{RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce}

// Valid reports whether r is one of the six Euchre ranks.
func (r Rank) Valid() bool {
	return r >= RankNine && r <= RankAce
}

func (r Rank) String() string {
	switch r {
	case RankNine:
		return "9"
	case RankTen:
		return "10"
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	case RankAce:
		return "A"
	default:
		return fmt.Sprintf("Rank(%d)", int32(r))
	}
}

// Color is the color of a suit.
type Color uint8

const (
	ColorNone Color = iota
	ColorRed
	ColorBlack
)

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorBlack:
		return "black"
	default:
		return "none"
	}
}

// ColorOf returns the color of s.
func ColorOf(s Suit) Color {
	switch s {
	case SuitHearts, SuitDiamonds:
		return ColorRed
	case SuitClubs, SuitSpades:
		return ColorBlack
	default:
		return ColorNone
	}
}

// Card is an immutable (suit, rank) value. Two cards with the same suit and rank are the same card.
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard builds a card, rejecting SuitNone and unknown ranks.
func NewCard(suit Suit, rank Rank) (Card, error) {
	if !suit.Valid() {
		return Card{}, newRuleError(ErrConfiguration, "NewCard", "suit %d is not a playable suit", int32(suit))
	}
	if !rank.Valid() {
		return Card{}, newRuleError(ErrConfiguration, "NewCard", "rank %d is not a euchre rank", int32(rank))
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// MustCard is NewCard for literals known to be valid. It panics otherwise.
func MustCard(suit Suit, rank Rank) Card {
	c, err := NewCard(suit, rank)
	if err != nil {
		panic(err)
	}
	return c
}

// Color is derived from the suit.
func (c Card) Color() Color {
	return ColorOf(c.Suit)
}

// Key is a stable ordering key over (suit, rank), unique within the deck.
func (c Card) Key() int {
	return int(c.Suit)*len(Ranks) + int(c.Rank)
}

// Index is the card's position 0..DeckSize-1 in NewDeck order.
func (c Card) Index() int {
	return (int(c.Suit)-int(SuitHearts))*len(Ranks) + int(c.Rank)
}

// Equal compares suit and rank only.
func (c Card) Equal(other Card) bool {
	return c.Suit == other.Suit && c.Rank == other.Rank
}

// Less orders cards by suit, then rank.
func (c Card) Less(other Card) bool {
	return c.Key() < other.Key()
}

func (c Card) String() string {
	info, ok := LookupBySuit(c.Suit)
	if !ok {
		return c.Rank.String() + "?"
	}
	return c.Rank.String() + info.Symbol
}

// RemoveCards removes the specified cards from a hand and returns the updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// ContainsCard reports whether hand holds card.
func ContainsCard(hand []Card, card Card) bool {
	for _, c := range hand {
		if c.Equal(card) {
			return true
		}
	}
	return false
}
