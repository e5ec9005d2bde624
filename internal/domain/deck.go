package domain

import (
	"math/rand"
	"sort"
)

const (
	// DeckSize is the number of cards in a euchre deck.
	DeckSize = 24
	// HandSize is the number of cards dealt to each seat.
	HandSize = 5
	// SeatCount is the number of seats at the table.
	SeatCount = 4
)

// SuitInfo is display metadata for a suit.
type SuitInfo struct {
	Suit   Suit
	Name   string
	Symbol string
	Code   string
	Color  Color
}

var suitTable = map[Suit]SuitInfo{
	SuitHearts:   {Suit: SuitHearts, Name: "hearts", Symbol: "♥", Code: "H", Color: ColorRed},
	SuitDiamonds: {Suit: SuitDiamonds, Name: "diamonds", Symbol: "♦", Code: "D", Color: ColorRed},
	SuitClubs:    {Suit: SuitClubs, Name: "clubs", Symbol: "♣", Code: "C", Color: ColorBlack},
	SuitSpades:   {Suit: SuitSpades, Name: "spades", Symbol: "♠", Code: "S", Color: ColorBlack},
}

// LookupBySuit returns display metadata for s.
func LookupBySuit(s Suit) (SuitInfo, bool) {
	info, ok := suitTable[s]
	return info, ok
}

// Deck is an ordered sequence of cards.
type Deck []Card

// NewDeck returns the 24-card deck sorted by suit then rank.
func NewDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Validate checks that d holds every (suit, rank) pair exactly once.
func (d Deck) Validate() error {
	if len(d) != DeckSize {
		return newRuleError(ErrConfiguration, "Deck.Validate", "deck has %d cards, want %d", len(d), DeckSize)
	}
	seen := make(map[Card]struct{}, len(d))
	for _, c := range d {
		if _, err := NewCard(c.Suit, c.Rank); err != nil {
			return err
		}
		if _, dup := seen[c]; dup {
			return newRuleError(ErrConfiguration, "Deck.Validate", "card %s appears twice", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// Shuffle permutes d in place: for each index i, swap with a uniform pick from [i, len).
func (d Deck) Shuffle(rng *rand.Rand) {
	n := len(d)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(n-i)
		d[i], d[j] = d[j], d[i]
	}
}

// ShuffledDeck returns a freshly built and shuffled deck.
func ShuffledDeck(rng *rand.Rand) Deck {
	d := NewDeck()
	d.Shuffle(rng)
	return d
}

// FromTransportPair rebuilds a card from its wire (suit, rank) pair.
// Pairs outside the canonical deck are rejected.
func FromTransportPair(suit, rank int32) (Card, error) {
	for _, c := range canonicalDeck {
		if int32(c.Suit) == suit && int32(c.Rank) == rank {
			return c, nil
		}
	}
	return Card{}, newRuleError(ErrInput, "FromTransportPair", "unknown card (suit=%d, rank=%d)", suit, rank)
}

// TransportPair is the inverse of FromTransportPair.
func (c Card) TransportPair() (int32, int32) {
	return int32(c.Suit), int32(c.Rank)
}

var canonicalDeck = NewDeck()

// Deal is the result of dealing one hand.
type Deal struct {
	Dealer int
	Hands  [SeatCount][]Card
	Kitty  []Card
}

// Upcard is the card turned face up for the first bidding round.
func (d Deal) Upcard() Card {
	return d.Kitty[0]
}

// DealHand hands out HandSize cards per seat one at a time, starting left of dealer.
// The remaining cards form the kitty.
func DealHand(deck Deck, dealer int) (Deal, error) {
	if err := deck.Validate(); err != nil {
		return Deal{}, err
	}
	if dealer < 0 || dealer >= SeatCount {
		return Deal{}, newRuleError(ErrIndex, "DealHand", "dealer seat %d out of range", dealer)
	}

	deal := Deal{Dealer: dealer}
	idx := 0
	for round := 0; round < HandSize; round++ {
		for offset := 1; offset <= SeatCount; offset++ {
			seat := (dealer + offset) % SeatCount
			deal.Hands[seat] = append(deal.Hands[seat], deck[idx])
			idx++
		}
	}
	deal.Kitty = append([]Card(nil), deck[idx:]...)
	return deal, nil
}

// SortHand orders a hand by suit, then rank.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Less(cards[j])
	})
}
