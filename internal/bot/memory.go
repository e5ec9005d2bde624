package bot

import (
	"euchre/internal/app"
	"euchre/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // We don't know who has it
	StatusMine                      // In the bot's hand
	StatusPlayed                    // Already on the table
)

// GameMemory stores the bot's private view of the current hand.
type GameMemory struct {
	// DeckStatus tracks all 24 cards, indexed by Card.Index.
	DeckStatus [domain.DeckSize]CardStatus
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{}
}

// Reset clears the memory for a new hand.
func (m *GameMemory) Reset() {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
}

// MarkPlayed records cards that have been played on the table.
func (m *GameMemory) MarkPlayed(cards ...domain.Card) {
	for _, c := range cards {
		m.DeckStatus[c.Index()] = StatusPlayed
	}
}

// UpdateHand marks hand as Mine and releases cards that were Mine but are no longer held.
func (m *GameMemory) UpdateHand(hand []domain.Card) {
	for i, status := range m.DeckStatus {
		if status == StatusMine {
			m.DeckStatus[i] = StatusUnknown
		}
	}
	for _, c := range hand {
		if m.DeckStatus[c.Index()] != StatusPlayed {
			m.DeckStatus[c.Index()] = StatusMine
		}
	}
}

// IsBoss reports whether no unseen card can beat card when it leads under trump.
func (m *GameMemory) IsBoss(card domain.Card, trump domain.Suit) bool {
	lead := domain.LeadSuit(card, trump)
	power := domain.CardPower(card, trump, lead)
	for _, other := range domain.NewDeck() {
		if other.Equal(card) || m.DeckStatus[other.Index()] != StatusUnknown {
			continue
		}
		if domain.CardPower(other, trump, lead) > power {
			return false
		}
	}
	return true
}

// Observe feeds a match event into memory.
func (m *GameMemory) Observe(event interface{}) {
	ev, ok := event.(app.Event)
	if !ok {
		return
	}
	switch ev.Kind {
	case app.EventBiddingStarted:
		m.Reset()
	case app.EventCardPlayed:
		if p, ok := ev.Payload.(app.CardPlayedPayload); ok {
			m.MarkPlayed(p.Card)
		}
	}
}
