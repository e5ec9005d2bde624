package domain

// Power bands. Bands never overlap, so cards from different bands never tie.
const (
	PowerRightBower = 100
	PowerLeftBower  = 99
	powerTrumpBase  = 90
	powerLeadBase   = 50
	powerOffBase    = 10
)

// CardPower scores card for a fixed trump and lead suit. Higher wins the trick.
//
//	right bower            100
//	left bower              99
//	other trump        90+rank
//	lead suit          50+rank
//	anything else      10+rank
func CardPower(card Card, trump, lead Suit) int {
	switch {
	case IsRightBower(card, trump):
		return PowerRightBower
	case IsLeftBower(card, trump):
		return PowerLeftBower
	case trump.Valid() && card.Suit == trump:
		return powerTrumpBase + int(card.Rank)
	case lead.Valid() && card.Suit == lead:
		return powerLeadBase + int(card.Rank)
	default:
		return powerOffBase + int(card.Rank)
	}
}

// LeadSuit is the effective suit of the first card in a trick.
func LeadSuit(first Card, trump Suit) Suit {
	return EffectiveSuit(first, trump)
}

// Play is a card together with the seat that played it.
type Play struct {
	Seat int
	Card Card
}

// ResolveTrick returns the play with the strictly highest power.
// An empty trick or a repeated card is an input error; a tie for the top is a consistency error.
func ResolveTrick(plays []Play, trump, lead Suit) (Play, error) {
	if len(plays) == 0 {
		return Play{}, newRuleError(ErrInput, "ResolveTrick", "no cards played")
	}

	seen := make(map[Card]struct{}, len(plays))
	best := -1
	bestPower := -1
	tied := false
	for i, p := range plays {
		if _, dup := seen[p.Card]; dup {
			return Play{}, newRuleError(ErrInput, "ResolveTrick", "card %s played twice", p.Card)
		}
		seen[p.Card] = struct{}{}

		power := CardPower(p.Card, trump, lead)
		switch {
		case power > bestPower:
			best, bestPower, tied = i, power, false
		case power == bestPower:
			tied = true
		}
	}

	if tied {
		return Play{}, newRuleError(ErrConsistency, "ResolveTrick", "top power %d shared by more than one card", bestPower)
	}
	return plays[best], nil
}

// LegalPlays returns the cards in hand that may be played onto a trick led in lead.
// A player holding the lead suit (by effective suit) must follow it; otherwise any card is legal.
// With no lead yet (lead == SuitNone) the whole hand is legal.
func LegalPlays(hand []Card, lead, trump Suit) []Card {
	if !lead.Valid() {
		return append([]Card(nil), hand...)
	}

	var following []Card
	for _, c := range hand {
		if EffectiveSuit(c, trump) == lead {
			following = append(following, c)
		}
	}
	if len(following) == 0 {
		return append([]Card(nil), hand...)
	}
	return following
}

// Trick accumulates the plays of one trick. The lead suit is fixed by the first card.
type Trick struct {
	Trump Suit
	Lead  Suit
	Size  int // number of plays that complete the trick
	Plays []Play
}

// NewTrick starts an empty trick that completes after size plays.
func NewTrick(trump Suit, size int) *Trick {
	return &Trick{Trump: trump, Lead: SuitNone, Size: size}
}

// Add appends a play, fixing the lead suit on the first one.
func (t *Trick) Add(seat int, card Card) error {
	if t.Complete() {
		return newRuleError(ErrInput, "Trick.Add", "trick already holds %d cards", t.Size)
	}
	for _, p := range t.Plays {
		if p.Seat == seat {
			return newRuleError(ErrInput, "Trick.Add", "seat %d already played", seat)
		}
	}
	if len(t.Plays) == 0 {
		t.Lead = LeadSuit(card, t.Trump)
	}
	t.Plays = append(t.Plays, Play{Seat: seat, Card: card})
	return nil
}

// Complete reports whether every expected play is in.
func (t *Trick) Complete() bool {
	return len(t.Plays) >= t.Size
}

// Winner resolves a complete trick.
func (t *Trick) Winner() (Play, error) {
	if !t.Complete() {
		return Play{}, newRuleError(ErrInput, "Trick.Winner", "trick has %d of %d cards", len(t.Plays), t.Size)
	}
	return ResolveTrick(t.Plays, t.Trump, t.Lead)
}

// Cards returns the cards of the trick in play order.
func (t *Trick) Cards() []Card {
	out := make([]Card, len(t.Plays))
	for i, p := range t.Plays {
		out[i] = p.Card
	}
	return out
}
