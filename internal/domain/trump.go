package domain

// SameColorSuit returns the other suit of the same color: Spades<->Clubs, Hearts<->Diamonds.
func SameColorSuit(s Suit) Suit {
	switch s {
	case SuitSpades:
		return SuitClubs
	case SuitClubs:
		return SuitSpades
	case SuitHearts:
		return SuitDiamonds
	case SuitDiamonds:
		return SuitHearts
	default:
		return SuitNone
	}
}

// IsRightBower reports whether card is the Jack of the trump suit.
func IsRightBower(card Card, trump Suit) bool {
	return trump.Valid() && card.Rank == RankJack && card.Suit == trump
}

// IsLeftBower reports whether card is the Jack of the trump suit's same-color partner.
func IsLeftBower(card Card, trump Suit) bool {
	if !trump.Valid() || card.Rank != RankJack || card.Suit == trump {
		return false
	}
	return card.Suit == SameColorSuit(trump)
}

// IsTrump reports whether card ranks as trump, counting the left bower.
func IsTrump(card Card, trump Suit) bool {
	if !trump.Valid() {
		return false
	}
	return card.Suit == trump || IsLeftBower(card, trump)
}

// EffectiveSuit is the suit a card counts as for following suit and ranking.
// The left bower belongs to the trump suit; every other card keeps its own suit.
func EffectiveSuit(card Card, trump Suit) Suit {
	if IsLeftBower(card, trump) {
		return trump
	}
	return card.Suit
}

// RightBower returns the Jack of trump.
func RightBower(trump Suit) Card {
	return Card{Suit: trump, Rank: RankJack}
}

// LeftBower returns the Jack of trump's same-color suit.
func LeftBower(trump Suit) Card {
	return Card{Suit: SameColorSuit(trump), Rank: RankJack}
}
