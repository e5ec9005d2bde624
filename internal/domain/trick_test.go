package domain

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBowerClassification(t *testing.T) {
	for _, trump := range Suits {
		var rights, lefts []Card
		for _, c := range NewDeck() {
			if IsRightBower(c, trump) {
				rights = append(rights, c)
			}
			if IsLeftBower(c, trump) {
				lefts = append(lefts, c)
			}
		}
		require.Len(t, rights, 1, "trump %s", trump)
		require.Len(t, lefts, 1, "trump %s", trump)
		assert.Equal(t, RightBower(trump), rights[0])
		assert.Equal(t, LeftBower(trump), lefts[0])
		assert.NotEqual(t, trump, lefts[0].Suit)
		assert.Equal(t, ColorOf(trump), lefts[0].Color())
	}
}

func TestSameColorSuit(t *testing.T) {
	assert.Equal(t, SuitClubs, SameColorSuit(SuitSpades))
	assert.Equal(t, SuitSpades, SameColorSuit(SuitClubs))
	assert.Equal(t, SuitDiamonds, SameColorSuit(SuitHearts))
	assert.Equal(t, SuitHearts, SameColorSuit(SuitDiamonds))
	assert.Equal(t, SuitNone, SameColorSuit(SuitNone))
}

func TestIsTrumpAndEffectiveSuit(t *testing.T) {
	for _, trump := range Suits {
		for _, c := range NewDeck() {
			if IsLeftBower(c, trump) {
				assert.Equal(t, trump, EffectiveSuit(c, trump))
				assert.True(t, IsTrump(c, trump))
				continue
			}
			assert.Equal(t, c.Suit, EffectiveSuit(c, trump))
			assert.Equal(t, c.Suit == trump, IsTrump(c, trump))
		}
	}

	noTrump := MustCard(SuitClubs, RankJack)
	assert.False(t, IsTrump(noTrump, SuitNone))
	assert.False(t, IsRightBower(noTrump, SuitNone))
	assert.Equal(t, SuitClubs, EffectiveSuit(noTrump, SuitNone))
}

func TestCardPowerBandsAreOrdered(t *testing.T) {
	for _, trump := range Suits {
		for _, lead := range Suits {
			var trumps, leads, offs []int
			right := CardPower(RightBower(trump), trump, lead)
			left := CardPower(LeftBower(trump), trump, lead)
			for _, c := range NewDeck() {
				if IsRightBower(c, trump) || IsLeftBower(c, trump) {
					continue
				}
				p := CardPower(c, trump, lead)
				switch {
				case c.Suit == trump:
					trumps = append(trumps, p)
				case c.Suit == lead:
					leads = append(leads, p)
				default:
					offs = append(offs, p)
				}
			}

			assert.Equal(t, 100, right)
			assert.Equal(t, 99, left)
			assert.Greater(t, left, maxOf(trumps))
			if len(leads) > 0 {
				assert.Greater(t, minOf(trumps), maxOf(leads), "trump %s lead %s", trump, lead)
				if len(offs) > 0 {
					assert.Greater(t, minOf(leads), maxOf(offs), "trump %s lead %s", trump, lead)
				}
			} else {
				assert.Greater(t, minOf(trumps), maxOf(offs))
			}
		}
	}
}

func TestCardPowerExamples(t *testing.T) {
	trump, lead := SuitSpades, SuitHearts
	assert.Equal(t, 100, CardPower(MustCard(SuitSpades, RankJack), trump, lead))
	assert.Equal(t, 99, CardPower(MustCard(SuitClubs, RankJack), trump, lead))
	assert.Equal(t, 55, CardPower(MustCard(SuitHearts, RankAce), trump, lead))
	assert.Equal(t, 10, CardPower(MustCard(SuitDiamonds, RankNine), trump, lead))
	assert.Equal(t, 95, CardPower(MustCard(SuitSpades, RankAce), trump, lead))
}

func TestResolveTrick(t *testing.T) {
	tests := []struct {
		name     string
		trump    Suit
		lead     Suit
		plays    []Play
		wantSeat int
	}{
		{
			name:  "right bower beats left bower and lead ace",
			trump: SuitSpades,
			lead:  SuitHearts,
			plays: []Play{
				{Seat: 0, Card: MustCard(SuitHearts, RankAce)},
				{Seat: 1, Card: MustCard(SuitSpades, RankJack)},
				{Seat: 2, Card: MustCard(SuitClubs, RankJack)},
				{Seat: 3, Card: MustCard(SuitDiamonds, RankNine)},
			},
			wantSeat: 1,
		},
		{
			name:  "jack of trump beats ace of trump",
			trump: SuitHearts,
			lead:  SuitHearts,
			plays: []Play{
				{Seat: 0, Card: MustCard(SuitHearts, RankQueen)},
				{Seat: 1, Card: MustCard(SuitHearts, RankKing)},
				{Seat: 2, Card: MustCard(SuitHearts, RankJack)},
				{Seat: 3, Card: MustCard(SuitHearts, RankAce)},
			},
			wantSeat: 2,
		},
		{
			name:  "highest lead card wins without trump",
			trump: SuitClubs,
			lead:  SuitDiamonds,
			plays: []Play{
				{Seat: 3, Card: MustCard(SuitDiamonds, RankTen)},
				{Seat: 0, Card: MustCard(SuitHearts, RankAce)},
				{Seat: 1, Card: MustCard(SuitDiamonds, RankKing)},
				{Seat: 2, Card: MustCard(SuitSpades, RankAce)},
			},
			wantSeat: 1,
		},
		{
			name:  "nine of trump beats off-suit aces",
			trump: SuitDiamonds,
			lead:  SuitSpades,
			plays: []Play{
				{Seat: 1, Card: MustCard(SuitSpades, RankAce)},
				{Seat: 2, Card: MustCard(SuitDiamonds, RankNine)},
				{Seat: 3, Card: MustCard(SuitClubs, RankAce)},
			},
			wantSeat: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, err := ResolveTrick(tt.plays, tt.trump, tt.lead)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeat, winner.Seat)
		})
	}
}

func TestResolveTrickErrors(t *testing.T) {
	_, err := ResolveTrick(nil, SuitSpades, SuitHearts)
	assert.True(t, errors.Is(err, ErrInput))

	dup := []Play{
		{Seat: 0, Card: MustCard(SuitHearts, RankAce)},
		{Seat: 1, Card: MustCard(SuitHearts, RankAce)},
	}
	_, err = ResolveTrick(dup, SuitSpades, SuitHearts)
	assert.True(t, errors.Is(err, ErrInput))

	// Should never occur in a well-formed trick: the lead suit is taken from a played card.
	// A lead suit that no card follows leaves two off-suit tens sharing the top power.
	tied := []Play{
		{Seat: 0, Card: MustCard(SuitDiamonds, RankTen)},
		{Seat: 1, Card: MustCard(SuitClubs, RankTen)},
	}
	_, err = ResolveTrick(tied, SuitSpades, SuitHearts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConsistency))
}

func TestResolveTrickRandomTricksHaveUniqueMax(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		deck := ShuffledDeck(rng)
		trump := Suits[rng.Intn(len(Suits))]
		size := 2 + rng.Intn(3)

		plays := make([]Play, size)
		for s := 0; s < size; s++ {
			plays[s] = Play{Seat: s, Card: deck[s]}
		}
		lead := LeadSuit(plays[0].Card, trump)

		winner, err := ResolveTrick(plays, trump, lead)
		require.NoError(t, err, "trick %v trump %s", plays, trump)

		top := CardPower(winner.Card, trump, lead)
		for _, p := range plays {
			if p.Card.Equal(winner.Card) {
				continue
			}
			assert.Less(t, CardPower(p.Card, trump, lead), top)
		}
	}
}

func TestLeadSuitFollowsLeftBower(t *testing.T) {
	assert.Equal(t, SuitSpades, LeadSuit(MustCard(SuitClubs, RankJack), SuitSpades))
	assert.Equal(t, SuitClubs, LeadSuit(MustCard(SuitClubs, RankAce), SuitSpades))
}

func TestLegalPlays(t *testing.T) {
	hand := []Card{
		MustCard(SuitClubs, RankJack), // left bower when spades are trump
		MustCard(SuitClubs, RankAce),
		MustCard(SuitHearts, RankNine),
	}

	t.Run("left bower must follow trump lead", func(t *testing.T) {
		got := LegalPlays(hand, SuitSpades, SuitSpades)
		assert.Equal(t, []Card{MustCard(SuitClubs, RankJack)}, got)
	})
	t.Run("left bower does not follow its printed suit", func(t *testing.T) {
		got := LegalPlays(hand, SuitClubs, SuitSpades)
		assert.Equal(t, []Card{MustCard(SuitClubs, RankAce)}, got)
	})
	t.Run("void in lead plays anything", func(t *testing.T) {
		got := LegalPlays(hand, SuitDiamonds, SuitSpades)
		assert.ElementsMatch(t, hand, got)
	})
	t.Run("no lead plays anything", func(t *testing.T) {
		got := LegalPlays(hand, SuitNone, SuitSpades)
		assert.ElementsMatch(t, hand, got)
	})
}

func TestTrickAccumulator(t *testing.T) {
	trick := NewTrick(SuitHearts, 3)
	require.NoError(t, trick.Add(1, MustCard(SuitDiamonds, RankJack)))
	assert.Equal(t, SuitHearts, trick.Lead, "left bower leads trump")

	_, err := trick.Winner()
	assert.True(t, errors.Is(err, ErrInput))

	assert.True(t, errors.Is(trick.Add(1, MustCard(SuitClubs, RankAce)), ErrInput))
	require.NoError(t, trick.Add(2, MustCard(SuitHearts, RankAce)))
	require.NoError(t, trick.Add(3, MustCard(SuitHearts, RankJack)))
	assert.True(t, trick.Complete())
	assert.True(t, errors.Is(trick.Add(0, MustCard(SuitSpades, RankNine)), ErrInput))

	winner, err := trick.Winner()
	require.NoError(t, err)
	assert.Equal(t, 3, winner.Seat)
	assert.Len(t, trick.Cards(), 3)
}

func maxOf(xs []int) int {
	m := -1
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []int) int {
	m := 1 << 30
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}
