package app

import "euchre/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventHandDealt      EventKind = "hand_dealt"
	EventBiddingStarted EventKind = "bidding_started"
	EventBidMade        EventKind = "bid_made"
	EventTrumpSelected  EventKind = "trump_selected"
	EventMisdeal        EventKind = "misdeal"
	EventCardPlayed     EventKind = "card_played"
	EventTrickWon       EventKind = "trick_won"
	EventHandScored     EventKind = "hand_scored"
	EventHandAborted    EventKind = "hand_aborted"
	EventGameEnded      EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type HandDealtPayload struct {
	Seat int
	Hand []domain.Card
}

type BiddingStartedPayload struct {
	HandNumber    int
	Dealer        int
	Upcard        domain.Card
	FirstTurnSeat int
}

type BidMadePayload struct {
	Seat         int
	Round        int
	Choice       domain.ChoiceCode
	Suit         domain.Suit
	Alone        bool
	NextTurnSeat int
}

type TrumpSelectedPayload struct {
	Trump         domain.TrumpRecord
	Alone         bool
	Teams         [2]domain.TeamRecord
	FirstTurnSeat int
}

type MisdealPayload struct {
	Dealer int
}

type CardPlayedPayload struct {
	Seat         int
	Card         domain.Card
	NextTurnSeat int
}

type TrickWonPayload struct {
	Seat      int
	Team      domain.TeamID
	Cards     []domain.Card
	TricksWon [2]int
}

type HandScoredPayload struct {
	Makers    domain.TeamID
	TricksWon [2]int
	Scorer    domain.TeamID
	Points    int
	Euchred   bool
	Teams     [2]domain.TeamRecord
}

type HandAbortedPayload struct {
	Reason string
}

type GameEndedPayload struct {
	Result domain.GameResult
}
