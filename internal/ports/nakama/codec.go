package nakama

import (
	"fmt"
	"math"

	"euchre/internal/app"
	"euchre/internal/domain"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Match messages travel as protobuf-encoded google.protobuf.Struct values so
// clients can decode them without generated bindings.

func cardValue(c domain.Card) map[string]interface{} {
	suit, rank := c.TransportPair()
	return map[string]interface{}{"suit": suit, "rank": rank}
}

func cardsValue(cards []domain.Card) []interface{} {
	out := make([]interface{}, len(cards))
	for i, c := range cards {
		out[i] = cardValue(c)
	}
	return out
}

func teamRecordValue(rec domain.TeamRecord) map[string]interface{} {
	return map[string]interface{}{
		"seat0": rec.Seat0,
		"seat1": rec.Seat1,
		"score": rec.Score,
		"role":  int32(rec.Role),
		"solo":  rec.Solo,
	}
}

func teamRecordsValue(recs [2]domain.TeamRecord) []interface{} {
	return []interface{}{teamRecordValue(recs[0]), teamRecordValue(recs[1])}
}

func trumpRecordValue(rec domain.TrumpRecord) map[string]interface{} {
	return map[string]interface{}{
		"choosing_seat": rec.ChoosingSeat,
		"suit":          int32(rec.Suit),
		"choice_code":   int32(rec.ChoiceCode),
	}
}

func teamSnapshotValue(t domain.Team) map[string]interface{} {
	return map[string]interface{}{
		"team":  int(t.ID),
		"seat0": t.Seats[0],
		"seat1": t.Seats[1],
		"score": t.Score,
	}
}

// EncodeEvent maps an app event to its op code and wire bytes.
func EncodeEvent(ev app.Event) (int64, []byte, error) {
	var (
		opCode int64
		fields map[string]interface{}
	)

	switch p := ev.Payload.(type) {
	case app.HandDealtPayload:
		opCode = OpHandDealt
		fields = map[string]interface{}{"seat": p.Seat, "hand": cardsValue(p.Hand)}
	case app.BiddingStartedPayload:
		opCode = OpBiddingStarted
		fields = map[string]interface{}{
			"hand_number":     p.HandNumber,
			"dealer":          p.Dealer,
			"upcard":          cardValue(p.Upcard),
			"first_turn_seat": p.FirstTurnSeat,
		}
	case app.BidMadePayload:
		opCode = OpBidMade
		fields = map[string]interface{}{
			"seat":           p.Seat,
			"round":          p.Round,
			"choice_code":    int32(p.Choice),
			"suit":           int32(p.Suit),
			"alone":          p.Alone,
			"next_turn_seat": p.NextTurnSeat,
		}
	case app.TrumpSelectedPayload:
		opCode = OpTrumpSelected
		fields = map[string]interface{}{
			"trump":           trumpRecordValue(p.Trump),
			"alone":           p.Alone,
			"teams":           teamRecordsValue(p.Teams),
			"first_turn_seat": p.FirstTurnSeat,
		}
	case app.MisdealPayload:
		opCode = OpMisdeal
		fields = map[string]interface{}{"dealer": p.Dealer}
	case app.CardPlayedPayload:
		opCode = OpCardPlayed
		fields = map[string]interface{}{"seat": p.Seat, "card": cardValue(p.Card), "next_turn_seat": p.NextTurnSeat}
	case app.TrickWonPayload:
		opCode = OpTrickWon
		fields = map[string]interface{}{
			"seat":       p.Seat,
			"team":       int(p.Team),
			"cards":      cardsValue(p.Cards),
			"tricks_won": []interface{}{p.TricksWon[0], p.TricksWon[1]},
		}
	case app.HandScoredPayload:
		opCode = OpHandScored
		fields = map[string]interface{}{
			"makers":     int(p.Makers),
			"tricks_won": []interface{}{p.TricksWon[0], p.TricksWon[1]},
			"scorer":     int(p.Scorer),
			"points":     p.Points,
			"euchred":    p.Euchred,
			"teams":      teamRecordsValue(p.Teams),
		}
	case app.HandAbortedPayload:
		opCode = OpHandAborted
		fields = map[string]interface{}{"reason": p.Reason}
	case app.GameEndedPayload:
		opCode = OpGameEnded
		fields = map[string]interface{}{
			"winner": p.Result.Winner.String(),
			"reward": p.Result.Reward,
			"team_a": teamSnapshotValue(p.Result.TeamA),
			"team_b": teamSnapshotValue(p.Result.TeamB),
		}
	default:
		return 0, nil, fmt.Errorf("unknown event kind %v", ev.Kind)
	}

	data, err := marshalFields(fields)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %v: %w", ev.Kind, err)
	}
	return opCode, data, nil
}

func marshalFields(fields map[string]interface{}) ([]byte, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(msg)
}

// DecodeMessage parses wire bytes back into a Struct.
func DecodeMessage(data []byte) (*structpb.Struct, error) {
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// int32Field reads an integral number. Missing keys, other kinds, fractions and values
// outside int32 wrap domain.ErrInput.
func int32Field(s *structpb.Struct, key string) (int32, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, fmt.Errorf("field %q missing: %w", key, domain.ErrInput)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("field %q is not a number: %w", key, domain.ErrInput)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("field %q = %v is not a 32-bit integer: %w", key, f, domain.ErrInput)
	}
	return int32(f), nil
}

// int32Fields reads several integral fields in order, stopping at the first bad one.
func int32Fields(s *structpb.Struct, keys ...string) ([]int32, error) {
	out := make([]int32, len(keys))
	for i, key := range keys {
		n, err := int32Field(s, key)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// DecodeCard rebuilds a card from its {suit, rank} pair, rejecting pairs outside the deck.
func DecodeCard(v *structpb.Value) (domain.Card, error) {
	s := v.GetStructValue()
	if s == nil {
		return domain.Card{}, fmt.Errorf("card is not an object: %w", domain.ErrInput)
	}
	pair, err := int32Fields(s, "suit", "rank")
	if err != nil {
		return domain.Card{}, fmt.Errorf("card: %w", err)
	}
	return domain.FromTransportPair(pair[0], pair[1])
}

// DecodeTeamRecord reads a replicated team record.
func DecodeTeamRecord(v *structpb.Value) (domain.TeamRecord, error) {
	s := v.GetStructValue()
	if s == nil {
		return domain.TeamRecord{}, fmt.Errorf("team record is not an object: %w", domain.ErrInput)
	}
	n, err := int32Fields(s, "seat0", "seat1", "score", "role")
	if err != nil {
		return domain.TeamRecord{}, fmt.Errorf("team record: %w", err)
	}
	return domain.TeamRecord{
		Seat0: int(n[0]),
		Seat1: int(n[1]),
		Score: int(n[2]),
		Role:  domain.TeamRole(n[3]),
		Solo:  s.GetFields()["solo"].GetBoolValue(),
	}, nil
}

// DecodeTeamRecords reads the "teams" list of a message.
func DecodeTeamRecords(msg *structpb.Struct) ([2]domain.TeamRecord, error) {
	var out [2]domain.TeamRecord
	list := msg.GetFields()["teams"].GetListValue().GetValues()
	if len(list) != len(out) {
		return out, fmt.Errorf("expected %d team records, got %d", len(out), len(list))
	}
	for i, v := range list {
		rec, err := DecodeTeamRecord(v)
		if err != nil {
			return out, err
		}
		out[i] = rec
	}
	return out, nil
}

// DecodeTrumpRecord reads the "trump" field of a trump_selected message.
func DecodeTrumpRecord(msg *structpb.Struct) (domain.TrumpRecord, error) {
	s := msg.GetFields()["trump"].GetStructValue()
	if s == nil {
		return domain.TrumpRecord{}, fmt.Errorf("message has no trump record: %w", domain.ErrInput)
	}
	n, err := int32Fields(s, "choosing_seat", "suit", "choice_code")
	if err != nil {
		return domain.TrumpRecord{}, fmt.Errorf("trump record: %w", err)
	}
	rec := domain.TrumpRecord{
		ChoosingSeat: int(n[0]),
		Suit:         domain.Suit(n[1]),
		ChoiceCode:   domain.ChoiceCode(n[2]),
	}
	if !rec.Suit.Valid() {
		return rec, fmt.Errorf("trump record suit %d out of range: %w", rec.Suit, domain.ErrInput)
	}
	return rec, nil
}

// bidRequest is the decoded OpBid payload.
type bidRequest struct {
	Choice domain.ChoiceCode
	Suit   domain.Suit
	Alone  bool
}

func decodeBidRequest(data []byte) (bidRequest, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return bidRequest{}, err
	}
	choice, err := int32Field(msg, "choice_code")
	if err != nil {
		return bidRequest{}, err
	}
	req := bidRequest{
		Choice: domain.ChoiceCode(choice),
		Suit:   domain.SuitNone,
		Alone:  msg.GetFields()["alone"].GetBoolValue(),
	}
	// A pass may leave the suit out.
	if _, ok := msg.GetFields()["suit"]; ok {
		suit, err := int32Field(msg, "suit")
		if err != nil {
			return bidRequest{}, err
		}
		req.Suit = domain.Suit(suit)
	}
	return req, nil
}

// decodeCardRequest reads the {"card": {...}} payload of OpDiscard and OpPlayCard.
func decodeCardRequest(data []byte) (domain.Card, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return domain.Card{}, err
	}
	v, ok := msg.GetFields()["card"]
	if !ok {
		return domain.Card{}, fmt.Errorf("request has no card")
	}
	return DecodeCard(v)
}

// EncodeBid builds an OpBid payload.
func EncodeBid(choice domain.ChoiceCode, suit domain.Suit, alone bool) ([]byte, error) {
	return marshalFields(map[string]interface{}{
		"choice_code": int32(choice),
		"suit":        int32(suit),
		"alone":       alone,
	})
}

// EncodeCardRequest builds an OpDiscard or OpPlayCard payload.
func EncodeCardRequest(c domain.Card) ([]byte, error) {
	return marshalFields(map[string]interface{}{"card": cardValue(c)})
}
