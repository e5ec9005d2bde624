package sim

import (
	"fmt"

	"euchre/internal/domain"
	"euchre/internal/ports/nakama"
	"euchre/internal/replica"

	"github.com/rs/zerolog"
)

type wireMessage struct {
	opCode int64
	data   []byte
}

// mirror plays the part of a connected client: it decodes wire messages and
// publishes the replicated records it reads from them.
type mirror struct {
	in     chan wireMessage
	done   chan struct{}
	trumps *replica.Board[int, domain.TrumpRecord]
	teams  *replica.Board[int, [2]domain.TeamRecord]
	log    zerolog.Logger

	hand   int
	scored int
}

func newMirror(log zerolog.Logger) *mirror {
	return &mirror{
		in:     make(chan wireMessage, 64),
		done:   make(chan struct{}),
		trumps: replica.NewBoard[int, domain.TrumpRecord](),
		teams:  replica.NewBoard[int, [2]domain.TeamRecord](),
		log:    log,
	}
}

func (m *mirror) start() {
	go func() {
		defer close(m.done)
		for msg := range m.in {
			if err := m.apply(msg); err != nil {
				m.log.Warn().Err(err).Int64("op", msg.opCode).Msg("mirror dropped message")
			}
		}
	}()
}

// stop drains pending messages and closes both boards.
func (m *mirror) stop() {
	close(m.in)
	<-m.done
	m.trumps.Close()
	m.teams.Close()
}

func (m *mirror) apply(msg wireMessage) error {
	switch msg.opCode {
	case nakama.OpBiddingStarted, nakama.OpTrumpSelected, nakama.OpHandScored:
	default:
		return nil
	}

	s, err := nakama.DecodeMessage(msg.data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	switch msg.opCode {
	case nakama.OpBiddingStarted:
		m.hand = int(s.GetFields()["hand_number"].GetNumberValue())
	case nakama.OpTrumpSelected:
		trump, err := nakama.DecodeTrumpRecord(s)
		if err != nil {
			return err
		}
		m.trumps.Publish(m.hand, trump)
	case nakama.OpHandScored:
		recs, err := nakama.DecodeTeamRecords(s)
		if err != nil {
			return err
		}
		m.scored++
		m.teams.Publish(m.scored, recs)
	}
	return nil
}
