package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"euchre/internal/app/ledger"
	"euchre/internal/config"
	"euchre/internal/ports"

	"github.com/goccy/go-json"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/tidwall/gjson"
)

// Nakama RPC error codes (gRPC status codes).
const (
	codeInvalidArgument    = 3
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnauthenticated    = 16
)

var (
	errNoUser     = runtime.NewError("no user in session", codeUnauthenticated)
	errBadPayload = runtime.NewError("invalid payload", codeInvalidArgument)
)

// newEconomy and newEntryFeeStore build the ports RPCs and matches use; tests replace them.
var (
	newEconomy = func(nk runtime.NakamaModule) ports.EconomyPort {
		return NewNakamaEconomyAdapter(nk)
	}
	newEntryFeeStore = func(nk runtime.NakamaModule) ports.EntryFeeStore {
		return NewNakamaEntryFeeAdapter(nk)
	}
)

// newLedger wires the ledger so the deduct_entry_fee RPC and a starting match never both charge a lobby.
func newLedger(nk runtime.NakamaModule) *ledger.Service {
	return ledger.NewService(newEconomy(nk)).WithEntryFeeStore(newEntryFeeStore(nk))
}

// QuickMatchRequest optionally names the table tier to join.
type QuickMatchRequest struct {
	Tier string `json:"tier"`
}

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
	Tier    string `json:"tier"`
}

// CheckBalanceRequest asks whether the caller can afford a tier's entry fee.
// Amount overrides the tier fee when set.
type CheckBalanceRequest struct {
	Tier   string `json:"tier"`
	Amount int64  `json:"amount"`
}

// DeductEntryFeeRequest debits the tier's entry fee for the given lobby (match id).
type DeductEntryFeeRequest struct {
	LobbyID string `json:"lobby_id"`
	Tier    string `json:"tier"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcQuickMatch:     rpcQuickMatch,
		RpcCheckBalance:   rpcCheckBalance,
		RpcDeductEntryFee: rpcDeductEntryFee,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return fmt.Errorf("register rpc %s: %w", id, err)
		}
	}
	return nil
}

func decodePayload(payload string, v interface{}) error {
	if payload == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return errBadPayload
	}
	return nil
}

func encodeResponse(logger runtime.Logger, v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("encodeResponse: %v", err)
		return "", runtime.NewError("failed to encode response", codeInternal)
	}
	return string(b), nil
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req QuickMatchRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	tier := config.GetTier(req.Tier)

	query := fmt.Sprintf("+label.%s:>=1 +label.game:%s +label.state:lobby +label.tier:%s", MatchLabelKeyOpenSeats, GameLabel, tier.ID)
	limit := 10
	authoritative := true
	minSize := 1
	maxSize := 3

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("rpcQuickMatch: MatchList error: %v", err)
		return "", err
	}
	if m := pickLobby(matches); m != nil {
		return encodeResponse(logger, QuickMatchResponse{MatchID: m.GetMatchId(), Tier: tier.ID})
	}

	// Seat and owner assignment happen in MatchJoin.
	matchID, err := nk.MatchCreate(ctx, MatchNameEuchre, map[string]interface{}{"tier": tier.ID})
	if err != nil {
		logger.Error("rpcQuickMatch: MatchCreate error: %v", err)
		return "", err
	}
	return encodeResponse(logger, QuickMatchResponse{MatchID: matchID, IsNew: true, Tier: tier.ID})
}

// pickLobby prefers the lobby closest to full so waiting players meet sooner.
func pickLobby(matches []*api.Match) *api.Match {
	var (
		best     *api.Match
		bestOpen int64
	)
	for _, m := range matches {
		open := gjson.Get(m.GetLabel().GetValue(), MatchLabelKeyOpenSeats).Int()
		if open < 1 {
			continue
		}
		if best == nil || open < bestOpen {
			best, bestOpen = m, open
		}
	}
	return best
}

func rpcCheckBalance(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", errNoUser
	}
	var req CheckBalanceRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	amount := req.Amount
	if amount == 0 {
		amount = config.GetTier(req.Tier).EntryFee
	}

	check, err := newLedger(nk).CheckBalance(ctx, userID, amount)
	if err != nil {
		return "", ledgerError(logger, "rpcCheckBalance", userID, err)
	}
	return encodeResponse(logger, check)
}

func rpcDeductEntryFee(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", errNoUser
	}
	var req DeductEntryFeeRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	fee := config.GetTier(req.Tier).EntryFee

	receipt, err := newLedger(nk).DeductEntryFee(ctx, userID, req.LobbyID, fee)
	if err != nil {
		return "", ledgerError(logger, "rpcDeductEntryFee", userID, err)
	}
	switch {
	case receipt.AlreadyPaid:
		logger.Debug("rpcDeductEntryFee: %s already paid for lobby %s (tx %s)", userID, req.LobbyID, receipt.Transaction.ID)
	case receipt.Success:
		logger.Info("rpcDeductEntryFee: Charged %d chips to %s for lobby %s (tx %s)", fee, userID, req.LobbyID, receipt.Transaction.ID)
	}
	return encodeResponse(logger, receipt)
}

func ledgerError(logger runtime.Logger, op, userID string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrMissingUser), errors.Is(err, ledger.ErrMissingLobby), errors.Is(err, ledger.ErrInvalidAmount):
		return runtime.NewError(err.Error(), codeInvalidArgument)
	case errors.Is(err, ledger.ErrNotConfigured):
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	default:
		logger.Error("%s: ledger failure for %s: %v", op, userID, err)
		return runtime.NewError("ledger unavailable", codeInternal)
	}
}
