package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"
	// RpcCheckBalance answers whether the caller can afford a table tier.
	RpcCheckBalance = "check_balance"
	// RpcDeductEntryFee debits the caller's entry fee for a lobby.
	RpcDeductEntryFee = "deduct_entry_fee"

	// MatchNameEuchre is the authoritative match handler name registered with Nakama.
	MatchNameEuchre = "euchre_match"

	// GameLabel identifies this module's matches in label queries.
	GameLabel = "euchre"

	// WalletCurrency is the wallet key chips are stored under.
	WalletCurrency = "chips"

	// MatchLabelKeyOpenSeats is the label key holding the number of free seats.
	MatchLabelKeyOpenSeats = "open"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpBid       int64 = 2
	OpDiscard   int64 = 3
	OpPlayCard  int64 = 4

	// Server -> Client events
	OpMatchState     int64 = 100
	OpHandDealt      int64 = 101 // send privately
	OpBiddingStarted int64 = 102
	OpBidMade        int64 = 103
	OpTrumpSelected  int64 = 104
	OpMisdeal        int64 = 105
	OpCardPlayed     int64 = 106
	OpTrickWon       int64 = 107
	OpHandScored     int64 = 108
	OpHandAborted    int64 = 109
	OpGameEnded      int64 = 110
	OpGameError      int64 = 199
)

// Runtime env keys read at match init.
const (
	envBotsEnabled      = "euchre_bots_enabled"
	envBotMinDelay      = "euchre_bot_min_delay_sec"
	envBotMaxDelay      = "euchre_bot_max_delay_sec"
	envBotAutoFillDelay = "euchre_bot_auto_fill_delay_sec"
)
