package bot

// Tuning holds the hand-strength thresholds a strategy bids with.
// Strength units come from HandStrength.
type Tuning struct {
	// OrderUpThreshold is the minimum strength to order the upcard in the first round.
	OrderUpThreshold int
	// NameSuitThreshold is the minimum strength to name a suit in the second round.
	NameSuitThreshold int
	// AloneThreshold is the minimum strength to play without the partner.
	AloneThreshold int
	// DealerPartnerBonus is added when the upcard goes to our own team.
	DealerPartnerBonus int
	// CoverPartner plays low when the partner already holds the trick.
	CoverPartner bool
}

// DefaultTuning bids a reasonable hand and plays partner-aware.
var DefaultTuning = Tuning{
	OrderUpThreshold:   30,
	NameSuitThreshold:  30,
	AloneThreshold:     50,
	DealerPartnerBonus: 4,
	CoverPartner:       true,
}

// EasyTuning only bids very strong hands, never alone, and ignores the partner.
var EasyTuning = Tuning{
	OrderUpThreshold:   38,
	NameSuitThreshold:  40,
	AloneThreshold:     1 << 30,
	DealerPartnerBonus: 0,
	CoverPartner:       false,
}

// SmartTuning bids slightly looser since its play uses card memory.
var SmartTuning = Tuning{
	OrderUpThreshold:   28,
	NameSuitThreshold:  28,
	AloneThreshold:     46,
	DealerPartnerBonus: 5,
	CoverPartner:       true,
}
