package lob

// Venue carries the exchange-specific behaviors spec §9 flags as open
// questions rather than hard-coded assumptions.
type Venue struct {
	// CallAuctionFinalPrice, when true, means maker rows reported during
	// 09:15-09:30 already carry the clearing price, so the 09:30:00 flush
	// can apply them as-is. When false (the default — see DESIGN.md),
	// those prices are provisional and the flush is still the first moment
	// the clearing is considered final; the engine's behavior at the flush
	// instant is identical either way, this flag only documents the
	// assumption for downstream consumers of the reconstructed book.
	CallAuctionFinalPrice bool `yaml:"call_auction_final_price"`

	// AllowZeroPriceCancel reports whether this venue may ever send a
	// cancel with price == 0. When false, a zero-price cancel is an input
	// error (§7), not a deferral.
	AllowZeroPriceCancel bool `yaml:"allow_zero_price_cancel"`
}

// DefaultVenue matches the conservative defaults recorded in DESIGN.md.
func DefaultVenue() Venue {
	return Venue{CallAuctionFinalPrice: false, AllowZeroPriceCancel: true}
}
