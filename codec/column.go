package codec

// Column describes one field of a row schema: its storage width and whether
// it carries a sign and benefits from delta encoding before packing. This
// mirrors L2::ColumnMeta from the original gateway's schema tables.
type Column struct {
	Name     string
	Signed   bool
	BitWidth uint8
	UseDelta bool
}

// Schema is an ordered list of columns for one record type. Encode and
// decode walk the same Schema, so bit width and delta choice never need to
// travel on the wire.
type Schema []Column

// SnapshotSchema is the column layout for one Level-2 snapshot tick: trade
// count, volume, turnover, high/low/close, ten-level bid/ask price and volume ladders, and running VWAP/volume
// aggregates. Bit widths are taken from the gateway's Snapshot_Schema table.
func SnapshotSchema() Schema {
	cols := Schema{
		{Name: "hour", Signed: true, BitWidth: 5, UseDelta: true},
		{Name: "minute", Signed: true, BitWidth: 6, UseDelta: true},
		{Name: "second", Signed: true, BitWidth: 6, UseDelta: true},
		{Name: "trade_count", Signed: false, BitWidth: 8, UseDelta: false},
		{Name: "volume", Signed: false, BitWidth: 16, UseDelta: false},
		{Name: "turnover", Signed: false, BitWidth: 32, UseDelta: false},
		{Name: "high", Signed: true, BitWidth: 14, UseDelta: true},
		{Name: "low", Signed: true, BitWidth: 14, UseDelta: true},
		{Name: "close", Signed: true, BitWidth: 14, UseDelta: true},
	}
	cols = append(cols, repeatColumns("bid_price_tick", 10, true, 14, true)...)
	cols = append(cols, repeatColumns("bid_volume", 10, false, 14, false)...)
	cols = append(cols, repeatColumns("ask_price_tick", 10, true, 14, true)...)
	cols = append(cols, repeatColumns("ask_volume", 10, false, 14, false)...)
	cols = append(cols,
		Column{Name: "direction", Signed: false, BitWidth: 1, UseDelta: false},
		Column{Name: "all_bid_vwap", Signed: true, BitWidth: 15, UseDelta: true},
		Column{Name: "all_ask_vwap", Signed: true, BitWidth: 15, UseDelta: true},
		Column{Name: "all_bid_volume", Signed: true, BitWidth: 22, UseDelta: true},
		Column{Name: "all_ask_volume", Signed: true, BitWidth: 22, UseDelta: true},
	)
	return cols
}

// OrderSchema is the column layout for one merged order/cancel/trade event:
// timestamp fields, the maker/cancel/taker type tag, side, price, volume and
// the two order-id slots whose occupant depends on (order_type, order_dir).
func OrderSchema() Schema {
	return Schema{
		{Name: "hour", Signed: true, BitWidth: 5, UseDelta: true},
		{Name: "minute", Signed: true, BitWidth: 6, UseDelta: true},
		{Name: "second", Signed: true, BitWidth: 6, UseDelta: true},
		{Name: "millisecond", Signed: true, BitWidth: 7, UseDelta: true},
		{Name: "order_type", Signed: false, BitWidth: 2, UseDelta: false},
		{Name: "order_dir", Signed: false, BitWidth: 1, UseDelta: false},
		{Name: "price", Signed: true, BitWidth: 14, UseDelta: true},
		{Name: "volume", Signed: false, BitWidth: 16, UseDelta: false},
		{Name: "bid_order_id", Signed: true, BitWidth: 32, UseDelta: true},
		{Name: "ask_order_id", Signed: true, BitWidth: 32, UseDelta: true},
	}
}

func repeatColumns(prefix string, n int, signed bool, bitWidth uint8, useDelta bool) Schema {
	cols := make(Schema, n)
	for i := 0; i < n; i++ {
		cols[i] = Column{Name: indexedName(prefix, i), Signed: signed, BitWidth: bitWidth, UseDelta: useDelta}
	}
	return cols
}

// indexedName names one level of a bid/ask ladder column, e.g.
// "bid_price_tick_0" .. "bid_price_tick_9". A-share L2 ladders never exceed
// ten levels.
func indexedName(prefix string, i int) string {
	const digits = "0123456789"
	return prefix + "_" + string(digits[i])
}
