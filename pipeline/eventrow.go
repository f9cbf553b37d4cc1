package pipeline

import (
	"lobrecon/domain/lob"
)

// DecodeEventRow maps one codec.OrderSchema row to a lob.Event, field for
// field: [hour,minute,second,millisecond,order_type,order_dir,price,
// volume,bid_order_id,ask_order_id].
func DecodeEventRow(row []int64) lob.Event {
	return lob.Event{
		Hour:        uint8(row[0]),
		Minute:      uint8(row[1]),
		Second:      uint8(row[2]),
		Millisecond: uint8(row[3]),
		Type:        lob.EventType(row[4]),
		Side:        lob.Side(row[5]),
		Price:       lob.Price(row[6]),
		Volume:      lob.Quantity(row[7]),
		BidOrderID:  lob.OrderID(row[8]),
		AskOrderID:  lob.OrderID(row[9]),
	}
}
