package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// EncodeEvent is published once for every (asset, date) pair an
// EncodingWorker finishes encoding, independent of DayEvent's whole-date
// completion signal.
type EncodeEvent struct {
	Asset      string `json:"asset"`
	Date       string `json:"date"`
	OrderCount uint64 `json:"order_count"`
}

// EncodeNotifier publishes one EncodeEvent per finished encode, adapted
// from the teacher's infra/kafka.Producer (a thin kafka-go.Writer wrapper)
// with a JSON envelope replacing the raw key/value passthrough, since a
// consumer here needs to know which (asset,date) finished, not just that
// something did.
type EncodeNotifier struct {
	writer *kafka.Writer
}

func NewEncodeNotifier(brokers []string, topic string) *EncodeNotifier {
	return &EncodeNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Notify publishes ev, keyed by asset so a partitioned topic keeps one
// asset's encode events ordered.
func (n *EncodeNotifier) Notify(ctx context.Context, ev EncodeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Asset),
		Value: payload,
	})
}

func (n *EncodeNotifier) Close() error {
	return n.writer.Close()
}
