// Package broadcast notifies downstream consumers when a trading day's
// reconstruction work reaches a durable milestone, adapted from the
// teacher's jobs/broadcaster package (a sarama publish loop draining an
// exit WAL) to drain catalog.Store day-completion state instead of order
// exits.
package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"

	"lobrecon/catalog"
)

// DayEvent is the payload published once every instrument in a date has
// reached catalog.StatusAnalyzed.
type DayEvent struct {
	Date          string `json:"date"`
	InstrumentCnt int    `json:"instrument_count"`
}

// syncProducer is the slice of sarama.SyncProducer this package actually
// calls; depending on it instead of the full interface lets tests supply a
// fake without simulating a broker.
type syncProducer interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

// DayBroadcaster polls the catalog for dates whose instrument set has
// fully settled and publishes one DayEvent per newly-settled date, the
// same poll-then-publish shape as the teacher's Broadcaster.replayOnce,
// generalized from a per-record WAL scan to a per-date catalog scan.
type DayBroadcaster struct {
	cat         *catalog.Store
	instruments *catalog.InstrumentSet
	producer    syncProducer
	topic       string

	announced map[string]bool
}

func NewDayBroadcaster(cat *catalog.Store, instruments *catalog.InstrumentSet, brokers []string, topic string) (*DayBroadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newDayBroadcaster(cat, instruments, producer, topic), nil
}

func newDayBroadcaster(cat *catalog.Store, instruments *catalog.InstrumentSet, producer syncProducer, topic string) *DayBroadcaster {
	return &DayBroadcaster{
		cat:         cat,
		instruments: instruments,
		producer:    producer,
		topic:       topic,
		announced:   make(map[string]bool),
	}
}

// Start polls every 250ms until ctx is done, matching the teacher's own
// broadcast cadence.
func (b *DayBroadcaster) Start(ctx context.Context) {
	log.Println("[broadcast] day broadcaster started")

	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.pollOnce()
			}
		}
	}()
}

// CheckDate announces date immediately if every instrument has reached
// StatusAnalyzed for it, letting a caller (e.g. Orchestrator.RunDate) push
// a check right after finishing a date instead of waiting for the next
// poll tick.
func (b *DayBroadcaster) CheckDate(date string) {
	b.checkAndAnnounce(date)
}

func (b *DayBroadcaster) pollOnce() {
	seen := make(map[string]bool)
	for _, inst := range b.instruments.All() {
		_ = b.cat.ScanAsset(inst.Code, func(date string, _ catalog.Record) error {
			seen[date] = true
			return nil
		})
	}
	for date := range seen {
		b.checkAndAnnounce(date)
	}
}

func (b *DayBroadcaster) checkAndAnnounce(date string) {
	if b.announced[date] {
		return
	}
	instruments := b.instruments.All()
	for _, inst := range instruments {
		rec, err := b.cat.Get(inst.Code, date)
		if err != nil || rec.Status != catalog.StatusAnalyzed {
			return
		}
	}
	if len(instruments) == 0 {
		return
	}

	payload, err := json.Marshal(DayEvent{Date: date, InstrumentCnt: len(instruments)})
	if err != nil {
		return
	}
	msg := &sarama.ProducerMessage{Topic: b.topic, Value: sarama.ByteEncoder(payload)}
	if _, _, err := b.producer.SendMessage(msg); err != nil {
		return // retry next poll
	}
	b.announced[date] = true
}

func (b *DayBroadcaster) Close() error {
	return b.producer.Close()
}
