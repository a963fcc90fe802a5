package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes trade events to a Kafka topic for downstream
// reporting pipelines. Writes happen asynchronously; a failed write is
// logged and dropped, never retried on the settlement path.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and
// topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					slog.Warn("kafka trade event write failed",
						slog.Int("messages", len(messages)),
						slog.String("error", err.Error()))
				}
			},
		},
	}
}

func (p *KafkaPublisher) PublishTradeCompleted(ev TradeCompleted) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshal trade event", slog.String("error", err.Error()))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TradeID),
		Value: data,
	}); err != nil {
		slog.Warn("kafka trade event enqueue failed",
			slog.String("trade_id", ev.TradeID),
			slog.String("error", err.Error()))
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
