// Package events publishes session lifecycle events for downstream
// consumers (dashboards, the decision service's audit trail).
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/finvue/vkyc/internal/core"
)

type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Publish(ctx context.Context, ev core.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		// Keyed by room so events for one session stay ordered.
		Key:   []byte(ev.RoomID),
		Value: data,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		log.Warn().Err(err).Str("module", "events.kafka").Str("event", ev.Type).Msg("write failed")
		return err
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
