// Package publish hands finished runs to Kafka for downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/hyperifyio/blogforge/internal/pipeline"
)

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes one message per successful run, keyed by run id.
type Producer struct {
	writer MessageWriter
	topic  string
}

// NewProducer builds a synchronous producer for a comma-separated broker
// list.
func NewProducer(brokers, topic string) *Producer {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	log.Info().Strs("brokers", addrs).Str("topic", topic).Msg("kafka producer initialized")
	return &Producer{writer: w, topic: topic}
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w MessageWriter, topic string) *Producer {
	return &Producer{writer: w, topic: topic}
}

// Publish writes resp as JSON. Failed runs are skipped.
func (p *Producer) Publish(ctx context.Context, resp pipeline.Response) error {
	if !resp.Success {
		return nil
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(resp.RunID),
		Value: body,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to kafka topic %s: %w", p.topic, err)
	}
	log.Debug().Str("run_id", resp.RunID).Int("bytes", len(body)).Msg("response published")
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
