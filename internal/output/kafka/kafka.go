// Package kafka mirrors classified events to a Kafka topic, keyed by
// device name so each device's events stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hejijunhao/edgepair/internal/model"
	"github.com/hejijunhao/edgepair/internal/output"
)

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Option configures the Kafka writer built by New.
type Option func(*kafkago.Writer)

// WithBatchTimeout sets how long the writer waits to fill a batch.
func WithBatchTimeout(d time.Duration) Option {
	return func(w *kafkago.Writer) { w.BatchTimeout = d }
}

// WithAsync makes WriteMessages return before the broker acknowledges.
func WithAsync() Option {
	return func(w *kafkago.Writer) { w.Async = true }
}

// Output publishes events as JSON messages.
type Output struct {
	w         MessageWriter
	topic     string
	verbosity output.Verbosity
}

// New creates an Output writing to topic on the given brokers.
func New(brokers []string, topic string, verbosity output.Verbosity, opts ...Option) (*Output, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka output: brokers and topic are required")
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
		WriteTimeout: 5 * time.Second,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			slog.Error("kafka writer: "+fmt.Sprintf(msg, args...), "topic", topic)
		}),
	}
	for _, opt := range opts {
		opt(w)
	}
	slog.Info("kafka output created", "brokers", brokers, "topic", topic)
	return NewWithWriter(w, topic, verbosity), nil
}

// NewWithWriter wraps an existing writer.
func NewWithWriter(w MessageWriter, topic string, verbosity output.Verbosity) *Output {
	return &Output{w: w, topic: topic, verbosity: verbosity}
}

func (o *Output) Write(ctx context.Context, event model.ClassifiedEvent) error {
	value, err := json.Marshal(output.FormatEvent(event, o.verbosity))
	if err != nil {
		return fmt.Errorf("kafka output: marshal: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(event.Record.DeviceName),
		Value: value,
		Time:  event.Time,
		Headers: []kafkago.Header{
			{Key: "side", Value: []byte(event.Side.String())},
			{Key: "rule", Value: []byte(event.Rule)},
		},
	}
	if err := o.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka output: write to %s: %w", o.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (o *Output) Close() error {
	return o.w.Close()
}
