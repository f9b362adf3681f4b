// Package publisher hands computed score batches to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/logger"
	"github.com/okian/healthrix/pkg/metrics"
)

// DefaultTopic receives scores when no topic is configured.
const DefaultTopic = "healthrix.scores"

// Header keys set on every message.
const (
	HeaderRunID = "run_id"
	HeaderDate  = "date"
)

// ErrNoBrokers is returned when a publisher is built without brokers.
var ErrNoBrokers = errors.New("no kafka brokers configured")

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type runIDKey struct{}

// WithRunID tags ctx with the batch run id carried in message headers.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run id set by WithRunID.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// KafkaPublisher writes one message per score, keyed by employee id so a
// given employee's scores stay on one partition.
type KafkaPublisher struct {
	w      MessageWriter
	topic  string
	logger logger.Logger
}

// Option configures a KafkaPublisher.
type Option func(*KafkaPublisher)

// WithLogger sets the publisher's logger.
func WithLogger(l logger.Logger) Option {
	return func(p *KafkaPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New wraps an existing writer. topic is informational when the writer
// already has one.
func New(w MessageWriter, topic string, opts ...Option) *KafkaPublisher {
	p := &KafkaPublisher{w: w, topic: topic, logger: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewKafkaPublisher builds a publisher over a kafka.Writer for brokers.
func NewKafkaPublisher(brokers []string, topic string, opts ...Option) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return New(w, topic, opts...), nil
}

// SaveScores publishes scores as one write.
func (p *KafkaPublisher) SaveScores(ctx context.Context, scores []model.PerformanceScore) error {
	if len(scores) == 0 {
		return nil
	}
	start := time.Now()
	runID := RunIDFromContext(ctx)

	msgs := make([]kafka.Message, 0, len(scores))
	for _, s := range scores {
		value, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal score %s: %w", s.ID(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(s.EmployeeID),
			Value: value,
			Headers: []kafka.Header{
				{Key: HeaderRunID, Value: []byte(runID)},
				{Key: HeaderDate, Value: []byte(s.Date)},
			},
		})
	}

	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		metrics.RecordSinkError("kafka")
		p.logger.Error(ctx, "publish failed",
			logger.String("topic", p.topic),
			logger.String("run_id", runID),
			logger.Error(err),
		)
		return fmt.Errorf("publish %d scores to %s: %w", len(msgs), p.topic, err)
	}

	metrics.RecordSinkWrite("kafka", len(msgs), float64(time.Since(start).Microseconds())/1000)
	p.logger.Debug(ctx, "scores published",
		logger.String("topic", p.topic),
		logger.String("run_id", runID),
		logger.Int("count", len(msgs)),
	)
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
