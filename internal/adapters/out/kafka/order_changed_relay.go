// Package kafka relays committed order changes to a Kafka topic so processes
// outside this service can follow the separation floor.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"separation/internal/adapters/out/broadcast"
	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

var (
	ErrRelayClosed      = errors.New("order changed relay is closed")
	ErrRelayBacklogFull = errors.New("order changed relay backlog is full")
)

// MessageWriter is the part of *kafka.Writer the relay uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderChangedRelay publishes order events to Kafka from a background worker.
// Publish only enqueues; the write goes through a circuit breaker so a broker
// outage costs one fast failure per event instead of a timeout.
//
// Messages are keyed by order id, so one order's events stay in one partition
// and keep their order.
type OrderChangedRelay struct {
	writer  MessageWriter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	queue  chan order.Event
	closed bool
	done   chan struct{}
}

var _ ports.EventPublisher = (*OrderChangedRelay)(nil)

type RelayOption func(*relayConfig)

type relayConfig struct {
	logger    *slog.Logger
	queueSize int
	timeout   time.Duration
}

func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(c *relayConfig) { c.logger = l }
}

func WithQueueSize(n int) RelayOption {
	return func(c *relayConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

func WithWriteTimeout(d time.Duration) RelayOption {
	return func(c *relayConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewOrderChangedRelay connects to the brokers at host and writes to topic.
func NewOrderChangedRelay(host, topic string, opts ...RelayOption) (*OrderChangedRelay, error) {
	if host == "" {
		return nil, errors.New("kafka host is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(host),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewOrderChangedRelayWithWriter(writer, opts...), nil
}

// NewOrderChangedRelayWithWriter starts a relay over an existing writer.
func NewOrderChangedRelayWithWriter(writer MessageWriter, opts ...RelayOption) *OrderChangedRelay {
	cfg := relayConfig{
		logger:    slog.Default(),
		queueSize: defaultQueueSize,
		timeout:   defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger.With("component", "order_changed_relay")

	r := &OrderChangedRelay{
		writer:  writer,
		logger:  logger,
		timeout: cfg.timeout,
		queue:   make(chan order.Event, cfg.queueSize),
		done:    make(chan struct{}),
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-order-changed",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	go r.run()
	return r
}

// Publish enqueues event without blocking.
func (r *OrderChangedRelay) Publish(_ context.Context, event order.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRelayClosed
	}
	select {
	case r.queue <- event:
		return nil
	default:
		return ErrRelayBacklogFull
	}
}

// Close stops accepting events, writes what is queued until ctx is done and
// closes the writer.
func (r *OrderChangedRelay) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	var err error
	select {
	case <-r.done:
	case <-ctx.Done():
		err = fmt.Errorf("flush order changed relay: %w", ctx.Err())
	}
	return errors.Join(err, r.writer.Close())
}

func (r *OrderChangedRelay) run() {
	defer close(r.done)
	for event := range r.queue {
		if err := r.write(event); err != nil {
			r.logger.Warn("failed to relay order event",
				"event_type", string(event.Type),
				"order_id", event.OrderID.String(),
				"error", err,
			)
		}
	}
}

func (r *OrderChangedRelay) write(event order.Event) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}
	_, err = r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return nil, r.writer.WriteMessages(ctx, msg)
	})
	return err
}

func toMessage(event order.Event) (kafka.Message, error) {
	value, err := json.Marshal(broadcast.NewMessage(event))
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal order event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: event.Timestamp,
	}, nil
}
