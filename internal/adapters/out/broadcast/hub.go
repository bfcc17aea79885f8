// Package broadcast delivers committed order changes to in-process observers.
//
// The Hub keeps one bounded buffer per subscriber. Publishing never waits:
// when a buffer is full the event is dropped for that subscriber only and the
// subscription is flagged, so the observer knows to re-read the order.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"
)

const defaultBufferSize = 64

var ErrHubClosed = errors.New("broadcast hub is closed")

// Metrics observes the hub. Implementations must be safe for concurrent use.
type Metrics interface {
	SubscriberAdded(topic string)
	SubscriberRemoved(topic string)
	EventDropped(topic string)
}

type noopMetrics struct{}

func (noopMetrics) SubscriberAdded(string) {}
func (noopMetrics) SubscriberRemoved(string) {}
func (noopMetrics) EventDropped(string) {}

// Subscription receives the events of one topic until it is closed.
type Subscription struct {
	topic   string
	events  chan order.Event
	hub     *Hub
	dropped atomic.Bool
}

// Events is closed when the subscription or the hub is closed.
func (s *Subscription) Events() <-chan order.Event { return s.events }

func (s *Subscription) Topic() string { return s.topic }

// Lagged reports whether events were dropped since the previous call.
func (s *Subscription) Lagged() bool {
	return s.dropped.Swap(false)
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Hub is an in-process topic hub. Every event goes to FleetTopic and to the
// topic of its order.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	closed bool

	bufferSize int
	logger     *slog.Logger
	metrics    Metrics
}

var _ ports.EventPublisher = (*Hub)(nil)

type Option func(*Hub)

// WithBufferSize sets the per-subscriber buffer; non-positive values keep
// the default.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		topics:     make(map[string]map[*Subscription]struct{}),
		bufferSize: defaultBufferSize,
		logger:     slog.Default(),
		metrics:    noopMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "broadcast_hub")
	return h
}

// Subscribe opens a subscription on topic, which must be FleetTopic or an
// order topic.
func (h *Hub) Subscribe(topic string) (*Subscription, error) {
	topic, err := ParseTopic(topic)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &Subscription{
		topic:  topic,
		events: make(chan order.Event, h.bufferSize),
		hub:    h,
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.metrics.SubscriberAdded(topic)
	return sub, nil
}

// Publish hands event to every subscriber of FleetTopic and of the event's
// order topic without blocking.
func (h *Hub) Publish(_ context.Context, event order.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	h.deliver(FleetTopic, event)
	h.deliver(OrderTopic(event.OrderID), event)
	return nil
}

func (h *Hub) deliver(topic string, event order.Event) {
	for sub := range h.topics[topic] {
		select {
		case sub.events <- event:
		default:
			sub.dropped.Store(true)
			h.metrics.EventDropped(topic)
			h.logger.Debug("subscriber lagging, event dropped",
				"topic", topic,
				"event_type", string(event.Type),
			)
		}
	}
}

// Subscribers counts the open subscriptions of topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close ends every subscription. Later Subscribe and Publish calls return
// ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for topic, subs := range h.topics {
		for sub := range subs {
			close(sub.events)
			h.metrics.SubscriberRemoved(topic)
		}
	}
	h.topics = nil
	h.logger.Info("broadcast hub closed")
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok = subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
	close(sub.events)
	h.metrics.SubscriberRemoved(sub.topic)
}
