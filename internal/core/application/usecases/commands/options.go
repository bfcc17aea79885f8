package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"
	"separation/internal/pkg/errs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName          = "separation/commands"
	defaultStoreTimeout = 5 * time.Second
)

// Outcome labels reported to a Recorder.
const (
	OutcomeOK           = "ok"
	OutcomeConflict     = "conflict"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeStorageError = "storage_error"
)

// Recorder receives one observation per handled command.
type Recorder interface {
	OrderCreated(outcome string)
	LineTransitioned(action order.Action, outcome string)
	OrderFinalized(outcome string, elapsed time.Duration)
	ShippingChanged(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) OrderCreated(string) {}
func (noopRecorder) LineTransitioned(order.Action, string) {}
func (noopRecorder) OrderFinalized(string, time.Duration) {}
func (noopRecorder) ShippingChanged(string) {}

type handlerConfig struct {
	publisher    ports.EventPublisher
	logger       *slog.Logger
	recorder     Recorder
	now          func() time.Time
	storeTimeout time.Duration
	tracer       trace.Tracer
}

// Option configures a command handler.
type Option func(*handlerConfig)

// WithPublisher sets where committed changes are announced.
func WithPublisher(p ports.EventPublisher) Option {
	return func(c *handlerConfig) { c.publisher = p }
}

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *handlerConfig) { c.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *handlerConfig) { c.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *handlerConfig) { c.now = now }
}

// WithStoreTimeout bounds every store phase of a command. Non-positive values
// keep the default of 5s.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *handlerConfig) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

func newHandlerConfig(component string, opts []Option) handlerConfig {
	cfg := handlerConfig{
		logger:       slog.Default(),
		recorder:     noopRecorder{},
		now:          time.Now,
		storeTimeout: defaultStoreTimeout,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger = cfg.logger.With("component", component)
	return cfg
}

// readContext bounds the read phase; it still follows request cancellation.
func (c handlerConfig) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.storeTimeout)
}

// writeContext bounds the write phase and detaches it from the request, so a
// client going away cannot interrupt a write that has started.
func (c handlerConfig) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.storeTimeout)
}

// publish announces a committed change. Failures are logged only.
func (c handlerConfig) publish(ctx context.Context, event order.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "failed to publish event",
			"event_type", string(event.Type),
			"order_id", event.OrderID.String(),
			"error", err,
		)
	}
}

// endSpan records err on span and closes it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// outcomeOf maps an error onto a Recorder label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, errs.ErrStorageUnavailable):
		return OutcomeStorageError
	case errors.Is(err, errs.ErrObjectNotFound):
		return OutcomeNotFound
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrAlreadyFinalized),
		errors.Is(err, order.ErrIncompleteOrder),
		errors.Is(err, ErrDuplicateExternalReference):
		return OutcomeConflict
	default:
		return OutcomeInvalid
	}
}
