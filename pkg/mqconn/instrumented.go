package mqconn

import (
	"context"
	"time"

	"github.com/oakbridge/mqconnect/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedConnector wraps a Connector without altering its semantics. It
// opens a tracing span around every operation except Get, and logs Connect,
// Disconnect, Reconnect and failed Get calls.
type InstrumentedConnector struct {
	next   Connector
	tracer trace.Tracer
}

// NewInstrumentedConnector wraps next with tracing and logging.
func NewInstrumentedConnector(next Connector) *InstrumentedConnector {
	return &InstrumentedConnector{next: next, tracer: otel.Tracer("pkg/mqconn")}
}

func (c *InstrumentedConnector) SetupConnection(ctx context.Context, params Parameters) error {
	ctx, span := c.tracer.Start(ctx, "mqconn.SetupConnection", trace.WithAttributes(
		attribute.String("mq.host", params.Host),
	))
	defer span.End()

	err := c.next.SetupConnection(ctx, params)
	recordErr(span, err)
	return err
}

func (c *InstrumentedConnector) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mqconn.Connect")
	defer span.End()

	start := time.Now()
	err := c.next.Connect(ctx)
	logger.L().InfoContext(ctx, "mqconn: connect", "duration_ms", time.Since(start).Milliseconds(), "error", err)
	recordErr(span, err)
	return err
}

func (c *InstrumentedConnector) Subscribe(ctx context.Context, destination string, messengerID MessengerID, callback DeliveryFunc) error {
	ctx, span := c.tracer.Start(ctx, "mqconn.Subscribe", trace.WithAttributes(
		attribute.String("mq.destination", destination),
		attribute.String("mq.messenger_id", string(messengerID)),
	))
	defer span.End()

	err := c.next.Subscribe(ctx, destination, messengerID, callback)
	recordErr(span, err)
	return err
}

func (c *InstrumentedConnector) Unsubscribe(ctx context.Context, destination string, messengerID MessengerID) error {
	ctx, span := c.tracer.Start(ctx, "mqconn.Unsubscribe", trace.WithAttributes(
		attribute.String("mq.destination", destination),
		attribute.String("mq.messenger_id", string(messengerID)),
	))
	defer span.End()

	err := c.next.Unsubscribe(ctx, destination, messengerID)
	recordErr(span, err)
	return err
}

func (c *InstrumentedConnector) Put(ctx context.Context, destination string, body []byte) error {
	ctx, span := c.tracer.Start(ctx, "mqconn.Put", trace.WithAttributes(
		attribute.String("mq.destination", destination),
		attribute.Int("mq.body_size", len(body)),
	))
	defer span.End()

	err := c.next.Put(ctx, destination, body)
	recordErr(span, err)
	return err
}

func (c *InstrumentedConnector) Get(ctx context.Context) (Delivery, error) {
	d, err := c.next.Get(ctx)
	if err != nil && err != ErrEmpty {
		logger.L().WarnContext(ctx, "mqconn: get failed", "error", err)
	}
	return d, err
}

func (c *InstrumentedConnector) Disconnect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mqconn.Disconnect")
	defer span.End()

	err := c.next.Disconnect(ctx)
	logger.L().InfoContext(ctx, "mqconn: disconnect", "error", err)
	recordErr(span, err)
	return err
}

func (c *InstrumentedConnector) Reconnect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mqconn.Reconnect")
	defer span.End()

	err := c.next.Reconnect(ctx)
	logger.L().WarnContext(ctx, "mqconn: reconnect", "error", err)
	recordErr(span, err)
	return err
}

func recordErr(span trace.Span, err error) {
	if err == nil || err == ErrEmpty {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
