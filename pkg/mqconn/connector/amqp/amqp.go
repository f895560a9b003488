// Package amqp is the reference mqconn.Connector implementation. The
// original Message Queue Connection Manager speaks STOMP; no STOMP client
// exists anywhere in this module's dependency corpus, so this Connector
// speaks AMQP 0.9.1 to a RabbitMQ broker instead: queue destinations are
// plain queues on the default exchange, topic destinations are routing keys
// on a topic exchange.
package amqp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appErrors "github.com/oakbridge/mqconnect/pkg/errors"
	"github.com/oakbridge/mqconnect/pkg/logger"
	"github.com/oakbridge/mqconnect/pkg/mqconn"
	"github.com/oakbridge/mqconnect/pkg/resilience"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// topicExchange is the exchange every Topic destination is bound to. Queue
// destinations publish directly to the default exchange using the queue
// name as routing key, matching plain AMQP queue semantics.
const topicExchange = "mqconn.topics"

// connectorBufferSize bounds the aggregate per-Connector delivery buffer
// drained by Get, used by subscriptions created without their own callback.
const connectorBufferSize = 256

// subKey identifies a subscription. MessengerIds are only unique per
// destination, so the destination is part of the key.
type subKey struct {
	destination string
	messengerID mqconn.MessengerID
}

// subscription tracks one live Subscribe call so Unsubscribe can cancel it.
type subscription struct {
	channel *amqp.Channel
	tag     string
	cancel  context.CancelFunc
}

// Connector is the AMQP implementation of mqconn.Connector. One instance
// owns one physical *amqp.Connection shared by every destination on its
// brokerId.
type Connector struct {
	brokerID string
	retry    resilience.RetryConfig

	mu     sync.Mutex
	params mqconn.Parameters
	conn   *amqp.Connection
	pubCh  *amqp.Channel

	subs   map[subKey]*subscription
	buffer chan mqconn.Delivery
}

// New creates an unconfigured Connector for brokerID. Call SetupConnection
// and Connect before use.
func New(brokerID string) *Connector {
	return &Connector{
		brokerID: brokerID,
		retry:    resilience.DefaultRetryConfig(),
		subs:     make(map[subKey]*subscription),
		buffer:   make(chan mqconn.Delivery, connectorBufferSize),
	}
}

// Factory adapts New to mqconn.ConnectorFactory.
func Factory(brokerID string) mqconn.Connector {
	return New(brokerID)
}

func (c *Connector) SetupConnection(ctx context.Context, params mqconn.Parameters) error {
	if params.Host == "" {
		return fmt.Errorf("amqp: missing host")
	}
	if strings.ToLower(params.MQType) != "" && strings.ToLower(params.MQType) != "amqp" {
		return fmt.Errorf("amqp: unsupported mq type %q", params.MQType)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
	return nil
}

func (c *Connector) dialURL() string {
	p := c.params
	vhost := p.VHost
	if vhost == "/" {
		vhost = ""
	}
	scheme := "amqp"
	if p.SSLVersion != "" {
		scheme = "amqps"
	}
	port := p.Port
	if port == 0 {
		port = 5672
	}
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s", scheme, p.User, p.Password, p.Host, port, vhost)
}

func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// connectLocked dials the broker and opens the publisher channel. Caller
// must hold c.mu.
func (c *Connector) connectLocked(ctx context.Context) error {
	conn, err := amqp.Dial(c.dialURL())
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(topicExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	c.conn = conn
	c.pubCh = ch
	return nil
}

func (c *Connector) Subscribe(ctx context.Context, destination string, messengerID mqconn.MessengerID, callback mqconn.DeliveryFunc) error {
	kind, name, err := splitDestination(destination)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("amqp: not connected")
	}

	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	var queueName string
	switch kind {
	case "queue":
		q, err := ch.QueueDeclare(name, true, false, false, false, nil)
		if err != nil {
			ch.Close()
			return err
		}
		queueName = q.Name
	case "topic":
		q, err := ch.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			ch.Close()
			return err
		}
		if err := ch.QueueBind(q.Name, name, topicExchange, false, nil); err != nil {
			ch.Close()
			return err
		}
		queueName = q.Name
	default:
		ch.Close()
		return fmt.Errorf("amqp: unknown destination kind %q", kind)
	}

	tag := string(messengerID) + "-" + uuid.New().String()[:8]
	deliveries, err := ch.Consume(queueName, tag, false, kind == "topic", false, false, nil)
	if err != nil {
		ch.Close()
		return err
	}

	deliverCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.subs[subKey{destination, messengerID}] = &subscription{channel: ch, tag: tag, cancel: cancel}
	c.mu.Unlock()

	deliver := callback
	if deliver == nil {
		deliver = func(d mqconn.Delivery) { c.buffer <- d }
	}

	go c.deliveryLoop(deliverCtx, destination, deliveries, deliver)
	return nil
}

func (c *Connector) deliveryLoop(ctx context.Context, destination string, deliveries <-chan amqp.Delivery, deliver mqconn.DeliveryFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			deliver(mqconn.Delivery{Destination: destination, Body: d.Body})
			if err := d.Ack(false); err != nil {
				logger.L().Warn("amqp: ack failed", "broker", c.brokerID, "dest", destination, "err", err)
			}
		}
	}
}

func (c *Connector) Unsubscribe(ctx context.Context, destination string, messengerID mqconn.MessengerID) error {
	c.mu.Lock()
	key := subKey{destination, messengerID}
	sub, ok := c.subs[key]
	if ok {
		delete(c.subs, key)
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}
	sub.cancel()
	if err := sub.channel.Cancel(sub.tag, false); err != nil {
		return err
	}
	return sub.channel.Close()
}

func (c *Connector) Put(ctx context.Context, destination string, body []byte) error {
	kind, name, err := splitDestination(destination)
	if err != nil {
		return err
	}

	exchange, routingKey := "", name
	if kind == "topic" {
		exchange = topicExchange
	}

	publish := func(ctx context.Context) error {
		c.mu.Lock()
		ch := c.pubCh
		c.mu.Unlock()
		if ch == nil {
			return fmt.Errorf("amqp: not connected")
		}

		confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))
		if err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
			ContentType:  "application/octet-stream",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		}); err != nil {
			return err
		}

		select {
		case confirm := <-confirms:
			if !confirm.Ack {
				return fmt.Errorf("amqp: broker nacked publish")
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err = publish(ctx)
	if err == nil {
		return nil
	}

	// Connection likely dropped mid-flight; reconnect with backoff and
	// flush this message rather than dropping it, per the Connector
	// contract's reconnect-and-flush requirement.
	logger.L().Warn("amqp: publish failed, reconnecting", "broker", c.brokerID, "dest", destination, "err", err)
	if reconErr := c.Reconnect(ctx); reconErr != nil {
		return appErrors.New(mqconn.CodePublishFailed, "failed to publish to "+destination, reconErr)
	}

	if err := resilience.Retry(ctx, c.retry, publish); err != nil {
		return appErrors.New(mqconn.CodePublishFailed, "failed to publish to "+destination, err)
	}
	return nil
}

func (c *Connector) Get(ctx context.Context) (mqconn.Delivery, error) {
	select {
	case d := <-c.buffer:
		return d, nil
	default:
		return mqconn.Delivery{}, mqconn.ErrEmpty
	}
}

func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, sub := range c.subs {
		sub.cancel()
		sub.channel.Close()
		delete(c.subs, id)
	}
	if c.pubCh != nil {
		c.pubCh.Close()
		c.pubCh = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Connector) Reconnect(ctx context.Context) error {
	return resilience.Retry(ctx, c.retry, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil && !c.conn.IsClosed() {
			return nil
		}
		if c.pubCh != nil {
			c.pubCh.Close()
			c.pubCh = nil
		}
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		return c.connectLocked(ctx)
	})
}

// splitDestination parses an address like "/queue/test1" into its kind and
// name, the inverse of mqconn.Endpoint.Address.
func splitDestination(address string) (kind, name string, err error) {
	trimmed := strings.TrimPrefix(address, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("amqp: malformed destination %q", address)
	}
	return parts[0], parts[1], nil
}
