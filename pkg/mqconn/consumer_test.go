package mqconn_test

import (
	"context"
	"testing"

	"github.com/oakbridge/mqconnect/pkg/mqconn"
)

func TestConsumerSubscribesAndUnsubscribesOnClose(t *testing.T) {
	ctx := context.Background()
	m, connectors, resolver := newTestManager()

	c, err := mqconn.CreateConsumer(ctx, m, "broker::Queue::test1", resolver, nil)
	if err != nil {
		t.Fatalf("CreateConsumer: %v", err)
	}

	if _, err := c.Get(); err != mqconn.ErrEmpty {
		t.Fatalf("Get on empty buffer = %v, want ErrEmpty", err)
	}

	conn := connectors["broker"]
	if _, ok := conn.subscribed[c.ID()]; !ok {
		t.Fatal("Subscribe was not called on the connector")
	}

	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(conn.unsubscribed) != 1 || conn.unsubscribed[0] != c.ID() {
		t.Fatalf("unsubscribed = %v, want [%s]", conn.unsubscribed, c.ID())
	}

	if err := c.Close(ctx); err == nil {
		t.Fatal("second Close: expected UnknownMessenger, got nil")
	}
}

func TestConsumerDeliveryCallback(t *testing.T) {
	ctx := context.Background()
	m, connectors, resolver := newTestManager()

	var got mqconn.Delivery
	received := make(chan struct{}, 1)
	callback := func(d mqconn.Delivery) {
		got = d
		received <- struct{}{}
	}

	c, err := mqconn.CreateConsumer(ctx, m, "broker::Queue::test1", resolver, callback)
	if err != nil {
		t.Fatalf("CreateConsumer: %v", err)
	}

	// The fake connector does not itself deliver messages; drive the
	// callback directly as the Connector's background goroutine would.
	callback(mqconn.Delivery{Destination: "/queue/test1", Body: []byte("payload")})

	select {
	case <-received:
	default:
		t.Fatal("callback was not invoked")
	}
	if string(got.Body) != "payload" {
		t.Errorf("delivered body = %q, want %q", got.Body, "payload")
	}

	if _, ok := connectors["broker"].subscribed[c.ID()]; !ok {
		t.Fatal("callback consumer was not subscribed at the connector")
	}
}
