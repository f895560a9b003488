package mqconn_test

import (
	"context"
	"sync"

	"github.com/oakbridge/mqconnect/pkg/mqconn"
)

// fakeConnector is an in-memory mqconn.Connector test double. It never
// touches the network; connectFail/disconnectFail let a test inject a
// failure for exactly one call.
type fakeConnector struct {
	mu sync.Mutex

	brokerID string
	params   mqconn.Parameters

	connected    bool
	disconnected bool

	connectFail    error
	disconnectFail error

	subscribed   map[mqconn.MessengerID]string
	unsubscribed []mqconn.MessengerID
	published    []publishedMsg

	reconnectCalls int
}

type publishedMsg struct {
	destination string
	body        []byte
}

func newFakeConnector(brokerID string) *fakeConnector {
	return &fakeConnector{
		brokerID:   brokerID,
		subscribed: make(map[mqconn.MessengerID]string),
	}
}

func newFakeFactory(connectors map[string]*fakeConnector) mqconn.ConnectorFactory {
	return func(brokerID string) mqconn.Connector {
		c := newFakeConnector(brokerID)
		connectors[brokerID] = c
		return c
	}
}

func (c *fakeConnector) SetupConnection(ctx context.Context, params mqconn.Parameters) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
	return nil
}

func (c *fakeConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectFail != nil {
		err := c.connectFail
		c.connectFail = nil
		return err
	}
	c.connected = true
	return nil
}

func (c *fakeConnector) Subscribe(ctx context.Context, destination string, messengerID mqconn.MessengerID, callback mqconn.DeliveryFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed[messengerID] = destination
	return nil
}

func (c *fakeConnector) Unsubscribe(ctx context.Context, destination string, messengerID mqconn.MessengerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribed, messengerID)
	c.unsubscribed = append(c.unsubscribed, messengerID)
	return nil
}

func (c *fakeConnector) Put(ctx context.Context, destination string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, publishedMsg{destination: destination, body: body})
	return nil
}

func (c *fakeConnector) Get(ctx context.Context) (mqconn.Delivery, error) {
	return mqconn.Delivery{}, mqconn.ErrEmpty
}

func (c *fakeConnector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disconnectFail != nil {
		err := c.disconnectFail
		c.disconnectFail = nil
		return err
	}
	c.disconnected = true
	return nil
}

func (c *fakeConnector) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnectCalls++
	return nil
}

// fakeResolver resolves every brokerId to a parameter record carrying only
// Host = brokerId, unless told to fail a specific brokerId.
type fakeResolver struct {
	failFor map[string]error
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{failFor: make(map[string]error)}
}

func (r *fakeResolver) Resolve(ctx context.Context, brokerID string) (mqconn.Parameters, error) {
	if err, ok := r.failFor[brokerID]; ok {
		return mqconn.Parameters{}, err
	}
	return mqconn.Parameters{Host: brokerID}, nil
}
