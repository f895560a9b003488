package mqconn

import "context"

// consumerBufferSize bounds the per-consumer delivery buffer drained by Get.
// A Connector's background delivery goroutine blocks on a full buffer rather
// than dropping messages.
const consumerBufferSize = 64

// Consumer is a thin per-caller handle bound to one destination and one
// MessengerId, additionally subscribed at the Connector for delivery.
type Consumer struct {
	manager     *ConnectionManager
	uri         string
	brokerID    string
	dest        string
	messengerID MessengerID
	buffer      chan Delivery
}

// CreateConsumer allocates a consumer MessengerId for uri and subscribes it
// at the shared Connector. If callback is nil, deliveries accumulate in an
// internal bounded buffer drained by Get.
func CreateConsumer(ctx context.Context, manager *ConnectionManager, uri string, resolver ParameterResolver, callback DeliveryFunc) (*Consumer, error) {
	ep, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	// Hold the manager's lock across allocation and Subscribe so the
	// subscription is made inside the lock, like every other I/O-bearing
	// lifecycle call; the lock is recursive, so the calls below may retake it.
	manager.lock.Lock()
	defer manager.lock.Unlock()

	id, err := manager.StartConnection(ctx, uri, RoleConsumer, resolver)
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		manager:     manager,
		uri:         uri,
		brokerID:    ep.BrokerID,
		dest:        ep.Address(),
		messengerID: id,
		buffer:      make(chan Delivery, consumerBufferSize),
	}

	deliver := callback
	if deliver == nil {
		deliver = c.enqueue
	}

	conn, err := manager.GetConnector(ep.BrokerID)
	if err != nil {
		_ = manager.StopConnection(ctx, uri, id)
		return nil, err
	}

	if err := conn.Subscribe(ctx, c.dest, id, deliver); err != nil {
		_ = manager.StopConnection(ctx, uri, id)
		return nil, errSubscribeFailed(c.dest, err)
	}

	return c, nil
}

func (c *Consumer) enqueue(d Delivery) {
	c.buffer <- d
}

// ID returns the consumer's MessengerId.
func (c *Consumer) ID() MessengerID { return c.messengerID }

// Get performs a non-blocking pull of the next buffered message for this
// subscription. It returns ErrEmpty if none is currently available.
func (c *Consumer) Get() (Delivery, error) {
	select {
	case d := <-c.buffer:
		return d, nil
	default:
		return Delivery{}, ErrEmpty
	}
}

// Close unsubscribes and tears down the consumer's MessengerId via
// StopConnection, which performs the unsubscribe on its behalf. A second
// Close call fails with UnknownMessenger. Messages already buffered remain
// drainable through Get after Close.
func (c *Consumer) Close(ctx context.Context) error {
	return c.manager.StopConnection(ctx, c.uri, c.messengerID)
}
