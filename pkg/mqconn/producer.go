package mqconn

import "context"

// Producer is a thin per-caller handle bound to one destination and one
// MessengerId. It owns no back-edge into the Connector: Put looks the shared
// Connector up by brokerId through the manager on every call, and Close goes
// through StopConnection with the producer's uri and MessengerId.
type Producer struct {
	manager     *ConnectionManager
	uri         string
	brokerID    string
	dest        string
	messengerID MessengerID
	closed      bool
}

// CreateProducer allocates a producer MessengerId for uri, sharing the
// broker's Connector if one already exists or creating and connecting one
// otherwise.
func CreateProducer(ctx context.Context, manager *ConnectionManager, uri string, resolver ParameterResolver) (*Producer, error) {
	ep, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	id, err := manager.StartConnection(ctx, uri, RoleProducer, resolver)
	if err != nil {
		return nil, err
	}
	return &Producer{manager: manager, uri: uri, brokerID: ep.BrokerID, dest: ep.Address(), messengerID: id}, nil
}

// ID returns the producer's MessengerId.
func (p *Producer) ID() MessengerID { return p.messengerID }

// Put publishes body to the producer's destination via the shared Connector.
// It fails if the producer has already been closed.
func (p *Producer) Put(ctx context.Context, body []byte) error {
	if p.closed {
		return errUnknownMessenger(p.messengerID)
	}

	conn, err := p.manager.GetConnector(p.brokerID)
	if err != nil {
		return err
	}
	return conn.Put(ctx, p.dest, body)
}

// Close tears down the producer's MessengerId via StopConnection. A second
// Close call fails with UnknownMessenger, matching the reference behavior.
func (p *Producer) Close(ctx context.Context) error {
	err := p.manager.StopConnection(ctx, p.uri, p.messengerID)
	p.closed = true
	return err
}
