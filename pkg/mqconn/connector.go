package mqconn

import "context"

// Role distinguishes the two messenger kinds sharing MessengerId allocation
// scope.
type Role string

const (
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
)

// MessengerID is a string of the form "<role><N>", unique within
// (brokerId, destination, role).
type MessengerID string

// Delivery is a single message handed to a Consumer, either through Get or
// through the optional delivery callback passed to Subscribe.
type Delivery struct {
	Destination string
	Body        []byte
}

// DeliveryFunc is invoked by a Connector's background delivery goroutine for
// every message arriving on a subscription. It must not block for long;
// slow handlers should hand off to their own goroutine.
type DeliveryFunc func(Delivery)

// Parameters is the connection parameter record a ParameterResolver produces
// for a brokerId and a Connector consumes in SetupConnection. Unknown keys
// outside this record have no representation; a Connector implementation
// that needs protocol-specific extras should extend this struct rather than
// accept a bag of untyped values.
type Parameters struct {
	Host            string
	Port            int
	VHost           string
	User            string
	Password        string
	SSLVersion      string
	HostCertificate string
	HostKey         string
	Acknowledgement string
	Queues          []string
	Topics          []string
	MQType          string
}

// Connector is the protocol-specific broker client capability. One instance
// is owned by exactly one ConnectionRegistry entry for its lifetime and is
// shared by every messenger on that brokerId. Connector implementations must
// make concurrent Put/Get calls safe; the manager never serializes those.
type Connector interface {
	// SetupConnection validates params and moves the Connector into a
	// configured state. It performs no I/O.
	SetupConnection(ctx context.Context, params Parameters) error

	// Connect establishes the physical connection. Called inside the
	// manager's lock.
	Connect(ctx context.Context) error

	// Subscribe begins delivery for messengerId on destination. callback
	// may be nil, in which case messages accumulate for Get to drain.
	// Called inside the manager's lock.
	Subscribe(ctx context.Context, destination string, messengerID MessengerID, callback DeliveryFunc) error

	// Unsubscribe stops delivery for messengerId; other subscriptions on
	// the same Connector are unaffected. Called inside the manager's lock.
	Unsubscribe(ctx context.Context, destination string, messengerID MessengerID) error

	// Put publishes body to destination. It must buffer and flush rather
	// than drop messages across a transient reconnect. Called outside the
	// manager's lock.
	Put(ctx context.Context, destination string, body []byte) error

	// Get returns the next buffered message for any subscription on this
	// Connector, or ErrEmpty if none is currently available. Called
	// outside the manager's lock.
	Get(ctx context.Context) (Delivery, error)

	// Disconnect closes the physical connection. Subsequent operations are
	// invalid. Called inside the manager's lock.
	Disconnect(ctx context.Context) error

	// Reconnect idempotently re-establishes the physical connection. It is
	// invoked internally by the Connector itself on transport errors, not
	// by the manager.
	Reconnect(ctx context.Context) error
}

// ParameterResolver maps a brokerId to the connection parameters a Connector
// needs to set up and connect.
type ParameterResolver interface {
	Resolve(ctx context.Context, brokerID string) (Parameters, error)
}

// ConnectorFactory builds a fresh, unconfigured Connector for a brokerId.
// The manager calls SetupConnection/Connect on the result before installing
// it in the registry.
type ConnectorFactory func(brokerID string) Connector
