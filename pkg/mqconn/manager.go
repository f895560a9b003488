package mqconn

import (
	"context"
	"log/slog"

	"github.com/oakbridge/mqconnect/pkg/concurrency"
	"github.com/oakbridge/mqconnect/pkg/logger"
)

// ManagerConfig configures a ConnectionManager.
type ManagerConfig struct {
	// LockDebug enables debug logging of reentrant lock acquisitions in
	// concurrency.RecursiveMutex.
	LockDebug bool

	// Logger receives lifecycle logs. Defaults to logger.L().
	Logger *slog.Logger
}

// ConnectionManager owns the registry, allocates MessengerIds, decides when
// to create or tear down Connectors, and serializes every lifecycle
// operation under a single process-wide recursive lock. Connector.Put/Get
// calls run outside the lock on a Connector reference obtained from
// GetConnector, which holds the lock only for the lookup.
type ConnectionManager struct {
	lock     *concurrency.RecursiveMutex
	registry *registry
	factory  ConnectorFactory
	log      *slog.Logger
}

// NewConnectionManager creates a ConnectionManager. factory builds a fresh
// Connector for a brokerId; it is invoked whenever a brokerId with no entry
// in the registry gets its first messenger, including again after an earlier
// entry for it was torn down.
func NewConnectionManager(cfg ManagerConfig, factory ConnectorFactory) *ConnectionManager {
	log := cfg.Logger
	if log == nil {
		log = logger.L()
	}
	return &ConnectionManager{
		lock: concurrency.NewRecursiveMutex(concurrency.MutexConfig{
			Name:      "mqconn.registry",
			DebugMode: cfg.LockDebug,
		}),
		registry: newRegistry(),
		factory:  factory,
		log:      log,
	}
}

// StartConnection parses uri and
// allocates a MessengerId at (brokerId, dest, role), reusing an existing
// Connector or creating and connecting a new one, and returns the allocated
// id. On any connect-path failure the registry is rolled back to its prior
// state before the error is returned.
func (m *ConnectionManager) StartConnection(ctx context.Context, uri string, role Role, resolver ParameterResolver) (MessengerID, error) {
	ep, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	dest := ep.Address()

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.registry.connectionExists(ep.BrokerID) {
		id := m.registry.nextMessengerID(ep.BrokerID, dest, role)
		m.registry.addMessenger(ep.BrokerID, ep, id)
		m.log.Debug("mqconn: reused connector", "broker", ep.BrokerID, "dest", dest, "messenger", id)
		return id, nil
	}

	id := m.registry.nextMessengerID(ep.BrokerID, dest, role)
	m.registry.addMessenger(ep.BrokerID, ep, id)

	conn, err := m.createConnectorAndConnect(ctx, ep.BrokerID, resolver)
	if err != nil {
		m.registry.removeMessenger(ep.BrokerID, dest, id)
		m.log.Warn("mqconn: startConnection rolled back", "broker", ep.BrokerID, "dest", dest, "err", err)
		return "", err
	}

	if m.registry.getConnector(ep.BrokerID) != nil {
		// The lock makes this unreachable; kept as an invariant guard.
		return "", errConcurrentConnectRace(ep.BrokerID)
	}
	m.registry.setConnector(ep.BrokerID, conn)

	m.log.Info("mqconn: connector installed", "broker", ep.BrokerID, "dest", dest, "messenger", id)
	return id, nil
}

// createConnectorAndConnect builds a Connector via the factory, resolves its
// parameters, and brings it up to the connected state. The caller must hold
// m.lock and is responsible for rolling back registry entries on failure.
func (m *ConnectionManager) createConnectorAndConnect(ctx context.Context, brokerID string, resolver ParameterResolver) (Connector, error) {
	params, err := resolver.Resolve(ctx, brokerID)
	if err != nil {
		return nil, errConfigLookupFailed(brokerID, err)
	}

	conn := m.factory(brokerID)
	if err := conn.SetupConnection(ctx, params); err != nil {
		return nil, errBadParameters(err.Error())
	}
	if err := conn.Connect(ctx); err != nil {
		return nil, errConnectFailed(brokerID, err)
	}
	return conn, nil
}

// StopConnection removes the
// messenger from the registry, unsubscribes a consumer if applicable, and
// disconnects the Connector if that was the brokerId's last messenger.
func (m *ConnectionManager) StopConnection(ctx context.Context, uri string, id MessengerID) error {
	ep, err := ParseURI(uri)
	if err != nil {
		return err
	}
	dest := ep.Address()

	m.lock.Lock()
	defer m.lock.Unlock()

	conn := m.registry.getConnector(ep.BrokerID)

	if !m.registry.removeMessenger(ep.BrokerID, dest, id) {
		return errUnknownMessenger(id)
	}

	role, _, _ := splitMessengerID(id)

	var unsubErr error
	if role == RoleConsumer && conn != nil {
		if err := conn.Unsubscribe(ctx, dest, id); err != nil {
			unsubErr = errUnsubscribeFailed(dest, err)
		}
	}

	if !m.registry.connectionExists(ep.BrokerID) {
		if conn != nil {
			if err := conn.Disconnect(ctx); err != nil {
				m.log.Warn("mqconn: disconnect failed", "broker", ep.BrokerID, "err", err)
				if unsubErr == nil {
					return errDisconnectFailed(ep.BrokerID, err)
				}
			}
		}
	}

	return unsubErr
}

// GetConnector returns the live Connector for brokerID, or NoSuchConnection
// if there is none.
func (m *ConnectionManager) GetConnector(brokerID string) (Connector, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	conn := m.registry.getConnector(brokerID)
	if conn == nil {
		return nil, errNoSuchConnection(brokerID)
	}
	return conn, nil
}

// GetAllMessengers returns every live messenger as a pseudo-path.
func (m *ConnectionManager) GetAllMessengers() []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.registry.listMessengers()
}

// ListConnections returns every brokerId with at least one live messenger.
func (m *ConnectionManager) ListConnections() []string {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.registry.listConnections()
}

// RemoveAllConnections disconnects every live Connector, ignoring individual
// disconnect errors, and clears the registry. Used for shutdown and test
// isolation.
func (m *ConnectionManager) RemoveAllConnections(ctx context.Context) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, brokerID := range m.registry.listConnections() {
		if conn := m.registry.getConnector(brokerID); conn != nil {
			if err := conn.Disconnect(ctx); err != nil {
				m.log.Warn("mqconn: removeAllConnections disconnect failed", "broker", brokerID, "err", err)
			}
		}
	}
	m.registry = newRegistry()
}
