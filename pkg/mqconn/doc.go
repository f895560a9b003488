/*
Package mqconn multiplexes many producer/consumer handles onto a shared pool
of physical broker connections, one per brokerId.

Usage:

	manager := mqconn.NewConnectionManager(mqconn.ManagerConfig{}, amqp.Factory)

	producer, err := mqconn.CreateProducer(ctx, manager, "broker::Queue::orders", resolver)
	err = producer.Put(ctx, []byte("payload"))
	err = producer.Close(ctx)

Subpackages under connector/ provide wire-protocol Connector implementations
(the AMQP reference implementation lives in connector/amqp); subpackage
resolver provides ParameterResolver implementations.
*/
package mqconn
