// Package resolver provides ParameterResolver implementations: a static,
// config-file-backed resolver and a Redis-caching decorator around any
// other resolver.
package resolver

import (
	"context"
	"fmt"

	"github.com/oakbridge/mqconnect/pkg/config"
	"github.com/oakbridge/mqconnect/pkg/mqconn"
)

// BrokerConfig is the environment-bound configuration record for a single
// broker, loaded with config.Load. Deployments with more than one broker
// compose several of these (e.g. one per process, or one per named env
// prefix) into a Static resolver's map.
type BrokerConfig struct {
	Host            string   `env:"MQ_HOST" validate:"required"`
	Port            int      `env:"MQ_PORT" env-default:"5672"`
	VHost           string   `env:"MQ_VHOST" env-default:"/"`
	User            string   `env:"MQ_USER" env-default:"guest"`
	Password        string   `env:"MQ_PASSWORD" env-default:"guest"`
	SSLVersion      string   `env:"MQ_SSL_VERSION"`
	HostCertificate string   `env:"MQ_HOST_CERTIFICATE"`
	HostKey         string   `env:"MQ_HOST_KEY"`
	Acknowledgement string   `env:"MQ_ACK" env-default:"client"`
	Queues          []string `env:"MQ_QUEUES" env-separator:","`
	Topics          []string `env:"MQ_TOPICS" env-separator:","`
	MQType          string   `env:"MQ_TYPE" env-default:"amqp"`
}

// LoadBrokerConfig loads a BrokerConfig from the environment using the same
// cleanenv+validator pipeline as every other package in this module.
func LoadBrokerConfig() (BrokerConfig, error) {
	var cfg BrokerConfig
	if err := config.Load(&cfg); err != nil {
		return BrokerConfig{}, err
	}
	return cfg, nil
}

func (c BrokerConfig) toParameters() mqconn.Parameters {
	return mqconn.Parameters{
		Host:            c.Host,
		Port:            c.Port,
		VHost:           c.VHost,
		User:            c.User,
		Password:        c.Password,
		SSLVersion:      c.SSLVersion,
		HostCertificate: c.HostCertificate,
		HostKey:         c.HostKey,
		Acknowledgement: c.Acknowledgement,
		Queues:          c.Queues,
		Topics:          c.Topics,
		MQType:          c.MQType,
	}
}

// Static resolves brokerId to connection parameters from a fixed, in-memory
// map populated at construction time. It performs no I/O at Resolve time.
type Static struct {
	params map[string]mqconn.Parameters
}

// NewStatic builds a Static resolver from an explicit brokerId -> Parameters
// map.
func NewStatic(params map[string]mqconn.Parameters) *Static {
	return &Static{params: params}
}

// NewStaticSingle builds a Static resolver serving a single brokerId, the
// common case of one broker per process.
func NewStaticSingle(brokerID string, cfg BrokerConfig) *Static {
	return NewStatic(map[string]mqconn.Parameters{brokerID: cfg.toParameters()})
}

func (s *Static) Resolve(ctx context.Context, brokerID string) (mqconn.Parameters, error) {
	p, ok := s.params[brokerID]
	if !ok {
		return mqconn.Parameters{}, fmt.Errorf("no configuration registered for broker %q", brokerID)
	}
	return p, nil
}
