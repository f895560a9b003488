// Command mqmanagerd runs the connection manager as a standalone process
// with an admin HTTP surface that lists its messengers and connections and
// can tear all connections down. The admin API offers no way to create
// producers or consumers or to publish; those go through pkg/mqconn.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oakbridge/mqconnect/pkg/config"
	"github.com/oakbridge/mqconnect/pkg/logger"
	"github.com/oakbridge/mqconnect/pkg/mqconn"
	"github.com/oakbridge/mqconnect/pkg/mqconn/admin"
	"github.com/oakbridge/mqconnect/pkg/mqconn/connector/amqp"
	"github.com/oakbridge/mqconnect/pkg/mqconn/resolver"
	oakredis "github.com/oakbridge/mqconnect/pkg/redis"
	"github.com/oakbridge/mqconnect/pkg/server"
	"github.com/oakbridge/mqconnect/pkg/telemetry"

	echootel "go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// Config is the top-level configuration for mqmanagerd, composed from every
// ambient package's own Config the way the rest of this module's services
// do.
type Config struct {
	Server    server.Config
	Logger    logger.Config
	Telemetry telemetry.Config
	Redis     oakredis.Config
	Broker    resolver.BrokerConfig

	BrokerID     string        `env:"MQ_BROKER_ID" validate:"required"`
	ResolveCache time.Duration `env:"MQ_PARAMS_CACHE_TTL" env-default:"5m"`
}

func main() {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slog := logger.Init(cfg.Logger)

	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
	} else {
		defer shutdownTelemetry(context.Background())
	}

	redisClient, err := oakredis.New(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis, falling back to uncached resolver", "error", err)
	}

	var paramResolver mqconn.ParameterResolver = resolver.NewStaticSingle(cfg.BrokerID, cfg.Broker)
	if redisClient != nil {
		paramResolver = resolver.NewCached(paramResolver, redisClient, cfg.ResolveCache)
	}

	manager := mqconn.InitDefault(mqconn.ManagerConfig{Logger: slog}, func(brokerID string) mqconn.Connector {
		return mqconn.NewInstrumentedConnector(amqp.New(brokerID))
	})

	srv := server.New(cfg.Server, slog)
	srv.Echo().Use(echootel.Middleware("mqmanagerd"))
	admin.New(manager).Register(srv.Echo())

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("admin server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("mqmanagerd shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("admin server shutdown error", "error", err)
	}
	manager.RemoveAllConnections(ctx)
}
