// Package app arma las dependencias compartidas por la API y el CLI administrativo.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/orders"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	infrakafka "github.com/jhoicas/inventario-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/jhoicas/inventario-ledger/pkg/telemetry"
)

// Version se reporta en el resource de trazas.
var Version = "dev"

// Container contiene los casos de uso listos para usar y los recursos que hay que cerrar.
type Container struct {
	Config      *config.Config
	Log         *logger.Logger
	Registry    *prometheus.Registry
	Audit       *audit.Recorder
	Catalog     *inventory.CatalogUseCase
	Coordinator *inventory.StockCoordinator
	Adjustments *inventory.AdjustmentUseCase
	Orders      *orders.OrderUseCase

	closers []func(context.Context) error
}

type storage struct {
	tx        inventory.TxRunner
	items     repository.InventoryItemRepository
	movements repository.InventoryMovementRepository
	orders    repository.OrderRepository
}

// NewContainer inicializa almacenamiento, side channels (Kafka, Redis, métricas, trazas) y casos de uso.
// Redis y Kafka son opcionales: si Redis no responde se sigue sin cache.
func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log, Registry: prometheus.NewRegistry()}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry, Version)
	if err != nil {
		log.Warn().Err(err).Msg("trazas OTLP deshabilitadas")
	}
	c.closers = append(c.closers, shutdownTracing)

	st, err := c.setupStorage(ctx)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	c.Audit = audit.NewRecorder(c.auditPublisher(), log.Component("audit"))

	invMetrics := metrics.NewInventoryMetrics(c.Registry)
	opts := []inventory.Option{
		inventory.WithMetrics(invMetrics),
		inventory.WithLogger(log.Component("stock-coordinator")),
	}
	if cache := c.idempotencyCache(ctx); cache != nil {
		opts = append(opts, inventory.WithIdempotencyCache(cache))
	}

	c.Coordinator = inventory.NewStockCoordinator(st.tx, st.items, st.movements, opts...)
	c.Catalog = inventory.NewCatalogUseCase(st.tx, st.items, st.movements)
	c.Adjustments = inventory.NewAdjustmentUseCase(st.tx, invMetrics, log.Component("adjustments"))
	c.Orders = orders.NewOrderUseCase(st.tx, c.Coordinator, st.orders, c.Audit, log.Component("orders"))
	return c, nil
}

// Close libera los recursos en orden inverso de creación.
func (c *Container) Close(ctx context.Context) error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, c.closers[i](ctx))
	}
	c.closers = nil
	return err
}

func (c *Container) setupStorage(ctx context.Context) (storage, error) {
	if c.Config.Storage.Driver == config.StorageMemory {
		c.Log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return storage{tx: store, items: store.Items(), movements: store.Movements(), orders: store.Orders()}, nil
	}

	pool, err := postgres.NewPool(ctx, c.Config.DB)
	if err != nil {
		return storage{}, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	c.closers = append(c.closers, func(context.Context) error { pool.Close(); return nil })

	if c.Config.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return storage{}, fmt.Errorf("migraciones: %w", err)
		}
	}
	return storage{
		tx:        postgres.NewTxRunner(pool),
		items:     postgres.NewInventoryItemRepository(pool),
		movements: postgres.NewInventoryMovementRepository(pool),
		orders:    postgres.NewOrderRepository(pool),
	}, nil
}

func (c *Container) auditPublisher() audit.Publisher {
	if !c.Config.Kafka.Enabled {
		return audit.NewLogPublisher(c.Log.Component("audit"))
	}
	writer := infrakafka.NewWriter(c.Config.Kafka)
	c.closers = append(c.closers, func(context.Context) error { return writer.Close() })
	c.Log.Info().Strs("brokers", c.Config.Kafka.Brokers).Str("topic", c.Config.Kafka.Topic).Msg("auditoría hacia Kafka")
	return infrakafka.NewAuditPublisher(writer)
}

func (c *Container) idempotencyCache(ctx context.Context) inventory.IdempotencyCache {
	if !c.Config.Redis.Enabled {
		return nil
	}
	client, err := infraredis.NewClient(ctx, c.Config.Redis)
	if err != nil {
		c.Log.Warn().Err(err).Msg("Redis no disponible, idempotencia sólo contra la base")
		return nil
	}
	c.closers = append(c.closers, func(context.Context) error { return client.Close() })
	return infraredis.NewIdempotencyCache(client, c.Config.Redis.KeyPrefix, c.Config.Redis.TTL)
}

// Logger devuelve el zerolog base para capas que no usan el wrapper.
func (c *Container) Logger() zerolog.Logger {
	return c.Log.Zerolog()
}
