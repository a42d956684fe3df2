package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const tracerName = "github.com/jhoicas/inventario-ledger/internal/application/inventory"

// StockCommand entrada de Consume y Release.
// IdempotencyKey la construye el caller y debe ser estable entre reintentos de la misma acción
// (ej. "sale:<orderId>:reserve"); una clave inestable anula la garantía.
type StockCommand struct {
	ItemID         string
	Quantity       int64
	Reason         string
	SourceType     string
	SourceID       string
	IdempotencyKey string
	Actor          string
}

// StockCoordinator orquesta consumos y liberaciones de stock con idempotencia y control de
// suficiencia. Cada mutación aplicada escribe exactamente un movimiento en el libro, en la misma
// transacción que la actualización del ítem (fila bloqueada con SELECT FOR UPDATE).
type StockCoordinator struct {
	txRunner  TxRunner
	items     repository.InventoryItemRepository
	movements repository.InventoryMovementRepository
	cache     IdempotencyCache
	metrics   Metrics
	log       zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configura dependencias opcionales del coordinador.
type Option func(*StockCoordinator)

// WithIdempotencyCache agrega una cache de claves delante de la consulta a la base.
func WithIdempotencyCache(cache IdempotencyCache) Option {
	return func(c *StockCoordinator) { c.cache = cache }
}

// WithMetrics registra los eventos del coordinador.
func WithMetrics(m Metrics) Option {
	return func(c *StockCoordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLogger asigna el logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *StockCoordinator) { c.log = l }
}

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(c *StockCoordinator) { c.now = now }
}

// NewStockCoordinator construye el coordinador. items y movements deben estar atados al pool
// (fuera de transacción); se usan para la verificación previa de idempotencia.
func NewStockCoordinator(
	txRunner TxRunner,
	items repository.InventoryItemRepository,
	movements repository.InventoryMovementRepository,
	opts ...Option,
) *StockCoordinator {
	c := &StockCoordinator{
		txRunner:  txRunner,
		items:     items,
		movements: movements,
		metrics:   noopMetrics{},
		log:       zerolog.Nop(),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume descuenta quantity unidades del ítem y registra un movimiento OUT (delta = -quantity).
func (c *StockCoordinator) Consume(ctx context.Context, cmd StockCommand) (*entity.InventoryItem, error) {
	return c.execute(ctx, entity.MovementTypeOUT, cmd)
}

// Release devuelve quantity unidades al ítem y registra un movimiento IN. No hay tope superior.
func (c *StockCoordinator) Release(ctx context.Context, cmd StockCommand) (*entity.InventoryItem, error) {
	return c.execute(ctx, entity.MovementTypeIN, cmd)
}

// ConsumeInTx ejecuta Consume con los repositorios de la transacción del caller.
// El movimiento devuelto es nil cuando la clave ya estaba registrada y no se descontó nada.
// Si retorna error (ej. ErrInsufficientStock), el caller debe hacer rollback.
func (c *StockCoordinator) ConsumeInTx(
	ctx context.Context,
	tx repository.TxRepos,
	cmd StockCommand,
) (*entity.InventoryItem, *entity.InventoryMovement, error) {
	return c.applyInTx(ctx, tx, entity.MovementTypeOUT, cmd)
}

// ReleaseInTx ejecuta Release con los repositorios de la transacción del caller.
// Igual que ConsumeInTx, un movimiento nil indica clave ya aplicada.
func (c *StockCoordinator) ReleaseInTx(
	ctx context.Context,
	tx repository.TxRepos,
	cmd StockCommand,
) (*entity.InventoryItem, *entity.InventoryMovement, error) {
	return c.applyInTx(ctx, tx, entity.MovementTypeIN, cmd)
}

func (c *StockCoordinator) applyInTx(
	ctx context.Context,
	tx repository.TxRepos,
	movType string,
	cmd StockCommand,
) (*entity.InventoryItem, *entity.InventoryMovement, error) {
	if cmd.ItemID == "" {
		return nil, nil, domain.ErrInvalidInput
	}
	return c.apply(ctx, tx, movType, cmd)
}

func (c *StockCoordinator) execute(ctx context.Context, movType string, cmd StockCommand) (*entity.InventoryItem, error) {
	ctx, span := c.tracer.Start(ctx, "inventory."+operationName(movType), trace.WithAttributes(
		attribute.String("inventory.item_id", cmd.ItemID),
		attribute.Int64("inventory.quantity", cmd.Quantity),
		attribute.String("inventory.source_type", cmd.SourceType),
		attribute.String("inventory.source_id", cmd.SourceID),
		attribute.Bool("inventory.idempotent", cmd.IdempotencyKey != ""),
	))
	defer span.End()

	item, err := c.run(ctx, movType, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("inventory.quantity_after", item.Quantity))
	return item, nil
}

func (c *StockCoordinator) run(ctx context.Context, movType string, cmd StockCommand) (*entity.InventoryItem, error) {
	if cmd.ItemID == "" {
		c.reject(movType, cmd, domain.ErrInvalidInput)
		return nil, domain.ErrInvalidInput
	}

	if cmd.IdempotencyKey != "" {
		item, replayed, err := c.replay(ctx, cmd)
		if err != nil {
			return nil, err
		}
		if replayed {
			c.metrics.ReplaySuppressed(movType)
			return item, nil
		}
	}

	var (
		result   *entity.InventoryItem
		movement *entity.InventoryMovement
	)
	err := c.txRunner.Run(ctx, func(ctx context.Context, tx repository.TxRepos) error {
		item, mov, err := c.apply(ctx, tx, movType, cmd)
		if err != nil {
			return err
		}
		result, movement = item, mov
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) && cmd.IdempotencyKey != "" {
			// Otra petición con la misma clave confirmó primero; se devuelve su resultado.
			c.log.Info().
				Str("item_id", cmd.ItemID).
				Str("idempotency_key", cmd.IdempotencyKey).
				Msg("clave de idempotencia resuelta por otra transacción")
			c.metrics.ReplaySuppressed(movType)
			return c.currentItem(ctx, cmd.ItemID)
		}
		c.reject(movType, cmd, err)
		return nil, err
	}

	if movement == nil {
		c.metrics.ReplaySuppressed(movType)
		return result, nil
	}
	c.metrics.MovementRecorded(movType, cmd.SourceType)
	if cmd.IdempotencyKey != "" {
		c.remember(ctx, cmd.IdempotencyKey, movement.ID)
	}
	c.log.Debug().
		Str("item_id", result.ID).
		Str("type", movType).
		Int64("delta", movement.QuantityDelta).
		Int64("quantity", result.Quantity).
		Msg("movimiento registrado")
	return result, nil
}

// apply bloquea el ítem, valida y aplica la mutación. Devuelve movement nil cuando la clave
// de idempotencia ya estaba registrada (reintento detectado dentro de la transacción).
func (c *StockCoordinator) apply(
	ctx context.Context,
	tx repository.TxRepos,
	movType string,
	cmd StockCommand,
) (*entity.InventoryItem, *entity.InventoryMovement, error) {
	// Bloquea la fila del ítem: dos salidas concurrentes no pueden validar contra stock viejo.
	item, err := tx.Items.GetForUpdate(ctx, cmd.ItemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, domain.ErrNotFound
	}

	// Con la fila bloqueada, un movimiento confirmado por otra tx con la misma clave ya es visible.
	if cmd.IdempotencyKey != "" {
		existing, err := tx.Movements.FindByIdempotencyKey(ctx, cmd.IdempotencyKey)
		if err != nil {
			return nil, nil, err
		}
		if existing != nil {
			return item, nil, nil
		}
	}

	if cmd.Quantity <= 0 {
		return nil, nil, domain.ErrInvalidInput
	}
	delta := cmd.Quantity
	if movType == entity.MovementTypeOUT {
		if cmd.Quantity > item.Quantity {
			return nil, nil, domain.ErrInsufficientStock
		}
		delta = -cmd.Quantity
	}

	now := c.now()
	item.Quantity += delta
	item.UpdatedAt = now
	if err := tx.Items.Update(ctx, item); err != nil {
		return nil, nil, err
	}

	mov := &entity.InventoryMovement{
		ID:             uuid.New().String(),
		ItemID:         item.ID,
		Type:           movType,
		QuantityDelta:  delta,
		Reason:         cmd.Reason,
		SourceType:     cmd.SourceType,
		SourceID:       cmd.SourceID,
		IdempotencyKey: cmd.IdempotencyKey,
		CreatedBy:      cmd.Actor,
		CreatedAt:      now,
	}
	if err := tx.Movements.Create(ctx, mov); err != nil {
		return nil, nil, err
	}
	return item, mov, nil
}

// replay verifica si la clave ya fue aplicada: primero en la cache (si hay), luego en la base.
func (c *StockCoordinator) replay(ctx context.Context, cmd StockCommand) (*entity.InventoryItem, bool, error) {
	if c.cache != nil {
		seen, err := c.cache.Seen(ctx, cmd.IdempotencyKey)
		switch {
		case err != nil:
			c.log.Warn().Err(err).Str("idempotency_key", cmd.IdempotencyKey).
				Msg("cache de idempotencia no disponible, se consulta la base")
		case seen:
			item, err := c.currentItem(ctx, cmd.ItemID)
			return item, err == nil, err
		}
	}

	existing, err := c.movements.FindByIdempotencyKey(ctx, cmd.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, nil
	}
	c.remember(ctx, cmd.IdempotencyKey, existing.ID)
	item, err := c.currentItem(ctx, cmd.ItemID)
	return item, err == nil, err
}

func (c *StockCoordinator) currentItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	item, err := c.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (c *StockCoordinator) remember(ctx context.Context, key, movementID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Remember(ctx, key, movementID); err != nil {
		c.log.Warn().Err(err).Str("idempotency_key", key).Msg("no se pudo guardar la clave en cache")
	}
}

func (c *StockCoordinator) reject(movType string, cmd StockCommand, err error) {
	c.metrics.Rejected(movType, err)
	c.log.Debug().Err(err).
		Str("item_id", cmd.ItemID).
		Str("type", movType).
		Int64("quantity", cmd.Quantity).
		Msg("movimiento rechazado")
}

func operationName(movType string) string {
	if movType == entity.MovementTypeOUT {
		return "consume"
	}
	return "release"
}
