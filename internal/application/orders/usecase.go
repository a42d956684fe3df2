package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const (
	reserveReason = "reserva de orden"
	releaseReason = "liberación por cancelación"
)

var errReserveKeyTaken = errors.New("clave de reserva ya aplicada")

// StockReserver es el contrato del coordinador que usan los flujos de órdenes.
// Ambas operaciones corren dentro de la transacción del caller.
type StockReserver interface {
	ConsumeInTx(ctx context.Context, tx repository.TxRepos, cmd inventory.StockCommand) (*entity.InventoryItem, *entity.InventoryMovement, error)
	ReleaseInTx(ctx context.Context, tx repository.TxRepos, cmd inventory.StockCommand) (*entity.InventoryItem, *entity.InventoryMovement, error)
}

// CreateOrderInput entrada para crear una orden de venta o de reparación.
// ID es opcional: si el cliente lo envía, reintentos con el mismo ID no duplican la reserva.
type CreateOrderInput struct {
	ID          string
	Kind        string
	StoreID     string
	CustomerRef string
	Notes       string
	ItemID      string // vacío = la orden no usa inventario
	Quantity    int64
	Actor       string
}

// OrderUseCase implementa el patrón reservar/compensar sobre el coordinador de stock.
type OrderUseCase struct {
	txRunner inventory.TxRunner
	stock    StockReserver
	orders   repository.OrderRepository
	audit    *audit.Recorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewOrderUseCase construye el caso de uso. orders debe estar atado al pool.
func NewOrderUseCase(
	txRunner inventory.TxRunner,
	stock StockReserver,
	orders repository.OrderRepository,
	recorder *audit.Recorder,
	log zerolog.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		txRunner: txRunner,
		stock:    stock,
		orders:   orders,
		audit:    recorder,
		log:      log,
		now:      time.Now,
	}
}

// CreateOrder inserta la orden y, si referencia inventario, consume el stock en la misma
// transacción con la clave "<tipo>:<id>:reserve". Si el consumo falla no queda ni orden ni
// movimiento. Una orden nueva cuya clave de reserva ya fue usada fuera del flujo de órdenes
// devuelve ErrConflict: la orden no puede quedar RESERVED sin haber descontado stock.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	kind := strings.ToUpper(strings.TrimSpace(in.Kind))
	if !entity.IsValidOrderKind(kind) || in.StoreID == "" {
		return nil, domain.ErrInvalidInput
	}
	if (in.ItemID != "" && in.Quantity <= 0) || (in.ItemID == "" && in.Quantity != 0) {
		return nil, domain.ErrInvalidInput
	}

	if in.ID != "" {
		existing, err := uc.orders.GetByID(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return uc.resubmitted(existing, kind)
		}
	} else {
		in.ID = uuid.New().String()
	}

	now := uc.now()
	order := &entity.Order{
		ID:          in.ID,
		Kind:        kind,
		StoreID:     in.StoreID,
		CustomerRef: strings.TrimSpace(in.CustomerRef),
		Notes:       strings.TrimSpace(in.Notes),
		Status:      entity.OrderStatusOpen,
		Reservation: entity.NoReservation(),
		CreatedBy:   in.Actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.ItemID != "" {
		order.Reservation = entity.NewReservation(in.ItemID, in.Quantity)
	}

	err := uc.txRunner.Run(ctx, func(ctx context.Context, tx repository.TxRepos) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		if !order.Reservation.IsPending() {
			return nil
		}
		_, mov, err := uc.stock.ConsumeInTx(ctx, tx, inventory.StockCommand{
			ItemID:         order.Reservation.ItemID,
			Quantity:       order.Reservation.Quantity,
			Reason:         reserveReason,
			SourceType:     order.Kind,
			SourceID:       order.ID,
			IdempotencyKey: entity.ReservationKey(order.Kind, order.ID, entity.ReservationActionReserve),
			Actor:          in.Actor,
		})
		if err != nil {
			return err
		}
		if mov == nil {
			return errReserveKeyTaken
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errReserveKeyTaken) {
			uc.log.Warn().
				Str("order_id", order.ID).
				Str("idempotency_key", entity.ReservationKey(order.Kind, order.ID, entity.ReservationActionReserve)).
				Msg("clave de reserva ya registrada por otro origen, orden rechazada")
			return nil, domain.ErrConflict
		}
		if errors.Is(err, domain.ErrDuplicate) {
			// Creación concurrente con el mismo ID: gana la que confirmó primero.
			existing, getErr := uc.orders.GetByID(ctx, order.ID)
			if getErr == nil && existing != nil {
				return uc.resubmitted(existing, kind)
			}
		}
		uc.log.Debug().Err(err).Str("order_id", order.ID).Str("kind", kind).Msg("creación de orden abortada")
		return nil, err
	}

	uc.audit.Record(ctx, audit.EventOrderCreated, in.Actor, audit.ResourceOrder, order.ID, orderDetail(order))
	if order.Reservation.IsPending() {
		uc.audit.Record(ctx, audit.EventStockConsumed, in.Actor, audit.ResourceInventoryItem, order.Reservation.ItemID, map[string]any{
			"order_id": order.ID,
			"kind":     order.Kind,
			"quantity": order.Reservation.Quantity,
		})
	}
	return order, nil
}

// CancelOrder cancela la orden y, si su reserva sigue pendiente, libera el stock con la clave
// "<tipo>:<id>:release" y marca la reserva como RELEASED en la misma transacción.
// Cancelar de nuevo devuelve la orden sin volver a liberar. Si el ítem reservado fue dado de baja
// la orden se cancela igual y la reserva pasa a RELEASED sin acreditar stock.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID, actor string) (*entity.Order, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}

	var (
		order       *entity.Order
		released    bool
		credited    bool
		cancelled   bool
		itemDeleted bool
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, tx repository.TxRepos) error {
		o, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		order = o

		now := uc.now()
		if o.Reservation.IsPending() {
			_, mov, err := uc.stock.ReleaseInTx(ctx, tx, inventory.StockCommand{
				ItemID:         o.Reservation.ItemID,
				Quantity:       o.Reservation.Quantity,
				Reason:         releaseReason,
				SourceType:     o.Kind,
				SourceID:       o.ID,
				IdempotencyKey: entity.ReservationKey(o.Kind, o.ID, entity.ReservationActionRelease),
				Actor:          actor,
			})
			switch {
			case errors.Is(err, domain.ErrNotFound):
				itemDeleted = true
			case err != nil:
				return err
			}
			credited = mov != nil
			if released, err = o.Reservation.Release(); err != nil {
				return err
			}
		}
		if err := o.Cancel(now); err == nil {
			cancelled = true
		} else if !errors.Is(err, entity.ErrOrderCancelled) {
			return err
		}
		if !cancelled && !released {
			return nil
		}
		o.UpdatedAt = now
		return tx.Orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	if itemDeleted {
		uc.log.Warn().
			Str("order_id", order.ID).
			Str("item_id", order.Reservation.ItemID).
			Int64("quantity", order.Reservation.Quantity).
			Msg("ítem reservado dado de baja, reserva cerrada sin acreditar stock")
	}
	if cancelled {
		uc.audit.Record(ctx, audit.EventOrderCancelled, actor, audit.ResourceOrder, order.ID, orderDetail(order))
	}
	if released && credited {
		uc.audit.Record(ctx, audit.EventStockReleased, actor, audit.ResourceInventoryItem, order.Reservation.ItemID, map[string]any{
			"order_id": order.ID,
			"kind":     order.Kind,
			"quantity": order.Reservation.Quantity,
		})
	}
	return order, nil
}

// GetOrder obtiene una orden por ID.
func (uc *OrderUseCase) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	order, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// resubmitted resuelve un reenvío de una orden ya creada: mismo tipo devuelve la orden tal cual.
func (uc *OrderUseCase) resubmitted(existing *entity.Order, kind string) (*entity.Order, error) {
	if existing.Kind != kind {
		return nil, domain.ErrConflict
	}
	return existing, nil
}

func orderDetail(o *entity.Order) map[string]any {
	return map[string]any{
		"kind":              o.Kind,
		"status":            o.Status,
		"item_id":           o.Reservation.ItemID,
		"quantity":          o.Reservation.Quantity,
		"reservation_state": o.Reservation.State,
	}
}
