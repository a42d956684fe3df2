package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const orderColumns = `id, kind, store_id, customer_ref, notes, status,
	reservation_item_id, reservation_quantity, reservation_state, created_by, created_at, updated_at`

// OrderRepo persiste órdenes de venta y reparación con su reserva embebida.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create inserta la orden; un ID repetido devuelve domain.ErrDuplicate.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Kind, o.StoreID, nullableString(o.CustomerRef), nullableString(o.Notes), o.Status,
		nullableString(o.Reservation.ItemID), o.Reservation.Quantity, o.Reservation.State,
		nullableString(o.CreatedBy), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetByID obtiene una orden. Devuelve nil, nil si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetForUpdate obtiene la orden bloqueando la fila: dos cancelaciones concurrentes se serializan.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("get order for update: %w", err)
	}
	return o, nil
}

// Update persiste estado, notas y reserva de la orden.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders
		SET status = $2, notes = $3, reservation_state = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, o.ID, o.Status, nullableString(o.Notes), o.Reservation.State, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var (
		o           entity.Order
		customerRef *string
		notes       *string
		resItemID   *string
		createdBy   *string
	)
	err := row.Scan(
		&o.ID, &o.Kind, &o.StoreID, &customerRef, &notes, &o.Status,
		&resItemID, &o.Reservation.Quantity, &o.Reservation.State,
		&createdBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.CustomerRef = stringOrEmpty(customerRef)
	o.Notes = stringOrEmpty(notes)
	o.Reservation.ItemID = stringOrEmpty(resItemID)
	o.CreatedBy = stringOrEmpty(createdBy)
	return &o, nil
}
