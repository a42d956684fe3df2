package memory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo órdenes en memoria.
type OrderRepo struct {
	store *Store
	tx    *state
}

func (r *OrderRepo) Create(_ context.Context, order *entity.Order) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.orders[order.ID]; ok {
			return domain.ErrDuplicate
		}
		st.orders[order.ID] = order.Clone()
		return nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.store.view(r.tx, func(st *state) error {
		if o, ok := st.orders[id]; ok {
			out = o.Clone()
		}
		return nil
	})
	return out, err
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepo) Update(_ context.Context, order *entity.Order) error {
	return r.store.view(r.tx, func(st *state) error {
		stored, ok := st.orders[order.ID]
		if !ok {
			return domain.ErrNotFound
		}
		next := order.Clone()
		next.CreatedAt = stored.CreatedAt
		st.orders[order.ID] = next
		return nil
	})
}
