package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo libro de movimientos en memoria (append-only).
type InventoryMovementRepo struct {
	store *Store
	tx    *state
}

// Create agrega el movimiento. Una clave de idempotencia ya usada por un movimiento no
// eliminado devuelve domain.ErrDuplicate, igual que el índice único parcial de Postgres.
func (r *InventoryMovementRepo) Create(_ context.Context, movement *entity.InventoryMovement) error {
	return r.store.view(r.tx, func(st *state) error {
		for _, m := range st.movements {
			if m.ID == movement.ID {
				return domain.ErrDuplicate
			}
			if movement.IdempotencyKey != "" && m.DeletedAt == nil && m.IdempotencyKey == movement.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
		st.movements = append(st.movements, movement.Clone())
		return nil
	})
}

// FindByIdempotencyKey devuelve el movimiento no eliminado con esa clave, o nil, nil.
func (r *InventoryMovementRepo) FindByIdempotencyKey(_ context.Context, key string) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	err := r.store.view(r.tx, func(st *state) error {
		for _, m := range st.movements {
			if m.DeletedAt == nil && m.IdempotencyKey != "" && m.IdempotencyKey == key {
				out = m.Clone()
				return nil
			}
		}
		return nil
	})
	return out, err
}

// List devuelve movimientos no eliminados del más reciente al más antiguo; a igual fecha gana
// el último insertado.
func (r *InventoryMovementRepo) List(_ context.Context, filter repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	list := make([]*entity.InventoryMovement, 0)
	err := r.store.view(r.tx, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.DeletedAt != nil || (filter.ItemID != "" && m.ItemID != filter.ItemID) {
				continue
			}
			list = append(list, m.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	if filter.Offset >= len(list) {
		return []*entity.InventoryMovement{}, nil
	}
	list = list[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(list) {
		list = list[:filter.Limit]
	}
	return list, nil
}
