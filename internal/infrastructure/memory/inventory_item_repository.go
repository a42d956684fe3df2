package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

// InventoryItemRepo implementación en memoria. Devuelve siempre copias.
type InventoryItemRepo struct {
	store *Store
	tx    *state
}

// Create inserta el ítem. ID o SKU activo repetido devuelve domain.ErrDuplicate.
func (r *InventoryItemRepo) Create(_ context.Context, item *entity.InventoryItem) error {
	return r.store.view(r.tx, func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, existing := range st.items {
			if !existing.IsDeleted() && existing.SKU == item.SKU {
				return domain.ErrDuplicate
			}
		}
		if item.Quantity < 0 || item.MinQuantity < 0 {
			return domain.ErrInvalidInput
		}
		st.items[item.ID] = item.Clone()
		return nil
	})
}

// GetByID obtiene un ítem no eliminado o nil, nil.
func (r *InventoryItemRepo) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	var out *entity.InventoryItem
	err := r.store.view(r.tx, func(st *state) error {
		if item, ok := st.items[id]; ok && !item.IsDeleted() {
			out = item.Clone()
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: dentro de Run el mutex ya serializa la unidad de trabajo.
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return r.GetByID(ctx, id)
}

// Update aplica el control de versión y la restricción quantity >= 0 del esquema.
func (r *InventoryItemRepo) Update(_ context.Context, item *entity.InventoryItem) error {
	return r.store.view(r.tx, func(st *state) error {
		stored, ok := st.items[item.ID]
		if !ok || stored.IsDeleted() || stored.Version != item.Version {
			return domain.ErrConflict
		}
		if item.Quantity < 0 {
			return domain.ErrInsufficientStock
		}
		next := item.Clone()
		next.Version = stored.Version + 1
		next.CreatedAt = stored.CreatedAt
		next.DeletedAt = nil
		st.items[item.ID] = next
		item.Version = next.Version
		return nil
	})
}

// SoftDelete marca el ítem como eliminado.
func (r *InventoryItemRepo) SoftDelete(_ context.Context, id string) error {
	return r.store.view(r.tx, func(st *state) error {
		item, ok := st.items[id]
		if !ok || item.IsDeleted() {
			return domain.ErrNotFound
		}
		now := time.Now().UTC()
		item.DeletedAt = &now
		return nil
	})
}

// List devuelve ítems no eliminados ordenados por nombre.
func (r *InventoryItemRepo) List(_ context.Context, storeID string) ([]*entity.InventoryItem, error) {
	list := make([]*entity.InventoryItem, 0)
	err := r.store.view(r.tx, func(st *state) error {
		for _, item := range st.items {
			if item.IsDeleted() || (storeID != "" && item.StoreID != storeID) {
				continue
			}
			list = append(list, item.Clone())
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, err
}
