package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// InventoryItemRepository define el puerto de persistencia del catálogo de inventario.
// Las lecturas ignoran ítems eliminados lógicamente y devuelven nil, nil si no existen.
type InventoryItemRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error)
	// Update persiste cantidad y metadatos si item.Version coincide con la almacenada;
	// si no, devuelve domain.ErrConflict. En éxito incrementa item.Version.
	Update(ctx context.Context, item *entity.InventoryItem) error
	SoftDelete(ctx context.Context, id string) error
	// List devuelve ítems no eliminados ordenados por nombre. storeID vacío = todas las tiendas.
	List(ctx context.Context, storeID string) ([]*entity.InventoryItem, error)
}
