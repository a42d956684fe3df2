package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementFilter filtros opcionales para listar movimientos.
type MovementFilter struct {
	ItemID string // vacío = todos los ítems
	Limit  int
	Offset int
}

// InventoryMovementRepository define el puerto de persistencia del libro de movimientos.
// La unicidad de IdempotencyKey entre movimientos no eliminados es una restricción del almacenamiento:
// Create devuelve domain.ErrDuplicate si otra transacción ya registró la misma clave.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// FindByIdempotencyKey devuelve nil, nil si no existe un movimiento no eliminado con esa clave.
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.InventoryMovement, error)
	// List devuelve movimientos no eliminados, del más reciente al más antiguo.
	List(ctx context.Context, filter MovementFilter) ([]*entity.InventoryMovement, error)
}
