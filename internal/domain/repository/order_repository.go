package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// OrderRepository persiste las órdenes de venta y reparación junto con su reserva.
type OrderRepository interface {
	// Create devuelve domain.ErrDuplicate si ya existe una orden con el mismo ID.
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
}
