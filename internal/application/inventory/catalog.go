package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 500
	initialStockReason   = "stock inicial"
)

// CreateItemInput datos para dar de alta un ítem en el catálogo.
type CreateItemInput struct {
	StoreID         string
	SKU             string
	Name            string
	Category        string
	InitialQuantity int64
	MinQuantity     int64
	Actor           string
}

// CatalogUseCase altas, bajas lógicas y lecturas del catálogo y del libro de movimientos.
type CatalogUseCase struct {
	txRunner  TxRunner
	items     repository.InventoryItemRepository
	movements repository.InventoryMovementRepository
	now       func() time.Time
}

// NewCatalogUseCase construye el caso de uso. items y movements deben estar atados al pool.
func NewCatalogUseCase(
	txRunner TxRunner,
	items repository.InventoryItemRepository,
	movements repository.InventoryMovementRepository,
) *CatalogUseCase {
	return &CatalogUseCase{txRunner: txRunner, items: items, movements: movements, now: time.Now}
}

// CreateItem crea el ítem con el SKU normalizado. StoreID es siempre el del caller.
// Si hay cantidad inicial se registra un movimiento IN en la misma transacción, así la suma
// de deltas del libro coincide con la cantidad desde el alta.
func (uc *CatalogUseCase) CreateItem(ctx context.Context, in CreateItemInput) (*entity.InventoryItem, error) {
	sku := entity.NormalizeSKU(in.SKU)
	name := strings.TrimSpace(in.Name)
	if in.StoreID == "" || sku == "" || name == "" || in.InitialQuantity < 0 || in.MinQuantity < 0 {
		return nil, domain.ErrInvalidInput
	}

	now := uc.now()
	item := &entity.InventoryItem{
		ID:          uuid.New().String(),
		StoreID:     in.StoreID,
		SKU:         sku,
		Name:        name,
		Category:    strings.TrimSpace(in.Category),
		Quantity:    in.InitialQuantity,
		MinQuantity: in.MinQuantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, tx repository.TxRepos) error {
		if err := tx.Items.Create(ctx, item); err != nil {
			return err
		}
		if in.InitialQuantity == 0 {
			return nil
		}
		return tx.Movements.Create(ctx, &entity.InventoryMovement{
			ID:            uuid.New().String(),
			ItemID:        item.ID,
			Type:          entity.MovementTypeIN,
			QuantityDelta: in.InitialQuantity,
			Reason:        initialStockReason,
			SourceType:    entity.SourceTypeCatalog,
			SourceID:      item.ID,
			CreatedBy:     in.Actor,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem obtiene un ítem no eliminado.
func (uc *CatalogUseCase) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	item, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// ListItems lista ítems no eliminados ordenados por nombre.
func (uc *CatalogUseCase) ListItems(ctx context.Context, storeID string) ([]*entity.InventoryItem, error) {
	return uc.items.List(ctx, storeID)
}

// ListLowStock lista los ítems en o por debajo de su mínimo (informativo).
func (uc *CatalogUseCase) ListLowStock(ctx context.Context, storeID string) ([]*entity.InventoryItem, error) {
	all, err := uc.items.List(ctx, storeID)
	if err != nil {
		return nil, err
	}
	low := make([]*entity.InventoryItem, 0)
	for _, item := range all {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}

// DeleteItem elimina lógicamente el ítem; sus movimientos se conservan.
func (uc *CatalogUseCase) DeleteItem(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	return uc.items.SoftDelete(ctx, id)
}

// ListMovements lista movimientos no eliminados del más reciente al más antiguo.
func (uc *CatalogUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultMovementLimit
	}
	if filter.Limit > maxMovementLimit {
		filter.Limit = maxMovementLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.movements.List(ctx, filter)
}

// FindMovementByKey busca el movimiento no eliminado registrado con la clave de idempotencia.
func (uc *CatalogUseCase) FindMovementByKey(ctx context.Context, key string) (*entity.InventoryMovement, error) {
	if strings.TrimSpace(key) == "" {
		return nil, domain.ErrInvalidInput
	}
	mov, err := uc.movements.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	return mov, nil
}
