package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

func newCatalog(store *memory.Store) *inventory.CatalogUseCase {
	return inventory.NewCatalogUseCase(store, store.Items(), store.Movements())
}

func TestCreateItem_RegistraMovimientoInicial(t *testing.T) {
	store := memory.NewStore()
	uc := newCatalog(store)

	item, err := uc.CreateItem(context.Background(), inventory.CreateItemInput{
		StoreID: "centro", SKU: " flex carga ", Name: " Flex de carga ", InitialQuantity: 8, MinQuantity: 2, Actor: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "FLEX-CARGA", item.SKU)
	assert.Equal(t, "Flex de carga", item.Name)
	assert.Equal(t, int64(8), item.Quantity)

	movs := movementsOf(t, store, item.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeIN, movs[0].Type)
	assert.Equal(t, int64(8), movs[0].QuantityDelta)
	assert.Equal(t, entity.SourceTypeCatalog, movs[0].SourceType)
}

func TestCreateItem_SinCantidadNoRegistraMovimiento(t *testing.T) {
	store := memory.NewStore()
	item, err := newCatalog(store).CreateItem(context.Background(), inventory.CreateItemInput{
		StoreID: "centro", SKU: "a", Name: "A",
	})
	require.NoError(t, err)
	assert.Empty(t, movementsOf(t, store, item.ID))
}

func TestCreateItem_Validaciones(t *testing.T) {
	store := memory.NewStore()
	uc := newCatalog(store)
	ctx := context.Background()

	_, err := uc.CreateItem(ctx, inventory.CreateItemInput{StoreID: "centro", SKU: "dup", Name: "Uno"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   inventory.CreateItemInput
		want error
	}{
		{"sin tienda", inventory.CreateItemInput{SKU: "x", Name: "X"}, domain.ErrInvalidInput},
		{"sku vacío", inventory.CreateItemInput{StoreID: "centro", SKU: "  ", Name: "X"}, domain.ErrInvalidInput},
		{"cantidad negativa", inventory.CreateItemInput{StoreID: "centro", SKU: "x", Name: "X", InitialQuantity: -1}, domain.ErrInvalidInput},
		{"sku duplicado normalizado", inventory.CreateItemInput{StoreID: "centro", SKU: " DUP ", Name: "Dos"}, domain.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateItem(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeleteItem_ConservaMovimientos(t *testing.T) {
	store := memory.NewStore()
	uc := newCatalog(store)
	ctx := context.Background()
	item := seedItem(t, store, 3)

	require.NoError(t, uc.DeleteItem(ctx, item.ID))
	_, err := uc.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.DeleteItem(ctx, item.ID), domain.ErrNotFound)
	assert.Len(t, movementsOf(t, store, item.ID), 1)

	// El SKU queda libre para un ítem nuevo.
	_, err = uc.CreateItem(ctx, inventory.CreateItemInput{StoreID: "centro", SKU: item.SKU, Name: "Reemplazo"})
	assert.NoError(t, err)
}

func TestListLowStock(t *testing.T) {
	store := memory.NewStore()
	uc := newCatalog(store)
	ctx := context.Background()

	for _, in := range []inventory.CreateItemInput{
		{StoreID: "centro", SKU: "a", Name: "A", InitialQuantity: 2, MinQuantity: 2},
		{StoreID: "centro", SKU: "b", Name: "B", InitialQuantity: 5, MinQuantity: 2},
		{StoreID: "centro", SKU: "c", Name: "C", InitialQuantity: 0},
		{StoreID: "norte", SKU: "d", Name: "D", InitialQuantity: 1, MinQuantity: 3},
	} {
		_, err := uc.CreateItem(ctx, in)
		require.NoError(t, err)
	}

	low, err := uc.ListLowStock(ctx, "centro")
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "A", low[0].SKU)

	all, err := uc.ListItems(ctx, "centro")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListMovements_PaginaYLimites(t *testing.T) {
	store := memory.NewStore()
	uc := newCatalog(store)
	item := seedItem(t, store, 1)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := c.Release(ctx, inventory.StockCommand{ItemID: item.ID, Quantity: int64(i + 1)})
		require.NoError(t, err)
	}

	page, err := uc.ListMovements(ctx, repository.MovementFilter{ItemID: item.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(4), page[0].QuantityDelta)
	assert.Equal(t, int64(3), page[1].QuantityDelta)

	page, err = uc.ListMovements(ctx, repository.MovementFilter{ItemID: item.ID, Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(1), page[0].QuantityDelta, "movimiento inicial al final")

	page, err = uc.ListMovements(ctx, repository.MovementFilter{ItemID: item.ID, Limit: -5, Offset: -1})
	require.NoError(t, err)
	assert.Len(t, page, 5)
}

func TestFindMovementByKey(t *testing.T) {
	store := memory.NewStore()
	uc := newCatalog(store)
	item := seedItem(t, store, 5)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())
	ctx := context.Background()

	_, err := c.Consume(ctx, inventory.StockCommand{ItemID: item.ID, Quantity: 1, IdempotencyKey: "SALE:v1:reserve"})
	require.NoError(t, err)

	mov, err := uc.FindMovementByKey(ctx, "SALE:v1:reserve")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), mov.QuantityDelta)

	_, err = uc.FindMovementByKey(ctx, "otra")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.FindMovementByKey(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
