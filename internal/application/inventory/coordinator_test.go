package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

type recordingMetrics struct {
	mu       sync.Mutex
	recorded int
	replays  int
	rejected []error
}

func (m *recordingMetrics) MovementRecorded(string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded++
}

func (m *recordingMetrics) ReplaySuppressed(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replays++
}

func (m *recordingMetrics) Rejected(_ string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, err)
}

type fakeCache struct {
	mu      sync.Mutex
	seen    map[string]string
	seenErr error
}

func newFakeCache() *fakeCache { return &fakeCache{seen: make(map[string]string)} }

func (c *fakeCache) Seen(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seenErr != nil {
		return false, c.seenErr
	}
	_, ok := c.seen[key]
	return ok, nil
}

func (c *fakeCache) Remember(_ context.Context, key, movementID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[key] = movementID
	return nil
}

func seedItem(t *testing.T, store *memory.Store, qty int64) *entity.InventoryItem {
	t.Helper()
	catalog := inventory.NewCatalogUseCase(store, store.Items(), store.Movements())
	item, err := catalog.CreateItem(context.Background(), inventory.CreateItemInput{
		StoreID:         "centro",
		SKU:             "pantalla-" + time.Now().Format("150405.000000000"),
		Name:            "Pantalla",
		InitialQuantity: qty,
	})
	require.NoError(t, err)
	return item
}

func quantityOf(t *testing.T, store *memory.Store, id string) int64 {
	t.Helper()
	item, err := store.Items().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.Quantity
}

func movementsOf(t *testing.T, store *memory.Store, id string) []*entity.InventoryMovement {
	t.Helper()
	list, err := store.Movements().List(context.Background(), repository.MovementFilter{ItemID: id, Limit: 100})
	require.NoError(t, err)
	return list
}

func TestConsume_DescuentaYRegistraMovimiento(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 10)
	metrics := &recordingMetrics{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements(),
		inventory.WithMetrics(metrics), inventory.WithClock(func() time.Time { return fixed }))

	got, err := c.Consume(context.Background(), inventory.StockCommand{
		ItemID: item.ID, Quantity: 4, SourceType: "SALE", SourceID: "venta-1", Actor: "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.Quantity)
	assert.Equal(t, int64(6), quantityOf(t, store, item.ID))

	movs := movementsOf(t, store, item.ID)
	require.Len(t, movs, 2)
	var out *entity.InventoryMovement
	for _, m := range movs {
		if m.Type == entity.MovementTypeOUT {
			out = m
		}
	}
	require.NotNil(t, out)
	assert.Equal(t, int64(-4), out.QuantityDelta)
	assert.Equal(t, "SALE", out.SourceType)
	assert.Equal(t, "ana", out.CreatedBy)
	assert.Equal(t, fixed, out.CreatedAt)
	assert.Equal(t, 1, metrics.recorded)
}

func TestRelease_SumaSinTope(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 1)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())

	got, err := c.Release(context.Background(), inventory.StockCommand{ItemID: item.ID, Quantity: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(101), got.Quantity)
	assert.Equal(t, int64(100), movementsOf(t, store, item.ID)[0].QuantityDelta)
}

func TestRelease_ReintentoConMismaClaveNoSumaDosVeces(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 5)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())
	cmd := inventory.StockCommand{ItemID: item.ID, Quantity: 3, IdempotencyKey: "r1"}

	got, err := c.Release(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.Quantity)
	require.Len(t, movementsOf(t, store, item.ID), 2)

	got, err = c.Release(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.Quantity)
	assert.Equal(t, int64(8), quantityOf(t, store, item.ID))

	movs := movementsOf(t, store, item.ID)
	require.Len(t, movs, 2, "inicial + una sola liberación")
	ins := 0
	for _, m := range movs {
		if m.IdempotencyKey == "r1" {
			ins++
			assert.Equal(t, entity.MovementTypeIN, m.Type)
			assert.Equal(t, int64(3), m.QuantityDelta)
		}
	}
	assert.Equal(t, 1, ins)
}

func TestReleaseInTx_ClaveYaAplicadaNoDevuelveMovimiento(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 2)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())
	cmd := inventory.StockCommand{ItemID: item.ID, Quantity: 1, IdempotencyKey: "repair:x:release"}
	_, err := c.Release(context.Background(), cmd)
	require.NoError(t, err)

	require.NoError(t, store.Run(context.Background(), func(ctx context.Context, tx repository.TxRepos) error {
		got, mov, err := c.ReleaseInTx(ctx, tx, cmd)
		require.NoError(t, err)
		assert.Nil(t, mov)
		assert.Equal(t, int64(3), got.Quantity)
		return nil
	}))
	assert.Equal(t, int64(3), quantityOf(t, store, item.ID))
}

func TestConsume_Rechazos(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 3)
	metrics := &recordingMetrics{}
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements(), inventory.WithMetrics(metrics))
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  inventory.StockCommand
		want error
	}{
		{"sin ítem", inventory.StockCommand{Quantity: 1}, domain.ErrInvalidInput},
		{"cantidad cero", inventory.StockCommand{ItemID: item.ID}, domain.ErrInvalidInput},
		{"cantidad negativa", inventory.StockCommand{ItemID: item.ID, Quantity: -2}, domain.ErrInvalidInput},
		{"ítem inexistente", inventory.StockCommand{ItemID: "no-existe", Quantity: 1}, domain.ErrNotFound},
		{"sobreventa", inventory.StockCommand{ItemID: item.ID, Quantity: 4}, domain.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Consume(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, int64(3), quantityOf(t, store, item.ID))
	assert.Len(t, movementsOf(t, store, item.ID), 1, "sólo el movimiento inicial")
	assert.Len(t, metrics.rejected, len(tests))
}

func TestConsume_ExactamenteTodoElStock(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 5)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())

	got, err := c.Consume(context.Background(), inventory.StockCommand{ItemID: item.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity)
}

func TestConsume_ReintentoConMismaClaveNoDescuentaDosVeces(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 10)
	metrics := &recordingMetrics{}
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements(), inventory.WithMetrics(metrics))
	cmd := inventory.StockCommand{ItemID: item.ID, Quantity: 3, IdempotencyKey: "SALE:venta-7:reserve"}

	first, err := c.Consume(context.Background(), cmd)
	require.NoError(t, err)
	second, err := c.Consume(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, int64(7), first.Quantity)
	assert.Equal(t, int64(7), second.Quantity)
	assert.Len(t, movementsOf(t, store, item.ID), 2)
	assert.Equal(t, 1, metrics.recorded)
	assert.Equal(t, 1, metrics.replays)
}

func TestConsume_ReintentoDevuelveEstadoActual(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 10)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())
	ctx := context.Background()

	_, err := c.Consume(ctx, inventory.StockCommand{ItemID: item.ID, Quantity: 3, IdempotencyKey: "k1"})
	require.NoError(t, err)
	_, err = c.Consume(ctx, inventory.StockCommand{ItemID: item.ID, Quantity: 2})
	require.NoError(t, err)

	// El reintento no reaplica y refleja los cambios posteriores.
	got, err := c.Consume(ctx, inventory.StockCommand{ItemID: item.ID, Quantity: 3, IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity)
}

func TestConsume_ClaveRegistradaGanaSobreValidacion(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 2)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())
	ctx := context.Background()

	_, err := c.Consume(ctx, inventory.StockCommand{ItemID: item.ID, Quantity: 2, IdempotencyKey: "k"})
	require.NoError(t, err)

	// Con stock en cero, el reintento de la misma clave no falla por insuficiencia.
	got, err := c.Consume(ctx, inventory.StockCommand{ItemID: item.ID, Quantity: 2, IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Quantity)
}

func TestConsume_ConcurrenteNuncaSobrevende(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 10)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())

	const workers = 25
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Consume(context.Background(), inventory.StockCommand{ItemID: item.ID, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, workers-10, rejected)
	assert.Equal(t, int64(0), quantityOf(t, store, item.ID))
	assert.Len(t, movementsOf(t, store, item.ID), 11)
}

func TestConsume_ConcurrenteMismaClaveAplicaUnaVez(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 10)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Consume(context.Background(), inventory.StockCommand{
				ItemID: item.ID, Quantity: 3, IdempotencyKey: "REPAIR:r-1:reserve",
			})
			if assert.NoError(t, err) {
				assert.Equal(t, int64(7), got.Quantity)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(7), quantityOf(t, store, item.ID))
	assert.Len(t, movementsOf(t, store, item.ID), 2)
}

func TestConsume_CacheDeIdempotencia(t *testing.T) {
	t.Run("guarda la clave tras aplicar", func(t *testing.T) {
		store := memory.NewStore()
		item := seedItem(t, store, 5)
		cache := newFakeCache()
		c := inventory.NewStockCoordinator(store, store.Items(), store.Movements(), inventory.WithIdempotencyCache(cache))

		_, err := c.Consume(context.Background(), inventory.StockCommand{ItemID: item.ID, Quantity: 1, IdempotencyKey: "k"})
		require.NoError(t, err)
		assert.NotEmpty(t, cache.seen["k"])
	})

	t.Run("un acierto en cache no toca el stock", func(t *testing.T) {
		store := memory.NewStore()
		item := seedItem(t, store, 5)
		cache := newFakeCache()
		cache.seen["k"] = "mov-previo"
		c := inventory.NewStockCoordinator(store, store.Items(), store.Movements(), inventory.WithIdempotencyCache(cache))

		got, err := c.Consume(context.Background(), inventory.StockCommand{ItemID: item.ID, Quantity: 1, IdempotencyKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.Quantity)
		assert.Len(t, movementsOf(t, store, item.ID), 1)
	})

	t.Run("cache caída cae a la base", func(t *testing.T) {
		store := memory.NewStore()
		item := seedItem(t, store, 5)
		cache := newFakeCache()
		cache.seenErr = errors.New("redis: connection refused")
		c := inventory.NewStockCoordinator(store, store.Items(), store.Movements(), inventory.WithIdempotencyCache(cache))
		cmd := inventory.StockCommand{ItemID: item.ID, Quantity: 2, IdempotencyKey: "k"}

		_, err := c.Consume(context.Background(), cmd)
		require.NoError(t, err)
		got, err := c.Consume(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Quantity)
		assert.Len(t, movementsOf(t, store, item.ID), 2)
	})
}

func TestConsumeInTx_RollbackDelCaller(t *testing.T) {
	store := memory.NewStore()
	item := seedItem(t, store, 4)
	c := inventory.NewStockCoordinator(store, store.Items(), store.Movements())
	boom := errors.New("fallo posterior")

	err := store.Run(context.Background(), func(ctx context.Context, tx repository.TxRepos) error {
		got, mov, err := c.ConsumeInTx(ctx, tx, inventory.StockCommand{ItemID: item.ID, Quantity: 4, IdempotencyKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Quantity)
		require.NotNil(t, mov)
		assert.Equal(t, int64(-4), mov.QuantityDelta)
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(4), quantityOf(t, store, item.ID))
	mov, err := store.Movements().FindByIdempotencyKey(context.Background(), "k")
	require.NoError(t, err)
	assert.Nil(t, mov)
}
