package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/orders"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-ledger/pkg/jwt"
)

func newTestServer(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	m := metrics.NewInventoryMetrics(reg)
	log := zerolog.Nop()
	recorder := audit.NewRecorder(audit.NewLogPublisher(log), log)

	coordinator := inventory.NewStockCoordinator(store, store.Items(), store.Movements(), inventory.WithMetrics(m))
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Catalog:     inventory.NewCatalogUseCase(store, store.Items(), store.Movements()),
		Coordinator: coordinator,
		Adjustments: inventory.NewAdjustmentUseCase(store, m, log),
		Orders:      orders.NewOrderUseCase(store, coordinator, store.Orders(), recorder, log),
		Audit:       recorder,
		Gatherer:    reg,
		Log:         log,
		JWTSecret:   testJWTSecret,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body any, headers map[string]string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func createItem(t *testing.T, app *fiber.App, sku string, qty int64) dto.ItemResponse {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/inventory/items", tokenForRole(t, pkgjwt.RoleAdmin),
		dto.CreateItemRequest{SKU: sku, Name: "Pantalla " + sku, InitialQuantity: qty, MinQuantity: 2}, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	var item dto.ItemResponse
	require.NoError(t, json.Unmarshal(body, &item))
	return item
}

func TestCreateItem_SoloAdmin(t *testing.T) {
	app := newTestServer(t)

	item := createItem(t, app, " pantalla a51 ", 10)
	assert.Equal(t, "PANTALLA-A51", item.SKU)
	assert.Equal(t, testStoreID, item.StoreID)
	assert.Equal(t, int64(10), item.Quantity)

	status, body := doJSON(t, app, http.MethodPost, "/api/inventory/items", tokenForRole(t, pkgjwt.RoleOperator),
		dto.CreateItemRequest{SKU: "X", Name: "X"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, string(body), "FORBIDDEN")

	status, body = doJSON(t, app, http.MethodPost, "/api/inventory/items", tokenForRole(t, pkgjwt.RoleAdmin),
		dto.CreateItemRequest{SKU: "Pantalla A51", Name: "Duplicada"}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "DUPLICATE")
}

func TestConsume_IdempotencyKeyEnHeader(t *testing.T) {
	app := newTestServer(t)
	item := createItem(t, app, "BAT-01", 10)
	path := "/api/inventory/items/" + item.ID + "/consume"
	headers := map[string]string{apphttp.HeaderIdempotencyKey: "pos:ticket-9:reserve"}

	for i := 0; i < 2; i++ {
		status, body := doJSON(t, app, http.MethodPost, path, tokenForRole(t, pkgjwt.RoleOperator),
			dto.StockChangeRequest{Quantity: 3, SourceType: "sale", SourceID: "ticket-9"}, headers)
		require.Equal(t, http.StatusOK, status, string(body))
		var got dto.ItemResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, int64(7), got.Quantity, "intento %d", i+1)
	}

	status, body := doJSON(t, app, http.MethodGet, "/api/inventory/movements?item_id="+item.ID, tokenForRole(t, pkgjwt.RoleOperator), nil, nil)
	require.Equal(t, http.StatusOK, status)
	var page dto.MovementListResponse
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 2, "stock inicial + un único OUT")
	assert.Equal(t, int64(-3), page.Items[0].QuantityDelta)
	assert.Equal(t, "SALE", page.Items[0].SourceType)

	status, body = doJSON(t, app, http.MethodGet, "/api/inventory/movements/by-key/pos:ticket-9:reserve", tokenForRole(t, pkgjwt.RoleOperator), nil, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var mov dto.MovementResponse
	require.NoError(t, json.Unmarshal(body, &mov))
	assert.Equal(t, item.ID, mov.ItemID)
}

func TestConsume_ErroresMapeados(t *testing.T) {
	app := newTestServer(t)
	item := createItem(t, app, "FLEX-02", 2)
	tok := tokenForRole(t, pkgjwt.RoleOperator)

	status, body := doJSON(t, app, http.MethodPost, "/api/inventory/items/"+item.ID+"/consume", tok, dto.StockChangeRequest{Quantity: 5}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "INSUFFICIENT_STOCK")

	status, _ = doJSON(t, app, http.MethodPost, "/api/inventory/items/"+item.ID+"/consume", tok, dto.StockChangeRequest{Quantity: 0}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = doJSON(t, app, http.MethodPost, "/api/inventory/items/no-existe/consume", tok, dto.StockChangeRequest{Quantity: 1}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), "NOT_FOUND")
}

func TestAdjust_FijaCantidadLiteral(t *testing.T) {
	app := newTestServer(t)
	item := createItem(t, app, "TAPA-03", 9)

	status, body := doJSON(t, app, http.MethodPost, "/api/inventory/items/"+item.ID+"/adjustments", tokenForRole(t, pkgjwt.RoleAdmin),
		dto.AdjustmentRequest{Type: "adjust", Quantity: 4, Reason: "conteo físico"}, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var got dto.ItemResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, int64(4), got.Quantity)

	status, _ = doJSON(t, app, http.MethodPost, "/api/inventory/items/"+item.ID+"/adjustments", tokenForRole(t, pkgjwt.RoleOperator),
		dto.AdjustmentRequest{Type: "IN", Quantity: 1}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestOrders_ReservaYCancelacionIdempotente(t *testing.T) {
	app := newTestServer(t)
	item := createItem(t, app, "MOD-04", 10)
	tok := tokenForRole(t, pkgjwt.RoleOperator)

	req := dto.CreateOrderRequest{ID: "venta-100", Kind: "sale", ItemID: item.ID, Quantity: 2}
	status, body := doJSON(t, app, http.MethodPost, "/api/orders", tok, req, nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	var order dto.OrderResponse
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, "RESERVED", order.Reservation.State)

	// Reenvío del mismo ID: no reserva de nuevo.
	status, _ = doJSON(t, app, http.MethodPost, "/api/orders", tok, req, nil)
	require.Equal(t, http.StatusCreated, status)

	assertQuantity(t, app, item.ID, 8)

	for i := 0; i < 2; i++ {
		status, body = doJSON(t, app, http.MethodPost, "/api/orders/venta-100/cancel", tok, nil, nil)
		require.Equal(t, http.StatusOK, status, string(body))
		require.NoError(t, json.Unmarshal(body, &order))
		assert.Equal(t, "CANCELLED", order.Status)
		assert.Equal(t, "RELEASED", order.Reservation.State)
	}
	assertQuantity(t, app, item.ID, 10)

	status, _ = doJSON(t, app, http.MethodGet, "/api/orders/no-existe", tok, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthYMetrics(t *testing.T) {
	app := newTestServer(t)

	status, _ := doJSON(t, app, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	item := createItem(t, app, "CAM-05", 3)
	_, _ = doJSON(t, app, http.MethodPost, "/api/inventory/items/"+item.ID+"/consume", tokenForRole(t, pkgjwt.RoleOperator), dto.StockChangeRequest{Quantity: 1}, nil)

	status, body := doJSON(t, app, http.MethodGet, "/metrics", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "inventory_movements_recorded_total")
}

func assertQuantity(t *testing.T, app *fiber.App, itemID string, want int64) {
	t.Helper()
	status, body := doJSON(t, app, http.MethodGet, "/api/inventory/items/"+itemID, tokenForRole(t, pkgjwt.RoleOperator), nil, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var item dto.ItemResponse
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Equal(t, want, item.Quantity)
}
