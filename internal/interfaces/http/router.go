package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/orders"
	"github.com/jhoicas/inventario-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Catalog     *inventory.CatalogUseCase
	Coordinator *inventory.StockCoordinator
	Adjustments *inventory.AdjustmentUseCase
	Orders      *orders.OrderUseCase
	Audit       *audit.Recorder
	Gatherer    prometheus.Gatherer // nil = sin /metrics
	Log         zerolog.Logger
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(jwt.RoleAdmin)
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)

	inv := api.Group("/inventory", anyRole)
	invHandler := NewInventoryHandler(deps.Catalog, deps.Coordinator, deps.Adjustments, deps.Audit, deps.Log)
	inv.Post("/items", adminOnly, invHandler.CreateItem)
	inv.Get("/items", invHandler.ListItems)
	inv.Get("/items/low-stock", invHandler.ListLowStock)
	inv.Get("/items/:id", invHandler.GetItem)
	inv.Delete("/items/:id", adminOnly, invHandler.DeleteItem)
	inv.Post("/items/:id/consume", invHandler.Consume)
	inv.Post("/items/:id/release", invHandler.Release)
	inv.Post("/items/:id/adjustments", adminOnly, invHandler.Adjust)
	inv.Get("/movements", invHandler.ListMovements)
	inv.Get("/movements/by-key/:key", invHandler.FindMovementByKey)

	ord := api.Group("/orders", anyRole)
	orderHandler := NewOrderHandler(deps.Orders, deps.Log)
	ord.Post("/", orderHandler.Create)
	ord.Get("/:id", orderHandler.GetByID)
	ord.Post("/:id/cancel", orderHandler.Cancel)
}
