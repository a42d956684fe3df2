package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// HeaderIdempotencyKey header opcional con la clave de idempotencia de consume/release.
const HeaderIdempotencyKey = "Idempotency-Key"

// InventoryHandler maneja catálogo, consumos, liberaciones, ajustes y consultas del libro (protegido).
type InventoryHandler struct {
	catalog     *inventory.CatalogUseCase
	coordinator *inventory.StockCoordinator
	adjustments *inventory.AdjustmentUseCase
	audit       *audit.Recorder
	log         zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	catalog *inventory.CatalogUseCase,
	coordinator *inventory.StockCoordinator,
	adjustments *inventory.AdjustmentUseCase,
	recorder *audit.Recorder,
	log zerolog.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		catalog:     catalog,
		coordinator: coordinator,
		adjustments: adjustments,
		audit:       recorder,
		log:         log,
	}
}

// CreateItem godoc
// @Summary      Crear ítem de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "sku, name, initial_quantity, min_quantity"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items [post]
func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(in.SKU) == "" || strings.TrimSpace(in.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "sku y name son requeridos"})
	}
	actor := GetUserID(c)
	item, err := h.catalog.CreateItem(c.UserContext(), inventory.CreateItemInput{
		StoreID:         GetStoreID(c),
		SKU:             in.SKU,
		Name:            in.Name,
		Category:        in.Category,
		InitialQuantity: in.InitialQuantity,
		MinQuantity:     in.MinQuantity,
		Actor:           actor,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	h.audit.Record(c.UserContext(), audit.EventItemCreated, actor, audit.ResourceInventoryItem, item.ID, map[string]any{
		"sku":              item.SKU,
		"initial_quantity": item.Quantity,
	})
	return c.Status(fiber.StatusCreated).JSON(dto.ItemFromEntity(item))
}

// ListItems godoc
// @Summary      Listar ítems de la tienda del token
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ItemResponse
// @Router       /api/inventory/items [get]
func (h *InventoryHandler) ListItems(c *fiber.Ctx) error {
	items, err := h.catalog.ListItems(c.UserContext(), GetStoreID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ItemsFromEntities(items))
}

// ListLowStock lista ítems en o por debajo del mínimo configurado.
func (h *InventoryHandler) ListLowStock(c *fiber.Ctx) error {
	items, err := h.catalog.ListLowStock(c.UserContext(), GetStoreID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"total": len(items),
		"items": dto.ItemsFromEntities(items),
	})
}

// GetItem devuelve un ítem por ID.
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.catalog.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ItemFromEntity(item))
}

// DeleteItem elimina lógicamente el ítem; el historial de movimientos se conserva.
func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.catalog.DeleteItem(c.UserContext(), id); err != nil {
		return writeError(c, h.log, err)
	}
	h.audit.Record(c.UserContext(), audit.EventItemDeleted, GetUserID(c), audit.ResourceInventoryItem, id, nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// Consume godoc
// @Summary      Consumir stock (OUT)
// @Description  Idempotente si se envía Idempotency-Key: un reintento devuelve el ítem actual sin volver a descontar.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path    string                  true   "ID del ítem"
// @Param        Idempotency-Key  header  string                  false  "clave estable del caller"
// @Param        body             body    dto.StockChangeRequest  true   "quantity, reason, source_type, source_id"
// @Success      200  {object}  dto.ItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/consume [post]
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	return h.stockChange(c, entity.MovementTypeOUT)
}

// Release devuelve stock al ítem (IN). Mismas reglas de idempotencia que Consume.
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	return h.stockChange(c, entity.MovementTypeIN)
}

func (h *InventoryHandler) stockChange(c *fiber.Ctx, movType string) error {
	var in dto.StockChangeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	if key == "" {
		key = strings.TrimSpace(in.IdempotencyKey)
	}
	sourceType := strings.ToUpper(strings.TrimSpace(in.SourceType))
	if sourceType == "" {
		sourceType = entity.SourceTypeAPI
	}
	actor := GetUserID(c)
	cmd := inventory.StockCommand{
		ItemID:         c.Params("id"),
		Quantity:       in.Quantity,
		Reason:         in.Reason,
		SourceType:     sourceType,
		SourceID:       in.SourceID,
		IdempotencyKey: key,
		Actor:          actor,
	}

	var (
		item  *entity.InventoryItem
		err   error
		event string
	)
	if movType == entity.MovementTypeOUT {
		item, err = h.coordinator.Consume(c.UserContext(), cmd)
		event = audit.EventStockConsumed
	} else {
		item, err = h.coordinator.Release(c.UserContext(), cmd)
		event = audit.EventStockReleased
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	// La clave viaja en el detalle para que el destino descarte reintentos.
	h.audit.Record(c.UserContext(), event, actor, audit.ResourceInventoryItem, item.ID, map[string]any{
		"quantity":        in.Quantity,
		"source_type":     sourceType,
		"source_id":       in.SourceID,
		"idempotency_key": key,
	})
	return c.JSON(dto.ItemFromEntity(item))
}

// Adjust godoc
// @Summary      Ajuste administrativo directo
// @Description  IN suma, OUT resta, ADJUST fija la cantidad al valor enviado. Sin idempotencia.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del ítem"
// @Param        body  body  dto.AdjustmentRequest  true  "type, quantity, reason"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	actor := GetUserID(c)
	movType := strings.ToUpper(strings.TrimSpace(in.Type))
	item, err := h.adjustments.ChangeStock(c.UserContext(), inventory.AdjustmentCommand{
		ItemID:   c.Params("id"),
		Type:     movType,
		Quantity: in.Quantity,
		Reason:   in.Reason,
		Actor:    actor,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	h.audit.Record(c.UserContext(), audit.EventStockAdjusted, actor, audit.ResourceInventoryItem, item.ID, map[string]any{
		"type":           movType,
		"quantity":       in.Quantity,
		"quantity_after": item.Quantity,
		"reason":         in.Reason,
	})
	return c.JSON(dto.ItemFromEntity(item))
}

// ListMovements lista el libro del más reciente al más antiguo. Query: item_id, limit, offset.
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit y offset deben ser enteros"})
	}
	page.DefaultPage()
	list, err := h.catalog.ListMovements(c.UserContext(), repository.MovementFilter{
		ItemID: c.Query("item_id"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: dto.MovementsFromEntities(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(list)},
	})
}

// FindMovementByKey busca el movimiento registrado con una clave de idempotencia.
func (h *InventoryHandler) FindMovementByKey(c *fiber.Ctx) error {
	mov, err := h.catalog.FindMovementByKey(c.UserContext(), c.Params("key"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementFromEntity(mov))
}
