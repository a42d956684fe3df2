package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/orders"
)

// OrderHandler maneja órdenes de venta y reparación (protegido).
type OrderHandler struct {
	uc  *orders.OrderUseCase
	log zerolog.Logger
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *orders.OrderUseCase, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear orden (SALE o REPAIR)
// @Description  Si la orden referencia un ítem, el stock se reserva en la misma transacción.
// @Description  Reenviar el mismo id devuelve la orden existente sin reservar de nuevo.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "kind, item_id, quantity"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	order, err := h.uc.CreateOrder(c.UserContext(), orders.CreateOrderInput{
		ID:          in.ID,
		Kind:        in.Kind,
		StoreID:     GetStoreID(c),
		CustomerRef: in.CustomerRef,
		Notes:       in.Notes,
		ItemID:      in.ItemID,
		Quantity:    in.Quantity,
		Actor:       GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OrderFromEntity(order))
}

// GetByID devuelve una orden con su reserva.
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OrderFromEntity(order))
}

// Cancel cancela la orden y libera su reserva una sola vez; repetir es seguro.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	order, err := h.uc.CancelOrder(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OrderFromEntity(order))
}
