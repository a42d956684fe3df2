package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CreateOrderRequest body para POST /api/orders. ID es opcional; enviarlo hace el alta
// idempotente ante reintentos del cliente.
type CreateOrderRequest struct {
	ID          string `json:"id,omitempty"`
	Kind        string `json:"kind"` // SALE | REPAIR
	CustomerRef string `json:"customer_ref,omitempty"`
	Notes       string `json:"notes,omitempty"`
	ItemID      string `json:"item_id,omitempty"`
	Quantity    int64  `json:"quantity,omitempty"`
}

// ReservationResponse estado de la reserva de inventario de la orden.
type ReservationResponse struct {
	ItemID   string `json:"item_id,omitempty"`
	Quantity int64  `json:"quantity"`
	State    string `json:"state"`
}

// OrderResponse representación pública de una orden.
type OrderResponse struct {
	ID          string              `json:"id"`
	Kind        string              `json:"kind"`
	StoreID     string              `json:"store_id"`
	CustomerRef string              `json:"customer_ref,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	Status      string              `json:"status"`
	Reservation ReservationResponse `json:"reservation"`
	CreatedBy   string              `json:"created_by,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// OrderFromEntity convierte la entidad a respuesta.
func OrderFromEntity(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		Kind:        o.Kind,
		StoreID:     o.StoreID,
		CustomerRef: o.CustomerRef,
		Notes:       o.Notes,
		Status:      o.Status,
		Reservation: ReservationResponse{
			ItemID:   o.Reservation.ItemID,
			Quantity: o.Reservation.Quantity,
			State:    o.Reservation.State,
		},
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
