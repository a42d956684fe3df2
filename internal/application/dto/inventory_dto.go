package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CreateItemRequest body para POST /api/inventory/items.
type CreateItemRequest struct {
	SKU             string `json:"sku"`
	Name            string `json:"name"`
	Category        string `json:"category,omitempty"`
	InitialQuantity int64  `json:"initial_quantity"`
	MinQuantity     int64  `json:"min_quantity"`
}

// StockChangeRequest body para consume/release. IdempotencyKey también se acepta en el
// header Idempotency-Key; si vienen ambos gana el header.
type StockChangeRequest struct {
	Quantity       int64  `json:"quantity"`
	Reason         string `json:"reason,omitempty"`
	SourceType     string `json:"source_type,omitempty"`
	SourceID       string `json:"source_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// AdjustmentRequest body para POST /api/inventory/items/:id/adjustments.
type AdjustmentRequest struct {
	Type     string `json:"type"` // IN | OUT | ADJUST
	Quantity int64  `json:"quantity"`
	Reason   string `json:"reason"`
}

// ItemResponse representación pública de un ítem.
type ItemResponse struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Quantity    int64     `json:"quantity"`
	MinQuantity int64     `json:"min_quantity"`
	LowStock    bool      `json:"low_stock"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MovementResponse representación pública de un movimiento del libro.
type MovementResponse struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	Type           string    `json:"type"`
	QuantityDelta  int64     `json:"quantity_delta"`
	Reason         string    `json:"reason,omitempty"`
	SourceType     string    `json:"source_type,omitempty"`
	SourceID       string    `json:"source_id,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// MovementListResponse página de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ItemFromEntity convierte la entidad a respuesta.
func ItemFromEntity(i *entity.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		StoreID:     i.StoreID,
		SKU:         i.SKU,
		Name:        i.Name,
		Category:    i.Category,
		Quantity:    i.Quantity,
		MinQuantity: i.MinQuantity,
		LowStock:    i.IsLowStock(),
		Version:     i.Version,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// ItemsFromEntities convierte una lista; nunca devuelve nil.
func ItemsFromEntities(items []*entity.InventoryItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, ItemFromEntity(i))
	}
	return out
}

// MovementFromEntity convierte la entidad a respuesta.
func MovementFromEntity(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		ItemID:         m.ItemID,
		Type:           m.Type,
		QuantityDelta:  m.QuantityDelta,
		Reason:         m.Reason,
		SourceType:     m.SourceType,
		SourceID:       m.SourceID,
		IdempotencyKey: m.IdempotencyKey,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// MovementsFromEntities convierte una lista; nunca devuelve nil.
func MovementsFromEntities(list []*entity.InventoryMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}
