package entity

import (
	"errors"
	"strings"
	"time"
)

// Tipos de orden que consumen inventario.
const (
	OrderKindSale   = "SALE"   // punto de venta
	OrderKindRepair = "REPAIR" // ingreso a reparación
)

// Estados de la orden.
const (
	OrderStatusOpen      = "OPEN"
	OrderStatusCancelled = "CANCELLED"
)

// Acciones usadas al construir las claves de idempotencia de una reserva.
const (
	ReservationActionReserve = "reserve"
	ReservationActionRelease = "release"
)

// ErrOrderCancelled se devuelve al operar sobre una orden ya cancelada.
var ErrOrderCancelled = errors.New("la orden ya está cancelada")

// Order es la entidad del flujo (venta o reparación) que guarda su propia reserva de inventario.
type Order struct {
	ID          string
	Kind        string
	StoreID     string
	CustomerRef string
	Notes       string
	Status      string
	Reservation Reservation
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsValidOrderKind indica si kind es un tipo de orden soportado.
func IsValidOrderKind(kind string) bool {
	return kind == OrderKindSale || kind == OrderKindRepair
}

// ReservationKey construye la clave estable "<tipo>:<orderId>:<acción>" usada como
// clave de idempotencia. Debe ser idéntica entre reintentos de la misma acción.
func ReservationKey(kind, orderID, action string) string {
	return strings.ToLower(kind) + ":" + orderID + ":" + action
}

// Cancel marca la orden como cancelada. No toca la reserva: la liberación la decide el flujo.
func (o *Order) Cancel(now time.Time) error {
	if o.Status == OrderStatusCancelled {
		return ErrOrderCancelled
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}

// Clone devuelve una copia independiente de la orden.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
