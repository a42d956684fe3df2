package entity

import "errors"

// Estados de la reserva de inventario de una orden.
// Sólo RESERVED -> RELEASED es una transición legal.
const (
	ReservationNotApplicable = "NOT_APPLICABLE"
	ReservationReserved      = "RESERVED"
	ReservationReleased      = "RELEASED"
)

// ErrInvalidReservation se devuelve al intentar una transición de reserva ilegal.
var ErrInvalidReservation = errors.New("transición de reserva inválida")

// Reservation es el marcador de transacción compensable que vive en la orden.
type Reservation struct {
	ItemID   string
	Quantity int64
	State    string
}

// NoReservation es la reserva de una orden que no referencia inventario.
func NoReservation() Reservation {
	return Reservation{State: ReservationNotApplicable}
}

// NewReservation crea una reserva activa de quantity unidades del ítem.
func NewReservation(itemID string, quantity int64) Reservation {
	return Reservation{ItemID: itemID, Quantity: quantity, State: ReservationReserved}
}

// IsPending indica si la reserva sigue pendiente de liberar.
func (r Reservation) IsPending() bool {
	return r.State == ReservationReserved
}

// Release aplica RESERVED -> RELEASED. Es idempotente: si ya estaba liberada o no aplica
// devuelve false sin error. Cualquier otro estado es ilegal.
func (r *Reservation) Release() (bool, error) {
	switch r.State {
	case ReservationReserved:
		r.State = ReservationReleased
		return true, nil
	case ReservationReleased, ReservationNotApplicable:
		return false, nil
	default:
		return false, ErrInvalidReservation
	}
}
