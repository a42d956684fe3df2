package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeIN     = "IN"     // entrada
	MovementTypeOUT    = "OUT"    // salida
	MovementTypeADJUST = "ADJUST" // ajuste a valor literal
)

// Orígenes conocidos de un movimiento. SourceType es libre en el libro; las órdenes usan su
// tipo (SALE, REPAIR) como origen.
const (
	SourceTypeAdmin   = "ADMIN"
	SourceTypeCatalog = "CATALOG"
	SourceTypeAPI     = "API"
)

// IsKnownSourceType indica si st es uno de los orígenes que emite el servicio.
func IsKnownSourceType(st string) bool {
	switch st {
	case SourceTypeAdmin, SourceTypeCatalog, SourceTypeAPI, OrderKindSale, OrderKindRepair:
		return true
	}
	return false
}

// InventoryMovement es una entrada del libro de movimientos. Append-only: nunca se modifica
// después de creada salvo el borrado lógico.
//
// QuantityDelta es positivo en IN y negativo en OUT. En ADJUST guarda el valor enviado por el
// administrador, no la diferencia real antes/después.
type InventoryMovement struct {
	ID             string
	ItemID         string
	Type           string
	QuantityDelta  int64
	Reason         string
	SourceType     string
	SourceID       string
	IdempotencyKey string // vacío = sin clave
	CreatedBy      string
	CreatedAt      time.Time
	DeletedAt      *time.Time
}

// IsValidMovementType indica si t es uno de los tipos soportados.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeADJUST:
		return true
	}
	return false
}

// Clone devuelve una copia independiente del movimiento.
func (m *InventoryMovement) Clone() *InventoryMovement {
	c := *m
	if m.DeletedAt != nil {
		d := *m.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}
