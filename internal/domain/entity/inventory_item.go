package entity

import "time"

// InventoryItem es el registro autoritativo de cantidad por SKU.
// Quantity nunca es negativa; sólo la modifican el coordinador de stock y el ajuste administrativo.
type InventoryItem struct {
	ID          string
	StoreID     string
	SKU         string // normalizado, único entre ítems no eliminados
	Name        string
	Category    string
	Quantity    int64
	MinQuantity int64 // umbral informativo, no bloquea salidas
	Version     int64 // versión optimista; la incrementa el repositorio en cada Update
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsDeleted indica si el ítem fue eliminado lógicamente.
func (i *InventoryItem) IsDeleted() bool {
	return i.DeletedAt != nil
}

// IsLowStock indica si la cantidad actual está en o por debajo del mínimo configurado.
func (i *InventoryItem) IsLowStock() bool {
	return i.MinQuantity > 0 && i.Quantity <= i.MinQuantity
}

// Clone devuelve una copia independiente del ítem.
func (i *InventoryItem) Clone() *InventoryItem {
	c := *i
	if i.DeletedAt != nil {
		d := *i.DeletedAt
		c.DeletedAt = &d
	}
	return &c
}
