package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSKU(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  café  molido 500g", "CAFE-MOLIDO-500G"},
		{"pantalla a51", "PANTALLA-A51"},
		{"PANTALLA-A51", "PANTALLA-A51"},
		{"Batería Ñandú", "BATERIA-NANDU"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSKU(tt.in), tt.in)
	}
}

func TestReservation_Transiciones(t *testing.T) {
	r := NewReservation("item-1", 3)
	assert.True(t, r.IsPending())

	changed, err := r.Release()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, ReservationReleased, r.State)

	// Liberar de nuevo no es error ni cambio.
	changed, err = r.Release()
	require.NoError(t, err)
	assert.False(t, changed)

	none := NoReservation()
	changed, err = none.Release()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, none.IsPending())

	bad := Reservation{State: "PENDING"}
	_, err = bad.Release()
	assert.ErrorIs(t, err, ErrInvalidReservation)
}

func TestReservationKey(t *testing.T) {
	assert.Equal(t, "sale:v-1:reserve", ReservationKey(OrderKindSale, "v-1", ReservationActionReserve))
	assert.Equal(t, "repair:r-9:release", ReservationKey(OrderKindRepair, "r-9", ReservationActionRelease))
}

func TestOrder_Cancel(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	o := &Order{ID: "o-1", Status: OrderStatusOpen}

	require.NoError(t, o.Cancel(now))
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.Equal(t, now, o.UpdatedAt)
	assert.ErrorIs(t, o.Cancel(now), ErrOrderCancelled)
}

func TestInventoryItem_IsLowStock(t *testing.T) {
	assert.False(t, (&InventoryItem{Quantity: 0}).IsLowStock(), "sin mínimo configurado")
	assert.True(t, (&InventoryItem{Quantity: 2, MinQuantity: 2}).IsLowStock())
	assert.False(t, (&InventoryItem{Quantity: 3, MinQuantity: 2}).IsLowStock())
}

func TestClone_CopiaIndependiente(t *testing.T) {
	deleted := time.Now()
	m := &InventoryMovement{ID: "m", DeletedAt: &deleted}
	c := m.Clone()
	*c.DeletedAt = deleted.Add(time.Hour)
	assert.Equal(t, deleted, *m.DeletedAt)
}
