// Package metrics expone los contadores del libro de inventario en Prometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

const namespace = "inventory"

var _ inventory.Metrics = (*InventoryMetrics)(nil)

// InventoryMetrics implementa inventory.Metrics con contadores etiquetados.
type InventoryMetrics struct {
	movements *prometheus.CounterVec
	replays   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// NewInventoryMetrics crea y registra los contadores en reg.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	m := &InventoryMetrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_recorded_total",
			Help:      "Movimientos escritos en el libro, por tipo y origen.",
		}, []string{"type", "source_type"}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Reintentos con clave ya aplicada que no mutaron stock.",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_rejected_total",
			Help:      "Mutaciones rechazadas, por tipo y motivo.",
		}, []string{"type", "reason"}),
	}
	reg.MustRegister(m.movements, m.replays, m.rejected)
	return m
}

func (m *InventoryMetrics) MovementRecorded(movementType, sourceType string) {
	m.movements.WithLabelValues(movementType, SourceLabel(sourceType)).Inc()
}

// SourceLabel acota el origen del movimiento a los valores conocidos; el resto cae en "other"
// para que un cliente no pueda crear series nuevas.
func SourceLabel(sourceType string) string {
	switch {
	case sourceType == "":
		return "unknown"
	case entity.IsKnownSourceType(sourceType):
		return sourceType
	default:
		return "other"
	}
}

func (m *InventoryMetrics) ReplaySuppressed(movementType string) {
	m.replays.WithLabelValues(movementType).Inc()
}

func (m *InventoryMetrics) Rejected(movementType string, err error) {
	m.rejected.WithLabelValues(movementType, Reason(err)).Inc()
}

// Reason reduce el error a una etiqueta de baja cardinalidad.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	default:
		return "internal"
	}
}
