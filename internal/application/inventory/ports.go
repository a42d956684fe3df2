package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx repository.TxRepos) error) error
}

// IdempotencyCache acelera la detección de reintentos. Nunca sustituye la restricción única
// del almacenamiento: un fallo o una ausencia en la cache cae siempre a la base de datos.
type IdempotencyCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key, movementID string) error
}

// Metrics recibe los eventos observables del coordinador y del ajuste administrativo.
type Metrics interface {
	MovementRecorded(movementType, sourceType string)
	ReplaySuppressed(movementType string)
	Rejected(movementType string, err error)
}

type noopMetrics struct{}

func (noopMetrics) MovementRecorded(string, string) {}
func (noopMetrics) ReplaySuppressed(string)         {}
func (noopMetrics) Rejected(string, error)          {}
