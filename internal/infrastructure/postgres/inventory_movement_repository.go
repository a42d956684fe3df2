package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, item_id, type, quantity_delta, reason, source_type, source_id, idempotency_key, created_by, created_at, deleted_at`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// El libro es append-only: no hay Update.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento. La clave de idempotencia está protegida por el índice único
// parcial inventory_movements_idempotency_key_uq; una violación devuelve domain.ErrDuplicate.
func (r *InventoryMovementRepo) Create(ctx context.Context, movement *entity.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements (id, item_id, type, quantity_delta, reason, source_type, source_id, idempotency_key, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.ItemID, movement.Type, movement.QuantityDelta,
		nullableString(movement.Reason), nullableString(movement.SourceType), nullableString(movement.SourceID),
		nullableString(movement.IdempotencyKey), nullableString(movement.CreatedBy), movement.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// FindByIdempotencyKey devuelve el movimiento no eliminado con esa clave, o nil, nil.
func (r *InventoryMovementRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE idempotency_key = $1 AND deleted_at IS NULL`
	m, err := scanMovement(r.q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find movement by key: %w", err)
	}
	return m, nil
}

// List devuelve movimientos no eliminados del más reciente al más antiguo.
func (r *InventoryMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE deleted_at IS NULL`
	args := []any{}
	pos := 1
	if filter.ItemID != "" {
		query += fmt.Sprintf(" AND item_id = $%d", pos)
		args = append(args, filter.ItemID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.InventoryMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var (
		m                                 entity.InventoryMovement
		reason, sourceType, sourceID, key *string
		createdBy                         *string
	)
	if err := row.Scan(
		&m.ID, &m.ItemID, &m.Type, &m.QuantityDelta,
		&reason, &sourceType, &sourceID, &key, &createdBy,
		&m.CreatedAt, &m.DeletedAt,
	); err != nil {
		return nil, err
	}
	m.Reason = stringOrEmpty(reason)
	m.SourceType = stringOrEmpty(sourceType)
	m.SourceID = stringOrEmpty(sourceID)
	m.IdempotencyKey = stringOrEmpty(key)
	m.CreatedBy = stringOrEmpty(createdBy)
	return &m, nil
}
