package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

const itemColumns = `id, store_id, sku, name, category, quantity, min_quantity, version, created_at, updated_at, deleted_at`

// InventoryItemRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryItemRepo struct {
	q Querier
}

// NewInventoryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryItemRepository(q Querier) *InventoryItemRepo {
	return &InventoryItemRepo{q: q}
}

// Create inserta el ítem. Un SKU repetido entre ítems activos devuelve domain.ErrDuplicate.
func (r *InventoryItemRepo) Create(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (id, store_id, sku, name, category, quantity, min_quantity, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.StoreID, item.SKU, item.Name, nullableString(item.Category),
		item.Quantity, item.MinQuantity, item.Version, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create inventory item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem no eliminado. Devuelve nil, nil si no existe.
func (r *InventoryItemRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1 AND deleted_at IS NULL`
	item, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return item, nil
}

// GetForUpdate obtiene el ítem y bloquea la fila hasta el fin de la transacción.
func (r *InventoryItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	item, err := scanItem(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get inventory item for update: %w", err)
	}
	return item, nil
}

// Update persiste el ítem si la versión coincide; en éxito incrementa item.Version.
func (r *InventoryItemRepo) Update(ctx context.Context, item *entity.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET name = $3, category = $4, quantity = $5, min_quantity = $6, updated_at = $7, version = version + 1
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query,
		item.ID, item.Version, item.Name, nullableString(item.Category),
		item.Quantity, item.MinQuantity, item.UpdatedAt,
	)
	if err != nil {
		if constraintName(err) == "inventory_items_quantity_check" {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	item.Version++
	return nil
}

// SoftDelete marca el ítem como eliminado. Si no existe o ya estaba eliminado devuelve ErrNotFound.
func (r *InventoryItemRepo) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE inventory_items SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("soft delete inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve ítems no eliminados ordenados por nombre. storeID vacío = todas las tiendas.
func (r *InventoryItemRepo) List(ctx context.Context, storeID string) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE deleted_at IS NULL`
	args := []any{}
	if storeID != "" {
		query += ` AND store_id = $1`
		args = append(args, storeID)
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.InventoryItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// scanItem lee una fila de inventory_items; pgx.ErrNoRows se traduce a nil, nil.
func scanItem(row pgx.Row) (*entity.InventoryItem, error) {
	var (
		item     entity.InventoryItem
		category *string
	)
	err := row.Scan(
		&item.ID, &item.StoreID, &item.SKU, &item.Name, &category,
		&item.Quantity, &item.MinQuantity, &item.Version,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	item.Category = stringOrEmpty(category)
	return &item, nil
}
