// Package memory implementa los puertos de persistencia en memoria para tests y ejecución local.
// Un único mutex serializa las unidades de trabajo; cada una opera sobre una copia del estado
// que sólo reemplaza al original si fn termina sin error (rollback atómico).
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	items     map[string]*entity.InventoryItem
	movements []*entity.InventoryMovement // orden de inserción
	orders    map[string]*entity.Order
}

func newState() *state {
	return &state{
		items:  make(map[string]*entity.InventoryItem),
		orders: make(map[string]*entity.Order),
	}
}

func (s *state) clone() *state {
	c := &state{
		items:     make(map[string]*entity.InventoryItem, len(s.items)),
		movements: make([]*entity.InventoryMovement, len(s.movements)),
		orders:    make(map[string]*entity.Order, len(s.orders)),
	}
	for id, item := range s.items {
		c.items[id] = item.Clone()
	}
	for i, m := range s.movements {
		c.movements[i] = m.Clone()
	}
	for id, o := range s.orders {
		c.orders[id] = o.Clone()
	}
	return c
}

// Store guarda ítems, movimientos y órdenes. Es a la vez el TxRunner y la fuente de los
// repositorios atados al "pool".
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

// Items devuelve el repositorio de ítems fuera de transacción.
func (s *Store) Items() *InventoryItemRepo { return &InventoryItemRepo{store: s} }

// Movements devuelve el repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *InventoryMovementRepo { return &InventoryMovementRepo{store: s} }

// Orders devuelve el repositorio de órdenes fuera de transacción.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{store: s} }

// Run ejecuta fn sobre una copia del estado con el mutex tomado. Si fn devuelve error la copia
// se descarta. fn no debe usar los repositorios fuera de transacción (el mutex no es reentrante).
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	repos := repository.TxRepos{
		Items:     &InventoryItemRepo{store: s, tx: snapshot},
		Movements: &InventoryMovementRepo{store: s, tx: snapshot},
		Orders:    &OrderRepo{store: s, tx: snapshot},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

// view entrega el estado de la transacción o, fuera de ella, el estado confirmado con el mutex tomado.
func (s *Store) view(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}
