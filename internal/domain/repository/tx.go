package repository

// TxRepos agrupa los repositorios atados a una misma transacción.
type TxRepos struct {
	Items     InventoryItemRepository
	Movements InventoryMovementRepository
	Orders    OrderRepository
}
