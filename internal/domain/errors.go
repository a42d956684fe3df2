package domain

import "errors"

// Errores centinela del libro de stock. Los adaptadores los envuelven con %w
// y la capa HTTP los traduce a códigos de estado en writeError.
var (
	// ErrNotFound: ítem, movimiento u orden inexistente (o borrado lógico). 404.
	ErrNotFound = errors.New("recurso no encontrado")
	// ErrInvalidInput: cantidad no positiva, SKU vacío, tipo de movimiento desconocido. 400.
	ErrInvalidInput = errors.New("entrada inválida")
	// ErrDuplicate: SKU repetido en la tienda o clave de idempotencia ya usada. 409.
	ErrDuplicate = errors.New("recurso duplicado")

	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// ErrConflict: versión obsoleta del ítem u orden reenviada con otro tipo. 409.
	ErrConflict = errors.New("conflicto con el estado actual")
	// ErrInsufficientStock: una salida dejaría la cantidad por debajo de cero. 409 INSUFFICIENT_STOCK.
	ErrInsufficientStock = errors.New("stock insuficiente")
)
