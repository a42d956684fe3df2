// Package audit define el canal lateral de auditoría. Los flujos emiten una entrada después de
// cada mutación exitosa; la persistencia y los reintentos del destino son externos al núcleo.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Tipos de evento emitidos por el servicio.
const (
	EventItemCreated    = "inventory.item_created"
	EventItemDeleted    = "inventory.item_deleted"
	EventStockConsumed  = "inventory.stock_consumed"
	EventStockReleased  = "inventory.stock_released"
	EventStockAdjusted  = "inventory.stock_adjusted"
	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
)

// Tipos de recurso auditados.
const (
	ResourceInventoryItem = "inventory_item"
	ResourceOrder         = "order"
)

// Entry es una entrada de auditoría (eventType, actor opcional, recurso, detalle JSON).
type Entry struct {
	EventType    string          `json:"event_type"`
	Actor        *string         `json:"actor,omitempty"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Detail       json.RawMessage `json:"detail,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Publisher entrega entradas al destino de auditoría.
type Publisher interface {
	Publish(ctx context.Context, entry Entry) error
}

// Recorder arma las entradas y las publica sin propagar errores al flujo (fire-and-forget).
type Recorder struct {
	pub Publisher
	log zerolog.Logger
	now func() time.Time
}

// NewRecorder construye el recorder. Con pub nil las entradas sólo se descartan.
func NewRecorder(pub Publisher, log zerolog.Logger) *Recorder {
	return &Recorder{pub: pub, log: log, now: time.Now}
}

// Record publica la entrada. actor vacío se registra como ausente.
func (r *Recorder) Record(ctx context.Context, eventType, actor, resourceType, resourceID string, detail any) {
	if r == nil || r.pub == nil {
		return
	}
	entry := Entry{
		EventType:    eventType,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OccurredAt:   r.now().UTC(),
	}
	if actor != "" {
		entry.Actor = &actor
	}
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			r.log.Warn().Err(err).Str("event_type", eventType).Msg("detalle de auditoría no serializable")
		} else {
			entry.Detail = raw
		}
	}
	if err := r.pub.Publish(ctx, entry); err != nil {
		r.log.Warn().Err(err).
			Str("event_type", eventType).
			Str("resource_id", resourceID).
			Msg("no se pudo publicar la entrada de auditoría")
	}
}

// LogPublisher escribe las entradas en el log estructurado. Es el destino por defecto sin Kafka.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher construye el publisher sobre zerolog.
func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish registra la entrada a nivel info.
func (p *LogPublisher) Publish(_ context.Context, entry Entry) error {
	ev := p.log.Info().
		Str("event_type", entry.EventType).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		RawJSON("detail", detailOrEmpty(entry.Detail))
	if entry.Actor != nil {
		ev = ev.Str("actor", *entry.Actor)
	}
	ev.Msg("auditoría")
	return nil
}

func detailOrEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}
