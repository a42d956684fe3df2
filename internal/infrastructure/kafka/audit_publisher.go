// Package kafka publica las entradas de auditoría en un tópico Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

var _ audit.Publisher = (*AuditPublisher)(nil)

// MessageWriter es el subconjunto de *kafka.Writer que usa el publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// NewWriter construye el writer del tópico de auditoría. La clave del mensaje es el ID del
// recurso, así las entradas de un mismo ítem u orden caen en la misma partición y conservan orden.
func NewWriter(cfg config.KafkaConfig) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafkago.RequireOne,
		Async:        cfg.Async,
	}
}

// AuditPublisher serializa la entrada en JSON y la escribe con el contexto de traza en headers.
type AuditPublisher struct {
	writer MessageWriter
}

// NewAuditPublisher construye el publisher sobre un writer (normalmente NewWriter).
func NewAuditPublisher(writer MessageWriter) *AuditPublisher {
	return &AuditPublisher{writer: writer}
}

// Publish escribe la entrada. Con el writer en modo Async el error de entrega no vuelve aquí.
func (p *AuditPublisher) Publish(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serializar entrada de auditoría: %w", err)
	}
	headers := []kafkago.Header{{Key: "event_type", Value: []byte(entry.EventType)}}
	carrier := &headerCarrier{headers: &headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	msg := kafkago.Message{
		Key:     []byte(entry.ResourceID),
		Value:   payload,
		Headers: headers,
		Time:    entry.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar auditoría %s: %w", entry.EventType, err)
	}
	return nil
}

// headerCarrier adapta los headers de kafka-go a propagation.TextMapCarrier.
type headerCarrier struct {
	headers *[]kafkago.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafkago.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
