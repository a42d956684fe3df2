package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/kafka"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestAuditPublisher_EscribeEntradaConClaveDeRecurso(t *testing.T) {
	w := &fakeWriter{}
	pub := kafka.NewAuditPublisher(w)
	actor := "user-1"
	entry := audit.Entry{
		EventType:    audit.EventStockConsumed,
		Actor:        &actor,
		ResourceType: audit.ResourceInventoryItem,
		ResourceID:   "item-1",
		Detail:       json.RawMessage(`{"quantity":2}`),
		OccurredAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, pub.Publish(context.Background(), entry))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "item-1", string(msg.Key))
	assert.Equal(t, audit.EventStockConsumed, header(msg, "event_type"))

	var got audit.Entry
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, entry.EventType, got.EventType)
	require.NotNil(t, got.Actor)
	assert.Equal(t, "user-1", *got.Actor)
	assert.JSONEq(t, `{"quantity":2}`, string(got.Detail))
}

func TestAuditPublisher_PropagaTraceparent(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	w := &fakeWriter{}
	require.NoError(t, kafka.NewAuditPublisher(w).Publish(ctx, audit.Entry{EventType: audit.EventOrderCreated, ResourceID: "o-1"}))
	require.Len(t, w.msgs, 1)
	assert.Contains(t, header(w.msgs[0], "traceparent"), span.SpanContext().TraceID().String())
}

func TestAuditPublisher_ErrorDelWriter(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	err := kafka.NewAuditPublisher(w).Publish(context.Background(), audit.Entry{EventType: audit.EventOrderCreated})
	assert.ErrorContains(t, err, "broker caído")
}
