package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	entries []Entry
	err     error
}

func (p *stubPublisher) Publish(_ context.Context, e Entry) error {
	p.entries = append(p.entries, e)
	return p.err
}

func TestRecorder_ArmaEntrada(t *testing.T) {
	pub := &stubPublisher{}
	r := NewRecorder(pub, zerolog.Nop())

	r.Record(context.Background(), EventStockConsumed, "ana", ResourceInventoryItem, "item-1", map[string]any{"quantity": 2})
	r.Record(context.Background(), EventItemDeleted, "", ResourceInventoryItem, "item-2", nil)

	require.Len(t, pub.entries, 2)
	first := pub.entries[0]
	assert.Equal(t, EventStockConsumed, first.EventType)
	require.NotNil(t, first.Actor)
	assert.Equal(t, "ana", *first.Actor)
	assert.JSONEq(t, `{"quantity":2}`, string(first.Detail))
	assert.False(t, first.OccurredAt.IsZero())

	assert.Nil(t, pub.entries[1].Actor)
	assert.Empty(t, pub.entries[1].Detail)
}

func TestRecorder_ErrorDelDestinoNoSePropaga(t *testing.T) {
	var buf bytes.Buffer
	pub := &stubPublisher{err: errors.New("broker caído")}
	r := NewRecorder(pub, zerolog.New(&buf))

	assert.NotPanics(t, func() {
		r.Record(context.Background(), EventOrderCreated, "x", ResourceOrder, "o-1", nil)
	})
	assert.Contains(t, buf.String(), "broker caído")
}

func TestRecorder_NilEsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Record(context.Background(), EventOrderCreated, "x", ResourceOrder, "o-1", nil)
	})
	NewRecorder(nil, zerolog.Nop()).Record(context.Background(), EventOrderCreated, "", ResourceOrder, "o-1", nil)
}

func TestLogPublisher_EscribeJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))
	actor := "ana"

	require.NoError(t, p.Publish(context.Background(), Entry{
		EventType:    EventStockAdjusted,
		Actor:        &actor,
		ResourceType: ResourceInventoryItem,
		ResourceID:   "item-1",
		Detail:       json.RawMessage(`{"type":"ADJUST"}`),
	}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, EventStockAdjusted, line["event_type"])
	assert.Equal(t, "ana", line["actor"])
	assert.Equal(t, map[string]any{"type": "ADJUST"}, line["detail"])
}
