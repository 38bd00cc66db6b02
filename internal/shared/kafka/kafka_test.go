package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct{ msgs []kafka.Message }

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func TestNewWriterSplitsBrokers(t *testing.T) {
	w := NewWriter("a:9092,b:9092", "bet_placed")
	defer w.Close()

	assert.Equal(t, "bet_placed", w.Topic)
	assert.Contains(t, w.Addr.String(), "a:9092")
	assert.Contains(t, w.Addr.String(), "b:9092")
}

func TestWriteJSON(t *testing.T) {
	cw := &captureWriter{}
	require.NoError(t, WriteJSON(context.Background(), cw, "7", []byte(`{"ok":true}`)))

	require.Len(t, cw.msgs, 1)
	assert.Equal(t, "7", string(cw.msgs[0].Key))
	assert.JSONEq(t, `{"ok":true}`, string(cw.msgs[0].Value))
	assert.False(t, cw.msgs[0].Time.IsZero())
}
