package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishEncodesJSONAndHeaders(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "snappy")

	err := p.Publish(context.Background(), "liquidity.snapshots", []byte("liquidity"),
		map[string]interface{}{"signal": "bullish"},
		Header{Key: "schema", Value: "v1"},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, "liquidity.snapshots", m.Topic)
	assert.Equal(t, []byte("liquidity"), m.Key)
	assert.JSONEq(t, `{"signal":"bullish"}`, string(m.Value))
	require.Len(t, m.Headers, 1)
	assert.Equal(t, "schema", m.Headers[0].Key)
	assert.Equal(t, []byte("v1"), m.Headers[0].Value)
}

func TestPublishBatchWrapsWriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, "gzip")

	err := p.PublishBatch(context.Background(), "t", []Message{{Value: "a"}, {Value: []byte("b")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.NoError(t, p.PublishBatch(context.Background(), "t", nil))
}

func TestNewProducerValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		opts   []ProducerOption
		errMsg string
	}{
		{name: "no brokers", errMsg: "brokers"},
		{name: "bad acks", opts: []ProducerOption{WithBrokers([]string{"k:9092"}), WithRequiredAcks(2)}, errMsg: "required acks"},
		{name: "bad compression", opts: []ProducerOption{WithBrokers([]string{"k:9092"}), WithCompression("brotli")}, errMsg: "compression"},
		{name: "valid", opts: []ProducerOption{WithBrokers([]string{"k:9092"}), WithRequiredAcks(1), WithCompression("none")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(tt.opts...)
			if tt.errMsg == "" {
				require.NoError(t, err)
				assert.NoError(t, p.Close())
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseCompression(t *testing.T) {
	c, err := parseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, kafka.Zstd, c)

	c, err = parseCompression("")
	require.NoError(t, err)
	assert.Equal(t, kafka.Compression(0), c)
}
