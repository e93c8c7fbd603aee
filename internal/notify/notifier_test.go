package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/config"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/logger"
	"github.com/MussikOn/Mussikon-Planificaion-Inicial-sub000/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
	closed  bool
}

func (p *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func (p *fakeProducer) Close() {
	p.closed = true
}

func TestKafkaNotifier_Notify(t *testing.T) {
	p := &fakeProducer{}
	n := newKafkaNotifier(p, "")

	err := n.Notify(context.Background(), "musician-1", "offer.selected", map[string]interface{}{"offer_id": "o-1"})
	require.NoError(t, err)

	require.Len(t, p.records, 1)
	rec := p.records[0]
	assert.Equal(t, defaultTopic, rec.Topic)
	assert.Equal(t, []byte("musician-1"), rec.Key)

	var body kafkaNotification
	require.NoError(t, json.Unmarshal(rec.Value, &body))
	assert.Equal(t, "offer.selected", body.EventType)
	assert.Equal(t, "o-1", body.Payload["offer_id"])

	require.NoError(t, n.Close())
	assert.True(t, p.closed)
}

func TestKafkaNotifier_ProduceError(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker unavailable")}
	n := newKafkaNotifier(p, "custom")

	err := n.Notify(context.Background(), "leader-1", "event.started", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, "custom", p.records[0].Topic)
}

func TestKafkaNotifier_EncodeErrorIsPermanent(t *testing.T) {
	n := newKafkaNotifier(&fakeProducer{}, "")

	err := n.Notify(context.Background(), "leader-1", "event.started", map[string]interface{}{"bad": make(chan int)})
	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err))
}

func TestKafkaNotifier_PublishToDLQ(t *testing.T) {
	p := &fakeProducer{}
	n := newKafkaNotifier(p, "")

	msg := &retry.DLQMessage{
		ID:          "msg-1",
		OriginalKey: "musician-1",
		Payload:     json.RawMessage(`{"request_id":"req-1"}`),
		Error:       "broker unavailable",
		Attempts:    5,
	}
	require.NoError(t, n.PublishToDLQ(context.Background(), msg))

	require.Len(t, p.records, 1)
	rec := p.records[0]
	assert.Equal(t, defaultTopic+".dlq", rec.Topic)
	assert.Equal(t, []byte("musician-1"), rec.Key)

	headers := map[string]string{}
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "5", headers["attempts"])
	assert.Equal(t, defaultTopic, headers["original_topic"])

	var body retry.DLQMessage
	require.NoError(t, json.Unmarshal(rec.Value, &body))
	assert.Equal(t, "broker unavailable", body.Error)
}

func TestNewKafkaNotifier_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaNotifier(&KafkaNotifierConfig{})
	assert.Error(t, err)
}

func TestPubNubNotifier_Notify(t *testing.T) {
	var gotChannel string
	var gotMessage interface{}
	n := newPubNubNotifier(func(channel string, message interface{}) error {
		gotChannel, gotMessage = channel, message
		return nil
	})

	err := n.Notify(context.Background(), "leader-1", "offer.created", map[string]interface{}{"offer_id": "o-1"})
	require.NoError(t, err)

	assert.Equal(t, "user-leader-1", gotChannel)
	msg, ok := gotMessage.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "offer.created", msg["type"])
}

func TestPubNubNotifier_CancelledContext(t *testing.T) {
	called := false
	n := newPubNubNotifier(func(string, interface{}) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.Notify(ctx, "leader-1", "offer.created", nil), context.Canceled)
	assert.False(t, called)
}

func TestNewPubNubNotifier_RequiresKeys(t *testing.T) {
	_, err := NewPubNubNotifier(&PubNubNotifierConfig{PublishKey: "pub"})
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(logger.New(zap.New(core)))

	require.NoError(t, n.Notify(context.Background(), "musician-1", "request.cancelled", map[string]interface{}{"reason": "rain"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "musician-1", logs.All()[0].ContextMap()["user_id"])
}

func TestLogNotifier_PublishToDLQ(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(logger.New(zap.New(core)))

	require.NoError(t, n.PublishToDLQ(context.Background(), &retry.DLQMessage{ID: "msg-1", OriginalKey: "musician-1", Attempts: 5}))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.ErrorLevel, entry.Level)
	assert.Equal(t, "msg-1", entry.ContextMap()["message_id"])
}

func TestNew_SelectsDriver(t *testing.T) {
	cfg := &config.Config{}

	n, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	cfg.Notifier.Driver = "carrier-pigeon"
	_, err = New(cfg, nil)
	assert.Error(t, err)
}
