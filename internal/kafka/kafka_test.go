package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

var topics = config.TopicConfig{
	OrderCreated:   "t.created",
	OrderUpdated:   "t.updated",
	OrderCancelled: "t.cancelled",
	SMSRequested:   "t.sms",
}

func newProducer(w *fakeWriter) *Producer {
	return &Producer{Writer: w, Topics: topics, Logger: logger.NewWriterLogger(io.Discard)}
}

func TestPublishOrderEventRoutesByType(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w)
	ctx := context.Background()

	require.NoError(t, p.PublishOrderEvent(ctx, models.OrderEvent{Type: models.EventOrderCreated, OrderNumber: "ORD-1"}))
	require.NoError(t, p.PublishOrderEvent(ctx, models.OrderEvent{Type: models.EventOrderUpdated, OrderNumber: "ORD-1"}))
	require.NoError(t, p.PublishOrderEvent(ctx, models.OrderEvent{Type: models.EventOrderCancelled, OrderNumber: "ORD-1"}))
	require.NoError(t, p.PublishOrderEvent(ctx, models.OrderEvent{Type: models.EventOrderDeleted, OrderNumber: "ORD-1"}))

	require.Len(t, w.msgs, 4)
	assert.Equal(t, "t.created", w.msgs[0].Topic)
	assert.Equal(t, "t.updated", w.msgs[1].Topic)
	assert.Equal(t, "t.cancelled", w.msgs[2].Topic)
	assert.Equal(t, "t.updated", w.msgs[3].Topic)
	assert.Equal(t, []byte("ORD-1"), w.msgs[0].Key)

	var ev models.OrderEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, models.EventOrderCreated, ev.Type)

	assert.Error(t, p.PublishOrderEvent(ctx, models.OrderEvent{Type: "order.exploded"}))
}

func TestPublishSMS(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w)

	require.NoError(t, p.PublishSMS(context.Background(), models.SMSRequest{Phone: "5550102030", Message: "hi"}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "t.sms", w.msgs[0].Topic)

	req, err := DecodeSMS(w.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, "hi", req.Message)
}

func TestPublishFailureIsReturned(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("leader not available")})

	err := p.PublishSMS(context.Background(), models.SMSRequest{Phone: "1", Message: "x"})
	assert.ErrorContains(t, err, "leader not available")
}

func TestDecodeSMSRejectsBadPayload(t *testing.T) {
	_, err := DecodeSMS(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)

	_, err = DecodeSMS(kafka.Message{Value: []byte(`{"phone":"555"}`)})
	assert.Error(t, err)
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func TestConsumerRunCommitsEveryMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		msgs:   []kafka.Message{{Offset: 1, Value: []byte("ok")}, {Offset: 2, Value: []byte("bad")}, {Offset: 3, Value: []byte("ok")}},
		cancel: cancel,
	}
	c := &Consumer{Reader: r, Logger: logger.NewWriterLogger(io.Discard)}

	var handled int
	err := c.Run(ctx, func(_ context.Context, msg kafka.Message) error {
		handled++
		if string(msg.Value) == "bad" {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, handled)
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
}

func TestNoopPublisher(t *testing.T) {
	n := &NoopPublisher{Logger: logger.NewWriterLogger(io.Discard)}
	assert.NoError(t, n.PublishOrderEvent(context.Background(), models.OrderEvent{}))
	assert.NoError(t, n.PublishSMS(context.Background(), models.SMSRequest{}))
	assert.NoError(t, n.Close())
}
