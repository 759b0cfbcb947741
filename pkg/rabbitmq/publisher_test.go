package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key = exchange, key
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisherWithChannel(ch)

	err := p.Publish(context.Background(), "booking.cancelled", map[string]any{"booking_id": 12})
	require.NoError(t, err)

	assert.Equal(t, ExchangeName, ch.exchange)
	assert.Equal(t, "booking.cancelled", ch.key)
	require.Len(t, ch.msgs, 1)

	msg := ch.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	_, err = uuid.Parse(msg.MessageId)
	assert.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, float64(12), body["booking_id"])
}

func TestPublish_UniqueMessageIDs(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisherWithChannel(ch)

	require.NoError(t, p.Publish(context.Background(), "k", 1))
	require.NoError(t, p.Publish(context.Background(), "k", 1))
	assert.NotEqual(t, ch.msgs[0].MessageId, ch.msgs[1].MessageId)
}

func TestPublish_Errors(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewPublisherWithChannel(ch)

	err := p.Publish(context.Background(), "k", map[string]string{"a": "b"})
	assert.ErrorContains(t, err, "channel closed")

	err = p.Publish(context.Background(), "k", make(chan int))
	assert.ErrorContains(t, err, "marshal payload")
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	NewPublisherWithChannel(ch).Close()
	assert.True(t, ch.closed)
}
