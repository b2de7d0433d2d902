package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type fakeAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error { f.acked++; return nil }

func (f *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked++
	f.requeue = requeue
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error { return nil }

type attemptErr struct{ n int }

func (e attemptErr) Error() string { return fmt.Sprintf("attempt %d failed", e.n) }
func (e attemptErr) Attempt() int  { return e.n }

func TestCalculateBackoff(t *testing.T) {
	c := &Consumer{baseDelay: time.Second}

	assert.Equal(t, time.Second, c.calculateBackoff(0))
	assert.Equal(t, time.Second, c.calculateBackoff(1))
	assert.Equal(t, 4*time.Second, c.calculateBackoff(3))
	assert.Equal(t, maxBackoff, c.calculateBackoff(10))
	assert.Equal(t, maxBackoff, c.calculateBackoff(80))
}

func TestAttemptOf(t *testing.T) {
	c := &Consumer{}

	assert.Equal(t, 1, c.attemptOf(errors.New("plain"), amqp.Delivery{}))
	assert.Equal(t, 3, c.attemptOf(fmt.Errorf("wrapped: %w", attemptErr{3}), amqp.Delivery{}))

	d := amqp.Delivery{Headers: amqp.Table{"x-death": []interface{}{amqp.Table{}, amqp.Table{}}}}
	assert.Equal(t, 2, c.attemptOf(errors.New("plain"), d))
}

func TestProcessDeliveryAcksOnSuccess(t *testing.T) {
	ack := &fakeAck{}
	c := &Consumer{
		handler: func(ctx context.Context, body []byte) error { return nil },
		logger:  zaptest.NewLogger(t),
	}

	c.processDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(`{}`)}, c.logger)

	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
}

func TestProcessDeliveryRequeuesOnFailure(t *testing.T) {
	ack := &fakeAck{}
	c := &Consumer{
		handler:   func(ctx context.Context, body []byte) error { return attemptErr{1} },
		baseDelay: time.Millisecond,
		logger:    zaptest.NewLogger(t),
	}

	c.processDelivery(context.Background(), amqp.Delivery{Acknowledger: ack}, c.logger)

	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestProcessDeliveryDropsOnShutdown(t *testing.T) {
	ack := &fakeAck{}
	c := &Consumer{
		handler:   func(ctx context.Context, body []byte) error { return errors.New("boom") },
		baseDelay: time.Hour,
		logger:    zaptest.NewLogger(t),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.processDelivery(ctx, amqp.Delivery{Acknowledger: ack}, c.logger)

	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}
