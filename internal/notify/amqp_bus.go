package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tracker/internal/amqp"
)

// AMQPBus carries events between processes over a fanout exchange and
// relays what it receives into a local Broker.
type AMQPBus struct {
	client *amqp.Client
	local  *Broker
	origin string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Bus = (*AMQPBus)(nil)

// NewAMQPBus starts relaying from client into a fresh Broker. origin tags
// outgoing messages so a process can tell its own echoes apart.
func NewAMQPBus(client *amqp.Client, topic, origin string, buffer int) *AMQPBus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &AMQPBus{
		client: client,
		local:  NewBroker(topic, buffer),
		origin: origin,
		cancel: cancel,
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		err := client.ConsumeWithRetry(ctx, b.relay)
		if err != nil && ctx.Err() == nil {
			slog.Error("AMQP relay stopped", "error", err)
		}
	}()
	return b
}

func (b *AMQPBus) relay(msg *amqp.Message) error {
	if msg.Topic != b.local.Topic() {
		return nil
	}
	ev := Event{
		Type:       msg.Type,
		Reason:     msg.Reason,
		EntryID:    msg.EntryID,
		OccurredAt: msg.OccurredAt,
	}
	// A closed local broker means shutdown is in progress.
	_ = b.local.Publish(context.Background(), ev)
	return nil
}

// Publish sends ev to every process on the exchange, this one included.
func (b *AMQPBus) Publish(ctx context.Context, ev Event) error {
	msg := &amqp.Message{
		Type:       ev.Type,
		Topic:      b.local.Topic(),
		Reason:     ev.Reason,
		EntryID:    ev.EntryID,
		Origin:     b.origin,
		OccurredAt: ev.OccurredAt,
	}
	if err := b.client.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (b *AMQPBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	return b.local.Subscribe(ctx)
}

// Stats reports the relay broker's publish and drop counters.
func (b *AMQPBus) Stats() (published, dropped int64) {
	return b.local.Stats()
}

func (b *AMQPBus) Close() error {
	b.cancel()
	b.wg.Wait()
	b.local.Close()
	return b.client.Close()
}
