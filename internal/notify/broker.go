package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

var ErrClosed = errors.New("notify: bus closed")

// Broker is an in-process Bus.
type Broker struct {
	topic  string
	buffer int

	mu     sync.Mutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool

	published atomic.Int64
	dropped   atomic.Int64
}

var _ Bus = (*Broker)(nil)

func NewBroker(topic string, buffer int) *Broker {
	if topic == "" {
		topic = DefaultTopic
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{topic: topic, buffer: buffer, subs: make(map[uint64]chan Event)}
}

func (b *Broker) Topic() string { return b.topic }

// Publish never blocks on a subscriber.
func (b *Broker) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.published.Add(1)
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.unsubscribe(id)
	}()
	return ch, nil
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Stats reports publish and drop counters.
func (b *Broker) Stats() (published, dropped int64) {
	return b.published.Load(), b.dropped.Load()
}

// Close ends every subscription. Further publishes fail with ErrClosed.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
