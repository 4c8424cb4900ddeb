package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker("", 4)
	defer b.Close()
	if b.Topic() != DefaultTopic {
		t.Fatalf("topic %q", b.Topic())
	}

	ctx := context.Background()
	a, _ := b.Subscribe(ctx)
	c, _ := b.Subscribe(ctx)

	if err := b.Publish(ctx, NewSummaryUpdated(ReasonCreate, 1)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, ch := range []<-chan Event{a, c} {
		ev := recv(t, ch)
		if ev.Type != SummaryUpdated || ev.Reason != ReasonCreate || ev.EntryID != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
}

func TestBrokerNoReplay(t *testing.T) {
	b := NewBroker("", 4)
	defer b.Close()
	ctx := context.Background()

	_ = b.Publish(ctx, NewSummaryUpdated(ReasonCreate, 1))
	late, _ := b.Subscribe(ctx)

	select {
	case ev := <-late:
		t.Fatalf("late subscriber received %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBrokerSlowSubscriberDrops(t *testing.T) {
	b := NewBroker("", 2)
	defer b.Close()
	ctx := context.Background()
	slow, _ := b.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = b.Publish(ctx, NewSummaryUpdated(ReasonUpdate, int64(i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}

	published, dropped := b.Stats()
	if published != 10 || dropped != 8 {
		t.Fatalf("published=%d dropped=%d", published, dropped)
	}
	if len(slow) != 2 {
		t.Fatalf("expected buffer of 2, got %d", len(slow))
	}
}

func TestBrokerUnsubscribeOnCancel(t *testing.T) {
	b := NewBroker("", 1)
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx)
	if b.Subscribers() != 1 {
		t.Fatalf("subscribers %d", b.Subscribers())
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	if b.Subscribers() != 0 {
		t.Fatalf("subscribers %d after cancel", b.Subscribers())
	}
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker("", 1)
	ch, _ := b.Subscribe(context.Background())
	_ = b.Close()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if err := b.Publish(context.Background(), NewSummaryUpdated(ReasonClear, 0)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := b.Subscribe(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
