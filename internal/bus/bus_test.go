package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("mailbox.", 10)
	defer unsub()

	b.Publish("mailbox.message_new", "payload")

	select {
	case evt := <-ch:
		if evt.Topic != "mailbox.message_new" {
			t.Errorf("got topic %q, want mailbox.message_new", evt.Topic)
		}
		if evt.At.IsZero() {
			t.Error("event timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("store.", 10)
	defer unsub()

	b.Publish("mailbox.message_new", nil)
	b.Publish("store.changed.messages", nil)

	select {
	case evt := <-ch:
		if evt.Topic != "store.changed.messages" {
			t.Errorf("got topic %q, want store.changed.messages", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The mailbox event must not have been delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("store.", 10)
	unsub()

	b.Publish("store.changed.settings", nil)

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	b.Publish("test.one", nil)
	// Buffer is full; this one is dropped instead of blocking.
	b.Publish("test.two", nil)

	evt := <-ch
	if evt.Topic != "test.one" {
		t.Errorf("got %q, want test.one", evt.Topic)
	}
}
