package mailbox

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// manualFeed drives the poller from the test instead of a wall-clock ticker.
type manualFeed struct {
	ch chan time.Time
}

func newManualFeed() *manualFeed {
	return &manualFeed{ch: make(chan time.Time)}
}

func (f *manualFeed) Changes() <-chan time.Time { return f.ch }
func (f *manualFeed) Stop()                     {}

func (f *manualFeed) tick(t *testing.T) {
	t.Helper()
	select {
	case f.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("poller did not consume tick")
	}
}

// countingSink records fired notifications.
type countingSink struct {
	fired atomic.Int32
	last  atomic.Value
}

func (s *countingSink) NewMessage(msg Message) {
	s.last.Store(msg.ID)
	s.fired.Add(1)
}

// waitFired polls until the sink has fired n times or the deadline passes.
func waitFired(t *testing.T, s *countingSink, n int32) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.fired.Load() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sink fired %d times, want %d", s.fired.Load(), n)
}

func TestPollerFiresOncePerNewMessage(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	bob := service(s, bobID)

	conv, err := bob.OpenChat(aliceID)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now().UnixMilli()
	feed := newManualFeed()
	sink := &countingSink{}
	p := NewPoller(alice, feed, sink, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	// One new incoming message, then several quiet polls: exactly one fire.
	bob.now = func() time.Time { return time.UnixMilli(base + 100) }
	msg1, err := bob.SendMessage(conv.ID, "first", TypeText)
	if err != nil {
		t.Fatal(err)
	}
	feed.tick(t)
	waitFired(t, sink, 1)
	if sink.last.Load() != msg1.ID {
		t.Errorf("sink saw %v, want %s", sink.last.Load(), msg1.ID)
	}

	feed.tick(t)
	feed.tick(t)
	waitFired(t, sink, 1)

	// Another message fires exactly once more.
	bob.now = func() time.Time { return time.UnixMilli(base + 200) }
	if _, err := bob.SendMessage(conv.ID, "second", TypeText); err != nil {
		t.Fatal(err)
	}
	feed.tick(t)
	feed.tick(t)
	waitFired(t, sink, 2)
}

func TestPollerIgnoresHistoryBeforeStart(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)
	bob := service(s, bobID)

	conv, _ := bob.OpenChat(aliceID)
	if _, err := bob.SendMessage(conv.ID, "pre-existing", TypeText); err != nil {
		t.Fatal(err)
	}

	feed := newManualFeed()
	sink := &countingSink{}
	p := NewPoller(alice, feed, sink, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	feed.tick(t)
	feed.tick(t)
	time.Sleep(50 * time.Millisecond)
	if sink.fired.Load() != 0 {
		t.Errorf("sink fired %d times for pre-existing history, want 0", sink.fired.Load())
	}
}

func TestPollerIgnoresOutgoingMessages(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)

	conv, err := alice.OpenChat(bobID)
	if err != nil {
		t.Fatal(err)
	}

	feed := newManualFeed()
	sink := &countingSink{}
	p := NewPoller(alice, feed, sink, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	// Alice's own outgoing message must not notify alice.
	if _, err := alice.SendMessage(conv.ID, "outgoing", TypeText); err != nil {
		t.Fatal(err)
	}
	feed.tick(t)
	time.Sleep(50 * time.Millisecond)
	if sink.fired.Load() != 0 {
		t.Errorf("sink fired %d times for own message, want 0", sink.fired.Load())
	}
}

func TestPollerStopIsDeterministic(t *testing.T) {
	s := testStore(t)
	alice := service(s, aliceID)

	p := NewPoller(alice, newManualFeed(), &countingSink{}, nil, nil)
	p.Start(context.Background())

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return")
	}

	// Stop after Stop is a no-op.
	p.Stop()
}
