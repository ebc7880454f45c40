package mailbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hfarah/noor/internal/bus"
)

// DefaultPollInterval is how often the poller re-reads the persisted
// message list to discover externally written messages.
const DefaultPollInterval = 3 * time.Second

// ChangeFeed signals moments at which the mailbox should re-read the store.
// The polling implementation below is the only one today; a push-based
// subscription can replace it without touching the poller's state handling.
type ChangeFeed interface {
	Changes() <-chan time.Time
	Stop()
}

// TickerFeed is a fixed-interval ChangeFeed.
type TickerFeed struct {
	ticker *time.Ticker
}

// NewTickerFeed creates a feed ticking at the given interval.
// A non-positive interval selects DefaultPollInterval.
func NewTickerFeed(interval time.Duration) *TickerFeed {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &TickerFeed{ticker: time.NewTicker(interval)}
}

// Changes returns the tick channel.
func (f *TickerFeed) Changes() <-chan time.Time { return f.ticker.C }

// Stop stops the underlying ticker.
func (f *TickerFeed) Stop() { f.ticker.Stop() }

// Sink receives the new-message side effect. Implementations show a badge,
// fire an OS notification, or both.
type Sink interface {
	NewMessage(msg Message)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(msg Message)

// NewMessage calls f.
func (f SinkFunc) NewMessage(msg Message) { f(msg) }

// Poller watches the store for messages written by another process (a
// second profile window, or a simulated remote actor) and fires the sink at
// most once per genuinely new incoming message. The high-water mark is the
// timestamp of the newest message already accounted for; it advances before
// the sink runs so a slow sink cannot cause a duplicate fire on the next
// tick.
type Poller struct {
	svc    *Service
	feed   ChangeFeed
	sink   Sink
	bus    *bus.Bus
	logger *zap.Logger

	highWater int64
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewPoller creates a poller. sink, b and logger may be nil.
func NewPoller(svc *Service, feed ChangeFeed, sink Sink, b *bus.Bus, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{svc: svc, feed: feed, sink: sink, bus: b, logger: logger}
}

// Start primes the high-water mark from the current store contents, so
// history present before startup never fires the sink, then begins
// consuming the change feed.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	if latest, ok := p.svc.latestIncoming(); ok {
		p.highWater = latest.Timestamp
	}

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.feed.Changes():
				p.tick()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop tears the poller down deterministically: the feed stops, the loop
// exits, and Stop returns only once the goroutine is gone.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.feed.Stop()
	<-p.done
	p.cancel = nil
}

func (p *Poller) tick() {
	latest, ok := p.svc.latestIncoming()
	if !ok || latest.Timestamp <= p.highWater {
		return
	}
	// Advance the mark first; firing the sink is the last step.
	p.highWater = latest.Timestamp

	p.logger.Info("new incoming message",
		zap.String("message_id", latest.ID),
		zap.String("conversation_id", latest.ConversationID))
	if p.bus != nil {
		p.bus.Publish("mailbox.message_new", latest.ID)
	}
	if p.sink != nil {
		p.sink.NewMessage(latest)
	}
}
