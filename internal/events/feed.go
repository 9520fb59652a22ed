package events

import (
	"context"
	"log/slog"
	"sync"
)

// Feed is an in-memory Source. Every published event is delivered to every
// live subscriber.
type Feed struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	closed      bool
	bufferSize  int
	logger      *slog.Logger
}

type subscriber struct {
	ch       chan ChangeEvent
	done     chan struct{}
	stopOnce sync.Once
}

// NewFeed creates a Feed whose subscriber channels hold up to bufferSize
// undelivered events.
func NewFeed(bufferSize int, logger *slog.Logger) *Feed {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &Feed{
		subscribers: make(map[*subscriber]struct{}),
		bufferSize:  bufferSize,
		logger:      logger.With("component", "event_feed"),
	}
}

// Subscribe registers a new subscriber. Its channel is closed when ctx is
// done or the feed is closed.
func (f *Feed) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrSourceClosed
	}

	sub := &subscriber{
		ch:   make(chan ChangeEvent, f.bufferSize),
		done: make(chan struct{}),
	}
	f.subscribers[sub] = struct{}{}
	f.logger.Debug("subscriber added", "subscriber_count", len(f.subscribers))

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
			return
		}
		f.remove(sub)
	}()

	return sub.ch, nil
}

// Publish delivers event to every subscriber, blocking while a subscriber's
// buffer is full. It returns ctx.Err() if ctx ends first; subscribers that
// already received the event keep it.
func (f *Feed) Publish(ctx context.Context, event ChangeEvent) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return ErrSourceClosed
	}

	f.logger.Debug("publishing event",
		"collection", event.Collection,
		"document_id", event.DocumentID,
		"subscriber_count", len(f.subscribers))

	for sub := range f.subscribers {
		select {
		case sub.ch <- event:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close ends every subscription. Further Publish and Subscribe calls fail.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	subs := make([]*subscriber, 0, len(f.subscribers))
	for sub := range f.subscribers {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		f.remove(sub)
	}
}

// remove signals done first so a blocked Publish can let go of the read lock.
func (f *Feed) remove(sub *subscriber) {
	sub.stopOnce.Do(func() { close(sub.done) })

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subscribers[sub]; !ok {
		return
	}
	delete(f.subscribers, sub)
	close(sub.ch)
	f.logger.Debug("subscriber removed", "subscriber_count", len(f.subscribers))
}
