package bus

import (
	"context"
	"errors"
	"sync"
)

var ErrBusClosed = errors.New("bus closed")

// InMemoryBus fans each published message out to every consumer group
// subscribed to its topic. Within a group, deliveries go to a single shared
// channel, so concurrent subscribers of one group split the stream the way
// partitioned consumers would. Used by tests and local single-process runs.
type InMemoryBus struct {
	mu     sync.RWMutex
	groups map[string]*memoryGroup // group name -> delivery channel + topic set
	closed bool
}

type memoryGroup struct {
	topics map[string]struct{}
	ch     chan Message
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{groups: make(map[string]*memoryGroup)}
}

func (b *InMemoryBus) Publish(ctx context.Context, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}
	for _, g := range b.groups {
		if _, ok := g.topics[msg.Topic]; !ok {
			continue
		}
		select {
		case g.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *InMemoryBus) Subscribe(topics []string, group string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	g, ok := b.groups[group]
	if !ok {
		g = &memoryGroup{topics: make(map[string]struct{}), ch: make(chan Message, 256)}
		b.groups[group] = g
	}
	for _, t := range topics {
		g.topics[t] = struct{}{}
	}
	return &memorySubscription{ch: g.ch}, nil
}

func (b *InMemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

type memorySubscription struct {
	ch chan Message
}

func (s *memorySubscription) Fetch(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg := <-s.ch:
		return msg, nil
	}
}

func (s *memorySubscription) Commit(context.Context, Message) error { return nil }

func (s *memorySubscription) Close() error { return nil }
