package event

import (
	"context"
	"sync"
	"time"

	"github.com/stitchwork/stitch/model"
)

var _ Bus = new(InMemBus)

// InMemBus delivers events synchronously to handlers in this process.
// Single-node deployments and tests use it in place of redis pub/sub.
type InMemBus struct {
	mu       sync.Mutex
	handlers map[string]map[int]Handler
	nextId   int
}

func NewInMemBus() *InMemBus {
	return &InMemBus{
		handlers: make(map[string]map[int]Handler),
	}
}

func (b *InMemBus) Start() error {
	return nil
}

func (b *InMemBus) Publish(ctx context.Context, channel string, ev model.Event) error {
	ev.Timestamp = time.Now().UnixMilli()
	b.mu.Lock()
	registered := make([]Handler, 0, len(b.handlers[channel]))
	for _, h := range b.handlers[channel] {
		registered = append(registered, h)
	}
	b.mu.Unlock()
	for _, h := range registered {
		h(ev)
	}
	return nil
}

func (b *InMemBus) Subscribe(channel string, handler Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[channel]; !ok {
		b.handlers[channel] = make(map[int]Handler)
	}
	b.nextId++
	id := b.nextId
	b.handlers[channel][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		registered, ok := b.handlers[channel]
		if !ok {
			return
		}
		delete(registered, id)
		if len(registered) == 0 {
			delete(b.handlers, channel)
		}
	}, nil
}

func (b *InMemBus) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string]map[int]Handler)
	return nil
}
