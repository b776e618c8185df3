package event

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/util"
	"go.uber.org/zap"
)

var _ Bus = new(RedisBus)

// RedisBus fans events out across processes through redis pub/sub. The
// local channel->handler map only tracks this process's subscribers;
// redis carries the event to every other interested process.
type RedisBus struct {
	redisClient    rd.UniversalClient
	namespace      string
	encoderDecoder util.EncoderDecoder[model.Event]

	mu       sync.Mutex
	handlers map[string]map[int]Handler
	nextId   int
	pubsub   *rd.PubSub
	wg       sync.WaitGroup
}

func NewRedisBus(addrs []string, namespace string) *RedisBus {
	return &RedisBus{
		redisClient: rd.NewUniversalClient(&rd.UniversalOptions{
			Addrs: addrs,
		}),
		namespace:      namespace,
		encoderDecoder: util.NewJsonEncoderDecoder[model.Event](),
		handlers:       make(map[string]map[int]Handler),
	}
}

func (b *RedisBus) prefixed(channel string) string {
	return fmt.Sprintf("%s:%s", b.namespace, channel)
}

func (b *RedisBus) Start() error {
	b.pubsub = b.redisClient.Subscribe(context.Background())
	b.wg.Add(1)
	go b.dispatchLoop()
	return nil
}

func (b *RedisBus) dispatchLoop() {
	defer b.wg.Done()
	for msg := range b.pubsub.Channel() {
		channel := strings.TrimPrefix(msg.Channel, b.namespace+":")
		ev, err := b.encoderDecoder.Decode([]byte(msg.Payload))
		if err != nil {
			logger.Warn("dropping undecodable event", zap.String("channel", channel), zap.Error(err))
			continue
		}
		b.mu.Lock()
		registered := make([]Handler, 0, len(b.handlers[channel]))
		for _, h := range b.handlers[channel] {
			registered = append(registered, h)
		}
		b.mu.Unlock()
		for _, h := range registered {
			h(*ev)
		}
	}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, ev model.Event) error {
	ev.Timestamp = time.Now().UnixMilli()
	data, err := b.encoderDecoder.Encode(ev)
	if err != nil {
		return err
	}
	if err := b.redisClient.Publish(ctx, b.prefixed(channel), data).Err(); err != nil {
		logger.Error("error publishing event", zap.String("channel", channel), zap.String("type", string(ev.Type)), zap.Error(err))
		return err
	}
	return nil
}

func (b *RedisBus) Subscribe(channel string, handler Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[channel]; !ok {
		if err := b.pubsub.Subscribe(context.Background(), b.prefixed(channel)); err != nil {
			return nil, err
		}
		b.handlers[channel] = make(map[int]Handler)
		logger.Debug("subscribed to channel", zap.String("channel", channel))
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
			if err := b.pubsub.Unsubscribe(context.Background(), b.prefixed(channel)); err != nil {
				logger.Warn("error unsubscribing channel", zap.String("channel", channel), zap.Error(err))
			}
		}
	}, nil
}

func (b *RedisBus) Stop() error {
	logger.Info("stopping event bus")
	b.mu.Lock()
	b.handlers = make(map[string]map[int]Handler)
	b.mu.Unlock()
	if b.pubsub != nil {
		if err := b.pubsub.Close(); err != nil {
			return err
		}
	}
	b.wg.Wait()
	return nil
}
