package bus

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/cskr/pubsub"
)

const TopicNavigation = "navigation"

type Subscription chan any

type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topic string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

// PubSubBus is a MessageBus over cskr/pubsub. After Close, Publish and
// Unsubscribe are no-ops and Subscribe returns a closed channel, since the
// underlying command loop is gone and would block them forever.
type PubSubBus struct {
	mu     sync.RWMutex
	closed bool
	ps     *pubsub.PubSub
	logger *slog.Logger
}

func New(logger *slog.Logger) *PubSubBus {
	return &PubSubBus{
		ps:     pubsub.New(64),
		logger: logger,
	}
}

func (b *PubSubBus) Publish(topic string, msg any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	b.logger.Debug("Publishing event", "topic", topic, "payloadType", payloadType(msg))
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topic string) Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		ch := make(Subscription)
		close(ch)
		return ch
	}

	b.logger.Debug("Subscribing", "topic", topic)
	return b.ps.Sub(topic)
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	if len(topics) == 0 {
		b.ps.Unsub(ch)
		return
	}
	b.ps.Unsub(ch, topics...)
}

func (b *PubSubBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.ps.Shutdown()
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
