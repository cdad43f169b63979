package events

import (
	"sync"

	"github.com/google/uuid"

	coreerrors "securesvc-core/internal/core/errors"
	corelog "securesvc-core/internal/core/log"
	"securesvc-core/internal/core/safe"
)

type subscriber struct {
	id      string
	handler EventHandler
}

// eventBus 同步事件总线实现
type eventBus struct {
	subscribers map[string][]subscriber
	closed      bool
	mu          sync.RWMutex
	logger      corelog.Logger
}

// NewEventBus 创建新的事件总线，logger 为 nil 时使用默认 Logger
func NewEventBus(logger corelog.Logger) EventBus {
	if logger == nil {
		logger = corelog.Default()
	}
	return &eventBus{
		subscribers: make(map[string][]subscriber),
		logger:      corelog.Safe(logger),
	}
}

// Publish 发布事件
// 处理器的错误和 panic 只记录日志，不影响其他处理器和发布方
func (bus *eventBus) Publish(event Event) error {
	if event == nil {
		return coreerrors.New(coreerrors.CodeInvalidParam, "event cannot be nil")
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return coreerrors.ErrServiceClosed
	}
	subs := bus.subscribers[event.Type()]
	// 拷贝一份，处理器可以在回调中订阅/取消订阅
	handlers := make([]subscriber, len(subs))
	copy(handlers, subs)
	bus.mu.RUnlock()

	for _, s := range handlers {
		if err := bus.deliver(s, event); err != nil {
			bus.logger.Warnf("Event handler %s failed for event %s: %v", s.id, event.Type(), err)
		}
	}
	return nil
}

func (bus *eventBus) deliver(s subscriber, event Event) error {
	return safe.Call("event:"+event.Type(), func() error {
		return s.handler(event)
	})
}

// Subscribe 订阅事件
func (bus *eventBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if eventType == "" {
		return Subscription{}, coreerrors.New(coreerrors.CodeInvalidParam, "event type cannot be empty")
	}
	if handler == nil {
		return Subscription{}, coreerrors.New(coreerrors.CodeInvalidParam, "event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return Subscription{}, coreerrors.ErrServiceClosed
	}

	sub := Subscription{ID: uuid.NewString(), EventType: eventType}
	bus.subscribers[eventType] = append(bus.subscribers[eventType], subscriber{id: sub.ID, handler: handler})
	bus.logger.Debugf("Subscribed handler %s for event type %s, total handlers: %d",
		sub.ID, eventType, len(bus.subscribers[eventType]))
	return sub, nil
}

// Unsubscribe 取消订阅
func (bus *eventBus) Unsubscribe(sub Subscription) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return coreerrors.ErrServiceClosed
	}

	subs := bus.subscribers[sub.EventType]
	for i, s := range subs {
		if s.id == sub.ID {
			remaining := make([]subscriber, 0, len(subs)-1)
			remaining = append(remaining, subs[:i]...)
			remaining = append(remaining, subs[i+1:]...)
			bus.subscribers[sub.EventType] = remaining
			return nil
		}
	}
	return coreerrors.Newf(coreerrors.CodeNotFound, "subscription %s not found for event type %s", sub.ID, sub.EventType)
}

// Close 关闭事件总线，清空所有处理器
func (bus *eventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		return nil
	}
	bus.closed = true
	bus.subscribers = make(map[string][]subscriber)
	return nil
}
