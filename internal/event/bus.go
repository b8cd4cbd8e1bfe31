package event

import (
	"sync"

	"github.com/google/uuid"
)

// EventType 定义事件类型
type EventType string

const (
	EventRenameProgress  EventType = "rename_progress"
	EventRenameComplete  EventType = "rename_complete"
	EventRestoreProgress EventType = "restore_progress"
	EventRestoreComplete EventType = "restore_complete"
	EventDetectComplete  EventType = "detect_complete"
)

// Event 代表一个系统事件
type Event struct {
	Type    EventType
	Payload interface{}
}

// Handler 处理事件的函数签名
type Handler func(event Event)

// Bus 事件总线接口
type Bus interface {
	Subscribe(topic EventType, handler Handler) string // 返回 Subscription ID
	Unsubscribe(topic EventType, subID string)
	SubscribeChannel(topics []EventType, buffer int) (<-chan Event, func())
	Publish(topic EventType, payload interface{})
}

// HandlerWrapper 包装 Handler 以便识别
type HandlerWrapper struct {
	ID      string
	Handler Handler
}

// InMemoryBus 简单的内存事件总线实现
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]HandlerWrapper
}

// GlobalBus 全局单例
var GlobalBus Bus = NewInMemoryBus()

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[EventType][]HandlerWrapper),
	}
}

func (b *InMemoryBus) Subscribe(topic EventType, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	wrapper := HandlerWrapper{ID: id, Handler: handler}
	b.handlers[topic] = append(b.handlers[topic], wrapper)
	return id
}

func (b *InMemoryBus) Unsubscribe(topic EventType, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wrappers := b.handlers[topic]
	for i, w := range wrappers {
		if w.ID == subID {
			b.handlers[topic] = append(wrappers[:i], wrappers[i+1:]...)
			break
		}
	}
}

// SubscribeChannel 把多个主题桥接进同一个 channel，供 SSE 这类消费者使用。
// 慢消费者把缓冲塞满时事件被丢弃，不会反压总线。
// 返回的 cancel 负责退订；channel 本身不关闭，由订阅方停止读取即可。
func (b *InMemoryBus) SubscribeChannel(topics []EventType, buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	bridge := func(e Event) {
		select {
		case ch <- e:
		default:
		}
	}

	subIDs := make(map[EventType]string, len(topics))
	for _, t := range topics {
		subIDs[t] = b.Subscribe(t, bridge)
	}

	cancel := func() {
		for t, id := range subIDs {
			b.Unsubscribe(t, id)
		}
	}
	return ch, cancel
}

func (b *InMemoryBus) Publish(topic EventType, payload interface{}) {
	b.mu.RLock()
	wrappers := b.handlers[topic]
	b.mu.RUnlock()

	// 异步执行所有 Handler，避免阻塞发布者
	evt := Event{Type: topic, Payload: payload}
	for _, w := range wrappers {
		go w.Handler(evt)
	}
}
