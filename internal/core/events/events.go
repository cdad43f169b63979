// Package events 提供安全服务握手的诊断事件与同步事件总线
package events

import (
	"time"

	"securesvc-core/internal/secure/service"
)

// 事件类型
const (
	TypeProtectionResult = "SecureProtectionResult"
	TypeHandshakeData    = "SecureHandshakeData"
)

// 未就绪原因
const (
	NotReadyNoConnection     = "no_connection"
	NotReadyNoProtocolEngine = "no_protocol_engine"
)

// Event 事件接口
type Event interface {
	Type() string
	Timestamp() time.Time
	Source() string
}

// EventHandler 事件处理器，必须非阻塞
type EventHandler func(event Event) error

// Subscription 订阅句柄，用于取消订阅
type Subscription struct {
	ID        string
	EventType string
}

// EventBus 事件总线接口
type EventBus interface {
	// Publish 在调用方 goroutine 上依次投递给所有处理器
	Publish(event Event) error

	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	Unsubscribe(sub Subscription) error
	Close() error
}

// BaseEvent 基础事件实现
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventTime   time.Time `json:"event_time"`
	EventSource string    `json:"event_source"`
}

func (e *BaseEvent) Type() string {
	return e.EventType
}

func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e *BaseEvent) Source() string {
	return e.EventSource
}

// ProtectionResultEvent 收到保护服务结果后的路由结论
type ProtectionResultEvent struct {
	BaseEvent
	Service    service.Type          `json:"service"`
	Outcome    service.ProtectResult `json:"outcome"`
	Dispatched bool                  `json:"dispatched"`         // 是否已调用 StartSecureHandshake
	NotReady   string                `json:"not_ready,omitempty"` // 未就绪原因，就绪时为空
}

// NewProtectionResultEvent 创建保护结果事件
func NewProtectionResultEvent(svc service.Type, outcome service.ProtectResult, dispatched bool, notReady string) *ProtectionResultEvent {
	return &ProtectionResultEvent{
		BaseEvent: BaseEvent{
			EventType:   TypeProtectionResult,
			EventTime:   time.Now(),
			EventSource: "SecureServiceRouter",
		},
		Service:    svc,
		Outcome:    outcome,
		Dispatched: dispatched,
		NotReady:   notReady,
	}
}

// HandshakeDataEvent 某服务收到一段握手数据
type HandshakeDataEvent struct {
	BaseEvent
	Service service.Type             `json:"service"`
	Payload service.HandshakePayload `json:"payload"`
}

// NewHandshakeDataEvent 创建握手数据事件，payload 会被拷贝
func NewHandshakeDataEvent(svc service.Type, payload service.HandshakePayload) *HandshakeDataEvent {
	return &HandshakeDataEvent{
		BaseEvent: BaseEvent{
			EventType:   TypeHandshakeData,
			EventTime:   time.Now(),
			EventSource: "SecureServiceRouter",
		},
		Service: svc,
		Payload: payload.Clone(),
	}
}
