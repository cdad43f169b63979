// Package diag 记录各服务安全协商的最近状态，供诊断输出使用
//
// Recorder 只订阅事件总线上的路由事件，从不调用路由或协议引擎
package diag

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	coreerrors "securesvc-core/internal/core/errors"
	"securesvc-core/internal/core/events"
	"securesvc-core/internal/secure/service"
)

// DefaultHistorySize 默认最多跟踪的服务数
const DefaultHistorySize = 64

// State 从路由视角观察到的服务协商状态
type State string

const (
	StateNoRequestSent   State = "no_request_sent"
	StateNotReady        State = "not_ready" // 结果到达时连接或协议引擎不可用
	StateHandshakeActive State = "handshake_active"
	StateFailed          State = "failed"
)

// Record 单个服务的诊断记录
type Record struct {
	ID             string
	Service        service.Type
	State          State
	LastOutcome    service.ProtectResult
	NotReadyReason string
	Results        int   // 收到的保护结果数
	HandshakeLegs  int   // 收到的握手数据段数
	HandshakeBytes int64 // 收到的握手数据字节数
	FirstSeen      time.Time
	UpdatedAt      time.Time
}

// Recorder 按服务保存最近的协商记录，容量满时淘汰最久未更新的服务
type Recorder struct {
	cache *lru.Cache[service.Type, *Record]
	mu    sync.Mutex
	now   func() time.Time
}

// NewRecorder 创建记录器，size<=0 时使用默认容量
func NewRecorder(size int) (*Recorder, error) {
	if size <= 0 {
		size = DefaultHistorySize
	}
	cache, err := lru.New[service.Type, *Record](size)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInvalidParam, "failed to create history cache")
	}
	return &Recorder{cache: cache, now: time.Now}, nil
}

// Attach 订阅事件总线上的路由事件
func (r *Recorder) Attach(bus events.EventBus) ([]events.Subscription, error) {
	if bus == nil {
		return nil, coreerrors.New(coreerrors.CodeInvalidParam, "event bus is nil")
	}
	subs := make([]events.Subscription, 0, 2)
	for _, typ := range []string{events.TypeProtectionResult, events.TypeHandshakeData} {
		sub, err := bus.Subscribe(typ, r.Handle)
		if err != nil {
			for _, s := range subs {
				_ = bus.Unsubscribe(s)
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Handle 处理单个事件，未知事件类型忽略
func (r *Recorder) Handle(ev events.Event) error {
	switch e := ev.(type) {
	case *events.ProtectionResultEvent:
		r.update(e.Service, func(rec *Record) {
			rec.Results++
			rec.LastOutcome = e.Outcome
			rec.NotReadyReason = e.NotReady
			switch {
			case e.NotReady != "":
				rec.State = StateNotReady
			case e.Dispatched:
				rec.State = StateHandshakeActive
			default:
				rec.State = StateFailed
			}
		})
	case *events.HandshakeDataEvent:
		r.update(e.Service, func(rec *Record) {
			rec.HandshakeLegs++
			rec.HandshakeBytes += int64(e.Payload.Len())
		})
	}
	return nil
}

func (r *Recorder) update(svc service.Type, fn func(rec *Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	rec, ok := r.cache.Get(svc)
	if !ok {
		rec = &Record{
			ID:        uuid.NewString(),
			Service:   svc,
			State:     StateNoRequestSent,
			FirstSeen: now,
		}
	}
	fn(rec)
	rec.UpdatedAt = now
	r.cache.Add(svc, rec)
}

// Get 返回某服务记录的拷贝
func (r *Recorder) Get(svc service.Type) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.cache.Peek(svc)
	if !ok {
		return Record{Service: svc, State: StateNoRequestSent}, false
	}
	return *rec, true
}

// Snapshot 返回所有记录的拷贝，按服务编号排序
func (r *Recorder) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, r.cache.Len())
	for _, svc := range r.cache.Keys() {
		if rec, ok := r.cache.Peek(svc); ok {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// Reset 清空记录（例如连接重建时）
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Purge()
}
