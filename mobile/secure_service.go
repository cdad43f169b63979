package mobile

import (
	"encoding/json"
	"sync"

	"securesvc-core/internal/core/events"
	corelog "securesvc-core/internal/core/log"
	"securesvc-core/internal/core/metrics"
	"securesvc-core/internal/secure/diag"
	"securesvc-core/internal/secure/router"
	"securesvc-core/internal/secure/service"
)

// SecureServiceCallback Android/iOS 可调用的安全服务回调封装
// 协商层收到保护服务响应和握手响应后调用本对象
type SecureServiceCallback struct {
	router   *router.Router
	bus      events.EventBus
	recorder *diag.Recorder // 创建失败时为 nil，此时 StatusJSON 返回空数组
	counters *metrics.MemoryMetrics
	logger   corelog.Logger

	listener HandshakeListener
	mu       sync.RWMutex
}

// NewSecureServiceCallback 创建回调封装
// 计数写入全局 Metrics；宿主未注册时创建内存实现并注册为全局实例
func NewSecureServiceCallback() *SecureServiceCallback {
	logger := corelog.Default().WithField("component", "mobile")
	bus := events.NewEventBus(logger)
	m := metrics.EnsureGlobalMetrics(func() metrics.Metrics { return metrics.NewMemoryMetrics() })

	c := &SecureServiceCallback{
		bus:    bus,
		logger: logger,
	}
	c.counters, _ = m.(*metrics.MemoryMetrics)

	c.recorder = attachRecorder(bus, logger)
	if _, err := bus.Subscribe(events.TypeHandshakeData, c.forwardHandshakeData); err != nil {
		logger.Warnf("SecureServiceCallback: handshake forwarding disabled: %v", err)
	}

	c.router = router.New(&router.Config{
		Logger:              logger,
		Metrics:             m,
		Events:              bus,
		PayloadPreviewBytes: router.DefaultPayloadPreviewBytes,
	})
	return c
}

// attachRecorder 创建并挂接诊断记录器，失败时返回 nil
func attachRecorder(bus events.EventBus, logger corelog.Logger) *diag.Recorder {
	recorder, err := diag.NewRecorder(diag.DefaultHistorySize)
	if err != nil {
		logger.Warnf("SecureServiceCallback: diagnostics disabled: %v", err)
		return nil
	}
	if _, err := recorder.Attach(bus); err != nil {
		logger.Warnf("SecureServiceCallback: diagnostics disabled: %v", err)
		return nil
	}
	return recorder
}

// SetConnection 设置传输连接，传 nil 表示连接已断开
func (c *SecureServiceCallback) SetConnection(conn Connection) {
	if conn == nil {
		c.router.Unbind()
		return
	}
	c.router.Bind(connectionAdapter{conn: conn})
}

// SetHandshakeListener 设置握手数据监听，传 nil 取消
func (c *SecureServiceCallback) SetHandshakeListener(listener HandshakeListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = listener
}

// OnProtectServiceResponse 收到保护服务请求的响应
// result: Protect* 常量
// serviceType: Service* 常量
func (c *SecureServiceCallback) OnProtectServiceResponse(result int, serviceType int) {
	svc, ok := c.serviceType(serviceType)
	if !ok {
		return
	}
	c.router.OnProtectionResult(service.ProtectResult(result), svc)
}

// OnHandshakeResponse 收到握手响应数据
func (c *SecureServiceCallback) OnHandshakeResponse(data []byte, serviceType int) {
	svc, ok := c.serviceType(serviceType)
	if !ok {
		return
	}
	c.router.OnHandshakeData(service.HandshakePayload(data), svc)
}

// StatusJSON 返回各服务协商状态的 JSON 数组
func (c *SecureServiceCallback) StatusJSON() string {
	if c.recorder == nil {
		return "[]"
	}
	records := c.recorder.Snapshot()
	out := make([]ServiceStatus, 0, len(records))
	for _, r := range records {
		last := ""
		if r.Results > 0 {
			last = r.LastOutcome.String()
		}
		out = append(out, ServiceStatus{
			ServiceType:    int(r.Service),
			ServiceName:    r.Service.String(),
			State:          string(r.State),
			LastResult:     last,
			HandshakeLegs:  r.HandshakeLegs,
			HandshakeBytes: r.HandshakeBytes,
			UpdatedMillis:  r.UpdatedAt.UnixMilli(),
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// CountersJSON 返回路由计数的 JSON 对象，键为带标签的指标名
// 全局 Metrics 不是内存实现时返回 "{}"
func (c *SecureServiceCallback) CountersJSON() string {
	if c.counters == nil {
		return "{}"
	}
	data, err := json.Marshal(c.counters.Snapshot())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Close 释放资源，之后的回调仍然安全但不再转发
func (c *SecureServiceCallback) Close() {
	c.router.Unbind()
	_ = c.bus.Close()
}

func (c *SecureServiceCallback) serviceType(v int) (service.Type, bool) {
	if v < 0 || v > 0xFF {
		c.logger.Warnf("SecureServiceCallback: service type %d out of range, ignored", v)
		return 0, false
	}
	return service.Type(v), true
}

func (c *SecureServiceCallback) forwardHandshakeData(ev events.Event) error {
	e, ok := ev.(*events.HandshakeDataEvent)
	if !ok {
		return nil
	}
	c.mu.RLock()
	listener := c.listener
	c.mu.RUnlock()
	if listener != nil {
		listener.OnHandshakeData(int(e.Service), e.Payload)
	}
	return nil
}

// connectionAdapter 将宿主实现的 Connection 适配为 router.Connection
type connectionAdapter struct {
	conn Connection
}

func (a connectionAdapter) ProtocolEngine() (router.ProtocolEngine, bool) {
	engine := a.conn.GetProtocolEngine()
	if engine == nil {
		return nil, false
	}
	return engineAdapter{engine: engine}, true
}

type engineAdapter struct {
	engine ProtocolEngine
}

func (a engineAdapter) StartSecureHandshake(svc service.Type) {
	a.engine.StartSecureHandshake(int(svc))
}
