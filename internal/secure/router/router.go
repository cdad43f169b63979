// Package router 将安全服务协商的异步结果路由到对应服务的下一步握手
package router

import (
	"sync"
	"sync/atomic"

	"securesvc-core/internal/core/events"
	corelog "securesvc-core/internal/core/log"
	"securesvc-core/internal/core/metrics"
	"securesvc-core/internal/secure/service"
)

// 默认日志中握手数据预览的字节数
const DefaultPayloadPreviewBytes = 16

// Config 路由配置
type Config struct {
	Logger  corelog.Logger
	Metrics metrics.Metrics // 可选
	Events  events.EventBus // 可选，握手数据与路由结论的转发通道

	// PayloadPreviewBytes 日志中握手数据的预览长度，<=0 时不输出预览
	PayloadPreviewBytes int
}

// Router 安全服务回调路由
//
// 对外只有两个入口，均由传输层接收路径在任意 goroutine 上调用；
// 路由本身不阻塞、不启动 goroutine、不跟踪各服务的协商状态
type Router struct {
	binding atomic.Pointer[binding]
	bindMu  sync.Mutex // 串行化绑定变更与绑定状态指标，读路径不加锁

	logger       corelog.Logger
	metrics      metrics.Metrics
	bus          events.EventBus
	previewBytes int
}

// New 创建路由，config 为 nil 时使用默认配置
func New(config *Config) *Router {
	if config == nil {
		config = &Config{PayloadPreviewBytes: DefaultPayloadPreviewBytes}
	}

	logger := config.Logger
	if logger == nil {
		logger = corelog.Default()
	}

	return &Router{
		logger:       corelog.Safe(logger).WithField("component", "SecureServiceRouter"),
		metrics:      config.Metrics,
		bus:          config.Events,
		previewBytes: config.PayloadPreviewBytes,
	}
}

// Bind 绑定连接，nil（含值为 nil 的实现）等价于 Unbind；可在任意时刻重新绑定（例如重连）
func (r *Router) Bind(conn Connection) {
	if isNil(conn) {
		r.Unbind()
		return
	}

	r.bindMu.Lock()
	defer r.bindMu.Unlock()
	r.binding.Store(&binding{conn: conn})
	r.setGauge(metrics.ConnectionBoundGauge, 1)
	r.logger.Debug("Connection bound")
}

// Unbind 解除连接绑定
func (r *Router) Unbind() {
	r.bindMu.Lock()
	defer r.bindMu.Unlock()
	if r.binding.Swap(nil) != nil {
		r.logger.Debug("Connection unbound")
	}
	r.setGauge(metrics.ConnectionBoundGauge, 0)
}

// Connection 返回当前绑定的连接
func (r *Router) Connection() (Connection, bool) {
	b := r.binding.Load()
	if b == nil {
		return nil, false
	}
	return b.conn, true
}

// OnProtectionResult 处理保护服务请求的结果
//
// 仅当连接与协议引擎都可用且结果为 ProtectSuccess 时，
// 调用一次 StartSecureHandshake(svc)。未就绪只记录告警，不返回错误、不重试
func (r *Router) OnProtectionResult(outcome service.ProtectResult, svc service.Type) {
	log := r.logger.WithFields(map[string]interface{}{
		"service": svc.String(),
		"outcome": outcome.String(),
	})
	log.Debug("Protect service result received")
	r.count(metrics.ProtectResultsTotal, map[string]string{"service": svc.String(), "outcome": outcome.String()})

	// 每次调用只读取一次绑定，避免检查与使用之间被替换
	b := r.binding.Load()
	if b == nil {
		log.Warn("Connection is not bound, handshake not started")
		r.notReady(svc, outcome, events.NotReadyNoConnection)
		return
	}

	engine, ok := b.conn.ProtocolEngine()
	if !ok || isNil(engine) {
		log.Warn("Protocol engine is not available, handshake not started")
		r.notReady(svc, outcome, events.NotReadyNoProtocolEngine)
		return
	}

	dispatched := false
	switch outcome {
	case service.ProtectSuccess:
		engine.StartSecureHandshake(svc)
		dispatched = true
		r.count(metrics.HandshakeStartsTotal, map[string]string{"service": svc.String()})
		log.Info("Secure handshake started")
	case service.ProtectRejected,
		service.ProtectUnsupportedService,
		service.ProtectAlreadyProtected:
		// 失败的上报与重试由发起请求的协商层负责
		log.Info("Protect service request did not succeed, handshake not started")
	default:
		log.Errorf("Unrecognized protect result %d, handshake not started", int(outcome))
		r.count(metrics.UnknownOutcomesTotal, map[string]string{"service": svc.String()})
	}

	r.publish(events.NewProtectionResultEvent(svc, outcome, dispatched, ""))
}

// OnHandshakeData 记录并转发某服务的一段握手数据
// 不解析数据，也不会触发 StartSecureHandshake；后续握手由协议引擎推进
func (r *Router) OnHandshakeData(payload service.HandshakePayload, svc service.Type) {
	fields := map[string]interface{}{
		"service": svc.String(),
		"size":    payload.Len(),
	}
	if preview := payload.Preview(r.previewBytes); preview != "" {
		fields["preview"] = preview
	}
	r.logger.WithFields(fields).Debug("Handshake data received")

	labels := map[string]string{"service": svc.String()}
	r.count(metrics.HandshakeDataTotal, labels)
	if r.metrics != nil && payload.Len() > 0 {
		_ = r.metrics.AddCounter(metrics.HandshakeBytesTotal, float64(payload.Len()), labels)
	}

	r.publish(events.NewHandshakeDataEvent(svc, payload))
}

func (r *Router) notReady(svc service.Type, outcome service.ProtectResult, reason string) {
	r.count(metrics.NotReadyTotal, map[string]string{"service": svc.String(), "reason": reason})
	r.publish(events.NewProtectionResultEvent(svc, outcome, false, reason))
}

func (r *Router) count(name string, labels map[string]string) {
	if r.metrics == nil {
		return
	}
	_ = r.metrics.IncrementCounter(name, labels)
}

func (r *Router) setGauge(name string, value float64) {
	if r.metrics == nil {
		return
	}
	_ = r.metrics.SetGauge(name, value, nil)
}

func (r *Router) publish(ev events.Event) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(ev); err != nil {
		r.logger.WithError(err).Debugf("Failed to publish %s event", ev.Type())
	}
}
