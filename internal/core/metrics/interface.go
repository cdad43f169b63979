// Package metrics 提供路由诊断用的指标收集
package metrics

// Metrics 指标收集接口
// 单进程使用内存实现，接口形状与 Prometheus 的 counter/gauge 对齐
type Metrics interface {
	IncrementCounter(name string, labels map[string]string) error
	AddCounter(name string, value float64, labels map[string]string) error
	GetCounter(name string, labels map[string]string) (float64, error)

	SetGauge(name string, value float64, labels map[string]string) error
	GetGauge(name string, labels map[string]string) (float64, error)

	Close() error
}

// 路由使用的指标名
const (
	ProtectResultsTotal  = "secure_router_protect_results_total"
	NotReadyTotal        = "secure_router_not_ready_total"
	HandshakeStartsTotal = "secure_router_handshake_starts_total"
	UnknownOutcomesTotal = "secure_router_unknown_outcomes_total"
	HandshakeDataTotal   = "secure_router_handshake_data_total"
	HandshakeBytesTotal  = "secure_router_handshake_bytes_total"
	ConnectionBoundGauge = "secure_router_connection_bound"
)
