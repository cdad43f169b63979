package metrics

import (
	"errors"
	"sync"
)

var (
	globalMetrics Metrics
	globalMu      sync.RWMutex

	// ErrNilMetrics 当传入 nil Metrics 时返回
	ErrNilMetrics = errors.New("metrics: SetGlobalMetrics called with nil")
)

// SetGlobalMetrics 设置全局 Metrics 实例
func SetGlobalMetrics(m Metrics) error {
	if m == nil {
		return ErrNilMetrics
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
	return nil
}

// GetGlobalMetrics 获取全局 Metrics 实例，未设置时返回 nil
func GetGlobalMetrics() Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// EnsureGlobalMetrics 返回全局实例，未设置时用 create 创建并注册
func EnsureGlobalMetrics(create func() Metrics) Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalMetrics == nil && create != nil {
		globalMetrics = create()
	}
	return globalMetrics
}

// ResetGlobalMetrics 清除全局实例（测试用）
func ResetGlobalMetrics() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = nil
}
