// Package safe 提供带 panic 恢复的调用封装
//
// 同步调用外部实现（事件处理器、回放任务）时使用，
// panic 转换为 CodeInternal 错误返回，调用方按普通错误处理
package safe

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	coreerrors "securesvc-core/internal/core/errors"
	corelog "securesvc-core/internal/core/log"
)

var (
	totalCalls  atomic.Int64
	panicCount  atomic.Int64
	activeCalls atomic.Int64
)

// Stats 调用统计
type Stats struct {
	Active     int64 // 正在执行的调用数
	Total      int64 // 累计调用数
	PanicCount int64 // 恢复的 panic 次数
}

// GetStats 获取统计信息
func GetStats() Stats {
	return Stats{
		Active:     activeCalls.Load(),
		Total:      totalCalls.Load(),
		PanicCount: panicCount.Load(),
	}
}

// Call 在当前 goroutine 执行 fn，panic 被恢复并作为错误返回
// name 用于日志标识
func Call(name string, fn func() error) (err error) {
	totalCalls.Add(1)
	activeCalls.Add(1)

	defer func() {
		activeCalls.Add(-1)
		if r := recover(); r != nil {
			panicCount.Add(1)
			corelog.Errorf("Safe[%s]: panic recovered: %v\n%s", name, r, debug.Stack())
			err = coreerrors.New(coreerrors.CodeInternal, fmt.Sprintf("panic in %s: %v", name, r)).
				WithDetail("call", name)
		}
	}()
	return fn()
}
