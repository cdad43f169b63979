package service

import (
	"strings"

	coreerrors "securesvc-core/internal/core/errors"
)

// ProtectResult 保护服务请求的结果
//
// 这是一个封闭集合：新增取值时必须同时更新 ProtectResults 以及
// 所有对其做 switch 的调用方，不允许依赖 default 分支静默忽略
type ProtectResult int

const (
	ProtectSuccess ProtectResult = iota
	ProtectRejected
	ProtectUnsupportedService
	ProtectAlreadyProtected
)

// ProtectResults 返回封闭集合中的全部取值
func ProtectResults() []ProtectResult {
	return []ProtectResult{
		ProtectSuccess,
		ProtectRejected,
		ProtectUnsupportedService,
		ProtectAlreadyProtected,
	}
}

func (r ProtectResult) String() string {
	switch r {
	case ProtectSuccess:
		return "success"
	case ProtectRejected:
		return "rejected"
	case ProtectUnsupportedService:
		return "unsupported_service"
	case ProtectAlreadyProtected:
		return "already_protected"
	}
	return "unknown"
}

// Known 是否属于封闭集合
func (r ProtectResult) Known() bool {
	for _, v := range ProtectResults() {
		if v == r {
			return true
		}
	}
	return false
}

// ParseProtectResult 按名称解析结果（大小写不敏感，"-" 与 "_" 等价）
func ParseProtectResult(s string) (ProtectResult, error) {
	v := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, r := range ProtectResults() {
		if r.String() == v {
			return r, nil
		}
	}
	return 0, coreerrors.Newf(coreerrors.CodeInvalidParam, "unknown protect result %q", s)
}
