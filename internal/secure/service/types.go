// Package service 定义安全服务握手的结果模型
// 只包含值类型，不包含任何行为
package service

import (
	"fmt"
	"strconv"
	"strings"

	coreerrors "securesvc-core/internal/core/errors"
)

// Type 多路复用连接上的逻辑服务标识
// 对路由而言是不透明的值，仅用于按值比较
type Type uint8

// 已知服务类型（与多路复用协议的服务编号一致）
const (
	Control Type = 0x00
	RPC     Type = 0x07
	Audio   Type = 0x0A
	Video   Type = 0x0B
	Hybrid  Type = 0x0F // RPC + 批量数据
)

var typeNames = map[Type]string{
	Control: "control",
	RPC:     "rpc",
	Audio:   "audio",
	Video:   "video",
	Hybrid:  "hybrid",
}

// Types 返回所有已知服务类型
func Types() []Type {
	return []Type{Control, RPC, Audio, Video, Hybrid}
}

// String 返回服务名，未知类型按十六进制编号输出
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("service(0x%02x)", uint8(t))
}

// ParseType 解析服务名或数字编号（"video"、"0x0b"、"11"）
func ParseType(s string) (Type, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0, coreerrors.New(coreerrors.CodeInvalidParam, "service type is empty")
	}
	for t, name := range typeNames {
		if name == v {
			return t, nil
		}
	}
	n, err := strconv.ParseUint(v, 0, 8)
	if err != nil {
		return 0, coreerrors.Wrapf(err, coreerrors.CodeInvalidParam, "unknown service type %q", s)
	}
	return Type(n), nil
}
