package router

import (
	"reflect"

	"securesvc-core/internal/secure/service"
)

// ProtocolEngine 负责握手字节处理的协议引擎
type ProtocolEngine interface {
	// StartSecureHandshake 开始某个服务的安全握手，不阻塞，调用方不等待结果
	StartSecureHandshake(svc service.Type)
}

// Connection 路由绑定的传输连接
// 连接的生命周期由外部控制，协议引擎可能尚未初始化
type Connection interface {
	// ProtocolEngine 返回协议引擎，未初始化时 ok 为 false
	ProtocolEngine() (engine ProtocolEngine, ok bool)
}

// binding 连接绑定快照，整体原子替换
type binding struct {
	conn Connection
}

// isNil 接口本身为 nil，或动态值为 nil 指针/函数等
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// ConnectionFunc 将函数适配为 Connection
type ConnectionFunc func() (ProtocolEngine, bool)

// ProtocolEngine 实现 Connection
func (f ConnectionFunc) ProtocolEngine() (ProtocolEngine, bool) {
	return f()
}

// EngineFunc 将函数适配为 ProtocolEngine
type EngineFunc func(svc service.Type)

// StartSecureHandshake 实现 ProtocolEngine
func (f EngineFunc) StartSecureHandshake(svc service.Type) {
	f(svc)
}
