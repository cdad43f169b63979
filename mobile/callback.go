package mobile

// ProtocolEngine 协议引擎，由 Android/iOS 实现
type ProtocolEngine interface {
	// StartSecureHandshake 开始指定服务的安全握手，不应阻塞
	StartSecureHandshake(serviceType int)
}

// Connection 传输连接，由 Android/iOS 实现
type Connection interface {
	// GetProtocolEngine 返回协议引擎，尚未初始化时返回 nil
	GetProtocolEngine() ProtocolEngine
}

// HandshakeListener 握手数据监听，由 Android/iOS 实现（可选）
//
// 在调用 OnHandshakeResponse 的线程上同步回调，实现必须立即返回；
// 需要耗时处理时应自行切换到其他线程
type HandshakeListener interface {
	// OnHandshakeData 收到一段握手数据，不得阻塞
	// serviceType: 服务类型编号
	// data: 握手数据拷贝
	OnHandshakeData(serviceType int, data []byte)
}
