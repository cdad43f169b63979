package mobile

import "securesvc-core/internal/secure/service"

// 服务类型编号（与多路复用协议一致）
const (
	ServiceControl = int(service.Control)
	ServiceRPC     = int(service.RPC)
	ServiceAudio   = int(service.Audio)
	ServiceVideo   = int(service.Video)
	ServiceHybrid  = int(service.Hybrid)
)

// 保护服务请求结果编号
const (
	ProtectSuccess            = int(service.ProtectSuccess)
	ProtectRejected           = int(service.ProtectRejected)
	ProtectUnsupportedService = int(service.ProtectUnsupportedService)
	ProtectAlreadyProtected   = int(service.ProtectAlreadyProtected)
)

// ServiceStatus 单个服务的协商诊断信息
type ServiceStatus struct {
	ServiceType    int    `json:"service_type"`
	ServiceName    string `json:"service_name"`
	State          string `json:"state"`
	LastResult     string `json:"last_result"`
	HandshakeLegs  int    `json:"handshake_legs"`
	HandshakeBytes int64  `json:"handshake_bytes"`
	UpdatedMillis  int64  `json:"updated_millis"`
}
