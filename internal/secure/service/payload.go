package service

import "encoding/hex"

// HandshakePayload 某个服务一段握手数据的原始字节，不做任何解析
type HandshakePayload []byte

// Len 字节数
func (p HandshakePayload) Len() int {
	return len(p)
}

// Preview 返回前 n 字节的十六进制表示，用于日志
func (p HandshakePayload) Preview(n int) string {
	if n <= 0 || len(p) == 0 {
		return ""
	}
	if len(p) <= n {
		return hex.EncodeToString(p)
	}
	return hex.EncodeToString(p[:n]) + "..."
}

// Clone 拷贝一份，转发前使用，避免调用方复用缓冲区
func (p HandshakePayload) Clone() HandshakePayload {
	if p == nil {
		return HandshakePayload{}
	}
	out := make(HandshakePayload, len(p))
	copy(out, p)
	return out
}
