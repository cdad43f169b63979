// Package schema defines the strongly-typed configuration structure
package schema

import corelog "securesvc-core/internal/core/log"

// Root is the top-level configuration
type Root struct {
	Log         corelog.Config    `yaml:"log" json:"log"`
	Router      RouterConfig      `yaml:"router" json:"router"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" json:"diagnostics"`
}

// RouterConfig contains secure service router settings
type RouterConfig struct {
	PayloadPreviewBytes int  `yaml:"payload_preview_bytes" json:"payload_preview_bytes"` // 0 disables payload preview in logs
	PublishEvents       bool `yaml:"publish_events" json:"publish_events"`               // forward results and handshake data to the event bus
	Metrics             bool `yaml:"metrics" json:"metrics"`                             // collect in-memory counters
}

// DiagnosticsConfig contains negotiation history settings
type DiagnosticsConfig struct {
	Enabled     bool `yaml:"enabled" json:"enabled"`
	HistorySize int  `yaml:"history_size" json:"history_size"` // max services tracked
}
