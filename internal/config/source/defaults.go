package source

import (
	"securesvc-core/internal/config/schema"
	corelog "securesvc-core/internal/core/log"
)

// DefaultSource provides default configuration values
type DefaultSource struct{}

// NewDefaultSource creates a new DefaultSource
func NewDefaultSource() *DefaultSource {
	return &DefaultSource{}
}

// Name returns the source name
func (s *DefaultSource) Name() string {
	return "defaults"
}

// Priority returns the source priority
func (s *DefaultSource) Priority() int {
	return PriorityDefaults
}

// LoadInto loads default values into the configuration
func (s *DefaultSource) LoadInto(cfg *schema.Root) error {
	cfg.Log.Level = "info"
	cfg.Log.Format = corelog.FormatText
	cfg.Log.Output = corelog.OutputStderr
	cfg.Log.File = ""

	cfg.Router.PayloadPreviewBytes = 16
	cfg.Router.PublishEvents = true
	cfg.Router.Metrics = true

	cfg.Diagnostics.Enabled = true
	cfg.Diagnostics.HistorySize = 64

	return nil
}

// GetDefaultConfig returns a fresh config populated with defaults
func GetDefaultConfig() *schema.Root {
	cfg := &schema.Root{}
	_ = NewDefaultSource().LoadInto(cfg)
	return cfg
}
