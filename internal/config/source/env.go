package source

import (
	"os"
	"strconv"

	"securesvc-core/internal/config/schema"
)

// EnvSource loads configuration from environment variables
type EnvSource struct {
	prefix string
}

// NewEnvSource creates a new EnvSource with the specified prefix
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{
		prefix: prefix,
	}
}

// Name returns the source name
func (s *EnvSource) Name() string {
	return "env"
}

// Priority returns the source priority
func (s *EnvSource) Priority() int {
	return PriorityEnv
}

// LoadInto loads environment variables into the config structure
func (s *EnvSource) LoadInto(cfg *schema.Root) error {
	s.loadString("LOG_LEVEL", &cfg.Log.Level)
	s.loadString("LOG_FORMAT", &cfg.Log.Format)
	s.loadString("LOG_OUTPUT", &cfg.Log.Output)
	s.loadString("LOG_FILE", &cfg.Log.File)

	s.loadInt("ROUTER_PAYLOAD_PREVIEW_BYTES", &cfg.Router.PayloadPreviewBytes)
	s.loadBool("ROUTER_PUBLISH_EVENTS", &cfg.Router.PublishEvents)
	s.loadBool("ROUTER_METRICS", &cfg.Router.Metrics)

	s.loadBool("DIAGNOSTICS_ENABLED", &cfg.Diagnostics.Enabled)
	s.loadInt("DIAGNOSTICS_HISTORY_SIZE", &cfg.Diagnostics.HistorySize)

	return nil
}

func (s *EnvSource) getEnv(key string) (string, bool) {
	prefixedKey := key
	if s.prefix != "" {
		prefixedKey = s.prefix + "_" + key
	}
	if v := os.Getenv(prefixedKey); v != "" {
		return v, true
	}
	return "", false
}

func (s *EnvSource) loadString(key string, target *string) {
	if v, ok := s.getEnv(key); ok {
		*target = v
	}
}

func (s *EnvSource) loadBool(key string, target *bool) {
	if v, ok := s.getEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func (s *EnvSource) loadInt(key string, target *int) {
	if v, ok := s.getEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}
