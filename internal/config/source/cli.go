package source

import "securesvc-core/internal/config/schema"

// CLISource applies command line overrides; empty fields are left untouched
type CLISource struct {
	LogLevel string
	LogFile  string
}

// Name returns the source name
func (s *CLISource) Name() string {
	return "cli"
}

// Priority returns the source priority
func (s *CLISource) Priority() int {
	return PriorityCLI
}

// LoadInto applies the overrides
func (s *CLISource) LoadInto(cfg *schema.Root) error {
	if s.LogLevel != "" {
		cfg.Log.Level = s.LogLevel
	}
	if s.LogFile != "" {
		cfg.Log.File = s.LogFile
		cfg.Log.Output = "file"
	}
	return nil
}
