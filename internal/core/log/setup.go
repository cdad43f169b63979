package log

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	coreerrors "securesvc-core/internal/core/errors"
)

// 输出格式与目标
const (
	FormatText = "text"
	FormatJSON = "json"

	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputFile   = "file"
	OutputNone   = "none"
)

// Config 日志配置
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	Output string `json:"output" yaml:"output"`
	File   string `json:"file" yaml:"file"`
}

var (
	logFileMu      sync.Mutex
	currentLogFile *os.File
)

// Setup 按配置构建 logrus Logger 并设为默认 Logger
func Setup(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	l := logrus.New()

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, coreerrors.Wrapf(err, coreerrors.CodeConfigError, "invalid log level %q", cfg.Level)
		}
		level = parsed
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		return nil, coreerrors.Newf(coreerrors.CodeConfigError, "invalid log format %q", cfg.Format)
	}

	out, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)

	logger := NewLogrusLogger(l)
	SetDefault(logger)
	return logger, nil
}

func openOutput(cfg *Config) (io.Writer, error) {
	output := strings.ToLower(cfg.Output)
	if output == "" && cfg.File != "" {
		output = OutputFile
	}

	switch output {
	case "", OutputStdout:
		return os.Stdout, nil
	case OutputStderr:
		return os.Stderr, nil
	case OutputNone:
		return io.Discard, nil
	case OutputFile:
		if cfg.File == "" {
			return nil, coreerrors.New(coreerrors.CodeConfigError, "log output is file but no file path given")
		}
		if dir := filepath.Dir(cfg.File); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to create log dir %q", dir)
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to open log file %q", cfg.File)
		}
		logFileMu.Lock()
		if currentLogFile != nil {
			_ = currentLogFile.Close()
		}
		currentLogFile = f
		logFileMu.Unlock()
		return f, nil
	default:
		return nil, coreerrors.Newf(coreerrors.CodeConfigError, "invalid log output %q", cfg.Output)
	}
}

// Close 关闭 Setup 打开的日志文件
func Close() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if currentLogFile == nil {
		return nil
	}
	err := currentLogFile.Close()
	currentLogFile = nil
	return err
}
