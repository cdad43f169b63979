package log

import "context"

// safeLogger 吞掉日志后端的 panic，记录日志永远不影响调用方的控制流
type safeLogger struct {
	inner Logger
}

// Safe 包装 Logger，使其永不 panic；nil 时返回 NopLogger
func Safe(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	if _, ok := l.(*safeLogger); ok {
		return l
	}
	if _, ok := l.(NopLogger); ok {
		return l
	}
	return &safeLogger{inner: l}
}

func absorb() {
	_ = recover()
}

func (s *safeLogger) Debug(args ...interface{}) {
	defer absorb()
	s.inner.Debug(args...)
}

func (s *safeLogger) Info(args ...interface{}) {
	defer absorb()
	s.inner.Info(args...)
}

func (s *safeLogger) Warn(args ...interface{}) {
	defer absorb()
	s.inner.Warn(args...)
}

func (s *safeLogger) Error(args ...interface{}) {
	defer absorb()
	s.inner.Error(args...)
}

func (s *safeLogger) Debugf(format string, args ...interface{}) {
	defer absorb()
	s.inner.Debugf(format, args...)
}

func (s *safeLogger) Infof(format string, args ...interface{}) {
	defer absorb()
	s.inner.Infof(format, args...)
}

func (s *safeLogger) Warnf(format string, args ...interface{}) {
	defer absorb()
	s.inner.Warnf(format, args...)
}

func (s *safeLogger) Errorf(format string, args ...interface{}) {
	defer absorb()
	s.inner.Errorf(format, args...)
}

func (s *safeLogger) WithField(key string, value interface{}) (l Logger) {
	defer func() {
		if recover() != nil {
			l = s
		}
	}()
	return &safeLogger{inner: s.inner.WithField(key, value)}
}

func (s *safeLogger) WithFields(fields map[string]interface{}) (l Logger) {
	defer func() {
		if recover() != nil {
			l = s
		}
	}()
	return &safeLogger{inner: s.inner.WithFields(fields)}
}

func (s *safeLogger) WithError(err error) (l Logger) {
	defer func() {
		if recover() != nil {
			l = s
		}
	}()
	return &safeLogger{inner: s.inner.WithError(err)}
}

func (s *safeLogger) WithContext(ctx context.Context) (l Logger) {
	defer func() {
		if recover() != nil {
			l = s
		}
	}()
	return &safeLogger{inner: s.inner.WithContext(ctx)}
}
