package ulogger

import (
	"sync"
	"testing"
)

// TestLogger routes log output through testing.T so that it shows up only
// for failing or verbose test runs.
type TestLogger struct {
	t     *testing.T
	mutex sync.Mutex
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) LogLevel() int {
	return 0
}

func (l *TestLogger) SetLogLevel(level string) {}

func (l *TestLogger) New(service string, options ...Option) Logger {
	return l
}

func (l *TestLogger) Duplicate(options ...Option) Logger {
	return l
}

func (l *TestLogger) Debugf(format string, args ...interface{}) {
	l.logf("[DEBUG] "+format, args...)
}

func (l *TestLogger) Infof(format string, args ...interface{}) {
	l.logf("[INFO] "+format, args...)
}

func (l *TestLogger) Warnf(format string, args ...interface{}) {
	l.logf("[WARN] "+format, args...)
}

func (l *TestLogger) Errorf(format string, args ...interface{}) {
	l.logf("[ERROR] "+format, args...)
}

func (l *TestLogger) Fatalf(format string, args ...interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.t.Fatalf("[FATAL] "+format, args...)
}

func (l *TestLogger) logf(format string, args ...interface{}) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.t.Logf(format, args...)
}
