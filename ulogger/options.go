package ulogger

import (
	"io"
	"os"
)

type Options struct {
	loggerType string
	logLevel   string
	writer     io.Writer
	skip       int
}

type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{
		loggerType: "zerolog",
		logLevel:   "INFO",
		writer:     os.Stdout,
		skip:       0,
	}
}

// WithLevel sets the minimum level the logger will emit.
func WithLevel(logLevel string) Option {
	return func(o *Options) {
		o.logLevel = logLevel
	}
}

// WithLoggerType selects the backend: "zerolog" (default) or "gocore".
func WithLoggerType(loggerType string) Option {
	return func(o *Options) {
		o.loggerType = loggerType
	}
}

// WithWriter redirects log output, mainly used in tests.
func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.writer = w
	}
}

// WithSkipFrame adjusts the caller frame reported in log lines.
func WithSkipFrame(skip int) Option {
	return func(o *Options) {
		o.skip = skip
	}
}
