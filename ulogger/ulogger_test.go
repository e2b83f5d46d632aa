package ulogger

import (
	"bytes"
	"testing"

	"github.com/ordishs/gocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToZerolog(t *testing.T) {
	l := New("test")
	require.NotNil(t, l)

	_, ok := l.(*ZLoggerWrapper)
	assert.True(t, ok)
}

func TestNewGoCoreBackend(t *testing.T) {
	l := New("test", WithLoggerType("gocore"))
	require.NotNil(t, l)

	_, ok := l.(*GoCoreLogger)
	assert.True(t, ok)
}

func TestZeroLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	l := NewZeroLogger("test", WithWriter(&buf), WithLevel("DEBUG"))
	assert.Equal(t, int(gocore.DEBUG), l.LogLevel())

	l.SetLogLevel("WARN")
	assert.Equal(t, int(gocore.WARN), l.LogLevel())

	l.SetLogLevel("bogus")
	assert.Equal(t, int(gocore.INFO), l.LogLevel())
}

func TestZeroLoggerNewInheritsLevel(t *testing.T) {
	var buf bytes.Buffer

	l := NewZeroLogger("parent", WithWriter(&buf), WithLevel("ERROR"))

	child := l.New("child")
	require.NotNil(t, child)
	assert.Equal(t, int(gocore.ERROR), child.LogLevel())
}

func TestZeroLoggerHonorsConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer

	l := NewZeroLogger("test", WithWriter(&buf), WithLevel("INFO"))
	l.Infof("writer check %d", 42)

	assert.Contains(t, buf.String(), "writer check 42")
}

func TestTestLoggerImplementsLogger(t *testing.T) {
	var _ Logger = NewTestLogger(t)
}
