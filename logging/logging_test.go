package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		" error ": ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDefaultLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	child := logger.WithFields(Fields{"component": "esc_target", "motors": 4})
	child.Debug("hidden")
	assert.Empty(t, buf.String())

	child.Info("merged average", Fields{"samples": 12})
	out := buf.String()
	assert.Contains(t, out, "[INFO] merged average")
	assert.Contains(t, out, "component=esc_target")
	assert.Contains(t, out, "motors=4")
	assert.Contains(t, out, "samples=12")

	// level is shared with children
	logger.SetLevel(DebugLevel)
	buf.Reset()
	child.Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] now visible")
}

func TestDefaultLoggerError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)
	logger.Error(errors.New("boom"), "fft failed")
	assert.Contains(t, buf.String(), "[ERROR] fft failed: boom")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf)

	ctx := ContextWithFields(context.Background(), Fields{"request": 7})
	logger.WithContext(ctx).Info("run")
	assert.Contains(t, buf.String(), "request=7")

	buf.Reset()
	logger.WithContext(context.Background()).Info("plain")
	assert.NotContains(t, buf.String(), "request")
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
	Info("discarded")
}
