package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_HasComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelDebug, "text", &buf)

	New("engine").Info("hello")

	assert.Contains(t, buf.String(), "component=engine")
	assert.Contains(t, buf.String(), "hello")
}

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(slog.LevelInfo, "json", &buf)

	New("json-test").Info("json check")

	assert.Contains(t, buf.String(), `"level":"INFO"`)
	assert.Contains(t, buf.String(), `"component":"json-test"`)
}

func TestInit_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelTrace, "text", &buf)

	New("trace").Log(context.Background(), LevelTrace, "per key")
	assert.Contains(t, buf.String(), "level=TRACE")

	buf.Reset()
	Init(slog.LevelInfo, "text", &buf)
	New("trace").Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"error": slog.LevelError,
		"WARN":  slog.LevelWarn,
		"Debug": slog.LevelDebug,
		"TRACE": LevelTrace,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
