package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("builds a logger with the default level", func(t *testing.T) {
		var buf bytes.Buffer

		l, err := New(WithOutput(&buf))
		require.NoError(t, err)
		require.NotNil(t, l)

		l.Debugw("hidden")
		l.Infow("visible", "network", "bitcoin")
		require.NoError(t, l.Sync())

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 1, "debug entries should be filtered at info level")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(lines[0], &entry))
		assert.Equal(t, "visible", entry["msg"])
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "bitcoin", entry["network"])
		assert.Contains(t, entry, "timestamp")
	})

	t.Run("honors a custom level", func(t *testing.T) {
		var buf bytes.Buffer

		l, err := New(WithLevel("debug"), WithOutput(&buf))
		require.NoError(t, err)

		l.Debugw("shown")
		require.NoError(t, l.Sync())

		assert.Contains(t, buf.String(), `"msg":"shown"`)
	})

	t.Run("derived loggers carry their fields", func(t *testing.T) {
		var buf bytes.Buffer

		l, err := New(WithOutput(&buf))
		require.NoError(t, err)

		l.With("network", "litecoin").Warnw("connection closed", "feed.generation", 2)
		require.NoError(t, l.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
		assert.Equal(t, "litecoin", entry["network"])
		assert.EqualValues(t, 2, entry["feed.generation"])
	})

	t.Run("returns an error for an invalid level", func(t *testing.T) {
		l, err := New(WithLevel("loud"))
		assert.Error(t, err)
		assert.Nil(t, l)
	})
}

func TestNop(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.Infow("discarded") })
}

func TestOptions(t *testing.T) {
	cfg := &config{}

	WithLevel("error")(cfg)
	WithName("scope")(cfg)

	assert.Equal(t, "error", cfg.level)
	assert.Equal(t, "scope", cfg.name)
}

// recordingExporter keeps the message of every exported log record.
type recordingExporter struct {
	mu       sync.Mutex
	messages []string
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.messages = append(e.messages, r.Body().AsString())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) exported() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.messages...)
}

func TestOtelCore(t *testing.T) {
	t.Run("forwards only records at or above the configured level", func(t *testing.T) {
		exporter := &recordingExporter{}
		lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
		t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

		l := zap.New(otelCore("hosewatch", lp, zapcore.InfoLevel))

		l.Debug("feed state changed")
		l.Info("subscribed to address feed")
		l.Warn("feed connection closed, reconnecting")

		assert.Equal(t, []string{"subscribed to address feed", "feed connection closed, reconnecting"}, exporter.exported())
	})

	t.Run("forwards debug records at debug level", func(t *testing.T) {
		exporter := &recordingExporter{}
		lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
		t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

		l := zap.New(otelCore("hosewatch", lp, zapcore.DebugLevel))

		l.Debug("feed state changed")

		assert.Equal(t, []string{"feed state changed"}, exporter.exported())
	})
}
