package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink closed")
}

type nopExporter struct{}

func (nopExporter) Export(context.Context, []sdklog.Record) error { return nil }
func (nopExporter) Shutdown(context.Context) error                { return nil }
func (nopExporter) ForceFlush(context.Context) error              { return nil }

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelWarn, false)

	log.Info("hidden")
	log.Warn("Move rejected", "game.id", "g1", "move.cell", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Move rejected")
	assert.Contains(t, out, "game.id=g1")
	assert.Contains(t, out, "move.cell=4")
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("game.id", "g1").WithGroup("bot")

	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))

	log.Info("Bot moved", "cell", 4)
	log.Error("Bot failed", "cell", -1)

	assert.Contains(t, a.String(), "Bot moved")
	assert.Contains(t, a.String(), "bot.cell=4")
	assert.Contains(t, a.String(), "game.id=g1")
	assert.NotContains(t, b.String(), "Bot moved")
	assert.Contains(t, b.String(), "Bot failed")
}

func TestMultiHandler_JoinsErrors(t *testing.T) {
	// Given: a failing sink in front of a working one
	var buf bytes.Buffer
	h := NewMultiHandler(
		failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)},
		slog.NewTextHandler(&buf, nil),
	)

	// When: a record is handled
	err := h.Handle(context.Background(), slog.NewRecord(testTime, slog.LevelInfo, "Game created", 0))

	// Then: the error is reported and the working sink still got the record
	assert.EqualError(t, err, "sink closed")
	assert.Contains(t, buf.String(), "Game created")
}

func TestMultiHandler_SkipsDisabledHandlers(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		failingHandler{slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})},
	)

	err := h.Handle(context.Background(), slog.NewRecord(testTime, slog.LevelDebug, "debug record", 0))

	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestNew_OtelSinkDoesNotLowerConsoleLevel(t *testing.T) {
	// Given: a log provider that accepts every record
	prev := global.GetLoggerProvider()
	global.SetLoggerProvider(sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewSimpleProcessor(nopExporter{})),
	))
	t.Cleanup(func() { global.SetLoggerProvider(prev) })

	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, true)

	// When: logging below and at the console level
	log.Debug("Bot considered cells")
	log.Info("Bot moved", "move.cell", 4)

	// Then: the console only shows the record at its level
	out := buf.String()
	assert.NotContains(t, out, "Bot considered cells")
	assert.Contains(t, out, "Bot moved")
}
