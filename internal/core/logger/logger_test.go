package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuild_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	l, sync := Build(Options{Level: "warn", JSON: true, Output: zapcore.AddSync(&buf)})
	l.Info("dropped")
	l.Warn("kept", zap.String("key", "user:1"))
	sync()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "user:1", entry["key"])
	assert.Contains(t, entry, "ts")
}

func TestBuild_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, _ := Build(Options{Level: "loud", JSON: true, Output: zapcore.AddSync(&buf)})
	l.Debug("dropped")
	l.Info("kept")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, _ := Build(Options{Level: "debug", JSON: true, Output: zapcore.AddSync(&buf)})

	_, err := fmt.Fprintln(ToWriter(l, zapcore.InfoLevel), "[GIN-debug] route")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"[GIN-debug] route"`)
}

func TestNewWithRotate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	l, sync := NewWithRotate("info", true, FileRotate{Enable: true, Filename: file, MaxSizeMB: 1})
	l.Info("to file")
	sync()
	assert.FileExists(t, file)
}
