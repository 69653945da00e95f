// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/scout-tui/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"chatty", zapcore.InfoLevel, true},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNew_WritesToFileAndStderr(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LogConfig{
		Level:     "info",
		Path:      filepath.Join(dir, "logs", "scout.log"),
		MaxSizeMB: 1,
	}
	var stderr bytes.Buffer

	logger, closeFn, err := New(cfg, Options{Stderr: &stderr})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("SESSION_LOADED", zap.String("session_id", "abc"))
	logger.Warn("STREAM_FAILED")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"SESSION_LOADED"`)
	assert.Contains(t, string(data), `"session_id":"abc"`)
	assert.NotContains(t, string(data), "hidden")

	assert.Contains(t, stderr.String(), "STREAM_FAILED")
	assert.NotContains(t, stderr.String(), "SESSION_LOADED")
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	cfg := config.LogConfig{Level: "error", Path: filepath.Join(t.TempDir(), "scout.log")}

	logger, closeFn, err := New(cfg, Options{Verbose: true})
	require.NoError(t, err)
	logger.Debug("DEBUG_VISIBLE")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG_VISIBLE")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
