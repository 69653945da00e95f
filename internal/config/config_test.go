// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SCOUT_HOME", dir)
	for _, k := range []string{"SCOUT_SERVER_URL", "SCOUT_STATE_PATH", "SCOUT_LOG_LEVEL", "SCOUT_THROTTLE_MS", "SCOUT_TELEMETRY"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50*time.Millisecond, cfg.Stream.Interval())
	assert.Equal(t, filepath.Join(dir, "state.db"), cfg.Storage.StatePath)
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Server.URL)
}

func TestLoad_TOMLPartialFileKeepsDefaults(t *testing.T) {
	dir := isolate(t)

	content := "[server]\nurl = \"https://scout.example.com/\"\n\n[stream]\nthrottle_ms = 100\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://scout.example.com", cfg.Server.URL, "trailing slash is trimmed")
	assert.Equal(t, 100, cfg.Stream.ThrottleMs)
	assert.Equal(t, 30, cfg.Server.TimeoutSecs)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)

	content := `{"server": {"url": "http://10.0.0.5:8000"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.Server.URL)
}

func TestLoad_InvalidFileFails(t *testing.T) {
	dir := isolate(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server]\nurl = \"ftp://nope\"\n"), 0600))

	_, err := Load()
	require.Error(t, err)

	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "server.url", verrs[0].Field)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SCOUT_SERVER_URL", "https://override.example.com")
	t.Setenv("SCOUT_THROTTLE_MS", "75")
	t.Setenv("SCOUT_TELEMETRY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", cfg.Server.URL)
	assert.Equal(t, 75, cfg.Stream.ThrottleMs)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	isolate(t)

	cfg := Default()
	cfg.Server.TimeoutSecs = 0
	cfg.Stream.ThrottleMs = 0
	cfg.Log.Level = "loud"
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 4)
}

func TestSaveTOML_RoundTripAndPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Server.URL = "https://saved.example.com"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0600 && os.PathSeparator == '/' {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com", loaded.Server.URL)
}

func TestGetSet_DotNotation(t *testing.T) {
	isolate(t)
	cfg := Default()

	require.NoError(t, cfg.Set("stream.throttle_ms", "120"))
	v, err := cfg.Get("stream.throttle_ms")
	require.NoError(t, err)
	assert.Equal(t, 120, v)

	require.NoError(t, cfg.Set("telemetry.enabled", "yes"))
	assert.True(t, cfg.Telemetry.Enabled)

	require.NoError(t, cfg.Set("ui.theme", "dark"))
	assert.Equal(t, "dark", cfg.UI.Theme)

	assert.Error(t, cfg.Set("server.nope", "x"))
	assert.Error(t, cfg.Set("server", "x"), "sections cannot be assigned")
	assert.Error(t, cfg.Set("stream.throttle_ms", "fast"))
}

func TestStreamReadBuffer(t *testing.T) {
	isolate(t)
	cfg := Default()
	assert.Equal(t, 4096, cfg.Stream.ReadBufferBytes)

	cfg.Stream.ReadBufferBytes = 0
	cfg.SetDefaults()
	assert.Equal(t, 4096, cfg.Stream.ReadBufferBytes)

	require.NoError(t, cfg.Set("stream.read_buffer_bytes", "16"))
	err := cfg.Validate()
	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "stream.read_buffer_bytes", verrs[0].Field)
}

func TestGetAllKeys_Resolve(t *testing.T) {
	isolate(t)
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}
