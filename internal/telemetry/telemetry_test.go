// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jeranaias/scout-tui/internal/config"
)

func resetGlobals(t *testing.T) {
	t.Cleanup(func() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(noop.NewMeterProvider())
	})
}

func TestSetupDisabled(t *testing.T) {
	dir := t.TempDir()
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{
		Enabled: false,
		Path:    filepath.Join(dir, "traces.log"),
	}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = os.Stat(filepath.Join(dir, "traces.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestSetupRequiresPath(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true}, "test")
	assert.Error(t, err)
}

func TestSetupWritesSpans(t *testing.T) {
	resetGlobals(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "traces.log")

	shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true, Path: path}, "test")
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "chat.exchange")
	span.End()

	counter, err := otel.Meter("telemetry-test").Int64Counter("scout.test.events")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chat.exchange")
	assert.Contains(t, string(data), ServiceName)

	metrics, err := os.ReadFile(MetricsPath(path))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "scout.test.events")
}

func TestMetricsPath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b", "metrics.log"), MetricsPath(filepath.Join("a", "b", "traces.log")))
}
