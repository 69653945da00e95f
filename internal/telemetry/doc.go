// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry installs the OpenTelemetry tracer and meter providers.
//
// When enabled, spans and metrics are written as JSON to rotated files next
// to the log, never to the network. When disabled the global no-op
// providers stay in place and instrumented code pays almost nothing.
//
// # Usage
//
//	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, version)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
//
// Instrumented packages obtain their tracer and meter from the otel globals:
//
//	tracer := otel.Tracer("github.com/jeranaias/scout-tui/internal/chat")
package telemetry
