// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes session transcripts to files.
//
// # Supported Formats
//
//   - Markdown: human-readable, with an optional YAML front matter block
//   - JSON: the session exactly as the server returned it
//
// # Usage
//
//	exp, err := export.ForFormat("md", export.DefaultOptions())
//	path, err := export.ToFile(session, exp, opts)
package export
