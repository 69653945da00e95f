// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns a chunked plain-text response body into a throttled
// sequence of full-text snapshots.
//
// Each snapshot carries the whole text received so far, never a delta, so a
// display can simply replace what it shows. Non-terminal snapshots are spaced
// at least one interval apart (50ms by default); the terminal snapshot, which
// always equals the complete decoded body, is emitted as soon as the body is
// exhausted regardless of the interval. A body that fails mid-read produces
// an error and no terminal snapshot.
//
// # Usage
//
//	c := stream.NewConsumer(resp.Body)
//	defer c.Close()
//	err := c.Process(ctx, func(s stream.Snapshot) {
//	    display.ReplaceAssistantRegion(render(s.Text))
//	})
package stream
