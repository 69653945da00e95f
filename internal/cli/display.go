// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/jeranaias/scout-tui/internal/chat"
	"github.com/jeranaias/scout-tui/internal/model"
)

// lineDisplay paints the transcript on a plain stream. Snapshots are
// cumulative, so only the text past what is already on screen is written.
// Text from an inline server error marker on is never written, and a tail
// that could still grow into one is held back until the region closes.
type lineDisplay struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer

	// quiet drops system messages; the caller reports the error itself.
	quiet bool
	// echoUser prints user messages (off when the user just typed them).
	echoUser bool

	open     bool
	printed  string
	latest   string
	sessions []model.SessionSummary
}

func newLineDisplay(out, errOut io.Writer) *lineDisplay {
	return &lineDisplay{out: out, err: errOut}
}

func (d *lineDisplay) AppendMessage(msg model.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeRegionLocked()

	switch msg.Role {
	case model.RoleUser:
		if d.echoUser {
			fmt.Fprintf(d.out, "%s %s\n", userLabelStyle.Render(msg.Role.DisplayName()+":"), msg.Content)
		}
	case model.RoleSystem:
		if !d.quiet {
			fmt.Fprintln(d.err, systemStyle.Render(msg.Content))
		}
	default:
		fmt.Fprintf(d.out, "%s %s\n", assistantLabelStyle.Render(msg.Role.DisplayName()+":"), msg.Content)
	}
}

func (d *lineDisplay) ReplaceAssistantRegion(markup string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		d.open = true
		d.printed = ""
		if !d.quiet {
			fmt.Fprint(d.out, assistantLabelStyle.Render(model.RoleAssistant.DisplayName()+":")+" ")
		}
	}
	d.latest = markup
	d.writeLocked(holdBackMarker(markup))
}

// writeLocked brings the screen up to visible.
func (d *lineDisplay) writeLocked(visible string) {
	switch {
	case strings.HasPrefix(visible, d.printed):
		fmt.Fprint(d.out, visible[len(d.printed):])
	case strings.HasPrefix(d.printed, visible):
		// A shorter re-render; the prefix is already on screen.
		return
	default:
		fmt.Fprint(d.out, "\n"+visible)
	}
	d.printed = visible
}

// cutMarker drops everything from the server error marker on.
func cutMarker(text string) string {
	if i := strings.Index(text, chat.ServerErrorMarker); i >= 0 {
		return text[:i]
	}
	return text
}

// holdBackMarker is cutMarker that also drops a trailing partial marker.
func holdBackMarker(text string) string {
	text = cutMarker(text)
	for n := min(len(chat.ServerErrorMarker)-1, len(text)); n > 0; n-- {
		if strings.HasSuffix(text, chat.ServerErrorMarker[:n]) {
			return text[:len(text)-n]
		}
	}
	return text
}

func (d *lineDisplay) ShowComposingIndicator() {}

func (d *lineDisplay) HideComposingIndicator() {}

func (d *lineDisplay) SetInputEnabled(bool) {}

func (d *lineDisplay) SetSessions(sessions []model.SessionSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions = slices.Clone(sessions)
}

func (d *lineDisplay) ClearTranscript() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeRegionLocked()
}

// Sessions returns the last list the controller published.
func (d *lineDisplay) Sessions() []model.SessionSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sessions)
}

// endExchange terminates a streamed reply with a newline.
func (d *lineDisplay) endExchange() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeRegionLocked()
}

func (d *lineDisplay) closeRegionLocked() {
	if !d.open {
		return
	}
	d.writeLocked(cutMarker(d.latest))
	if !strings.HasSuffix(d.printed, "\n") {
		fmt.Fprintln(d.out)
	}
	d.open = false
	d.printed = ""
	d.latest = ""
}
