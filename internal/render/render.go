// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant markdown into terminal markup.
//
// Rendering must accept any prefix of a reply: the chat controller renders
// every snapshot of a stream, so unterminated code fences and half-written
// tables are routine input.
package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// Themes accepted by Options.Theme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemePlain = "plain"
)

// DefaultWidth is the word-wrap width used when none is configured.
const DefaultWidth = 80

// Options configures a Renderer.
type Options struct {
	// Width is the word-wrap column; <= 0 uses DefaultWidth.
	Width int
	// Theme is one of the Theme* constants; "" means auto.
	Theme string
	// Profile is the terminal color profile. termenv.Ascii forces plain
	// output.
	Profile termenv.Profile
}

// DetectProfile returns the color profile of stdout, honouring NO_COLOR and
// CLICOLOR_FORCE.
func DetectProfile() termenv.Profile {
	return termenv.EnvColorProfile()
}

// Renderer renders markdown with glamour. It is safe for concurrent use.
type Renderer struct {
	mu    sync.Mutex
	opts  Options
	term  *glamour.TermRenderer
	plain bool
}

// New builds a renderer. If glamour cannot be initialised the renderer
// falls back to plain text.
func New(opts Options) *Renderer {
	r := &Renderer{}
	r.configure(opts)
	return r
}

func (r *Renderer) configure(opts Options) {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Theme == "" {
		opts.Theme = ThemeAuto
	}
	r.opts = opts
	r.term = nil
	r.plain = opts.Theme == ThemePlain || opts.Profile == termenv.Ascii
	if r.plain {
		return
	}

	style := glamour.WithAutoStyle()
	switch opts.Theme {
	case ThemeDark, ThemeLight:
		style = glamour.WithStandardStyle(opts.Theme)
	}
	term, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(opts.Width),
		glamour.WithColorProfile(opts.Profile),
		glamour.WithEmoji(),
	)
	if err != nil {
		r.plain = true
		return
	}
	r.term = term
}

// SetWidth rebuilds the renderer for a new wrap width.
func (r *Renderer) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.opts.Width {
		return
	}
	opts := r.opts
	opts.Width = width
	r.configure(opts)
}

// Width returns the current wrap width.
func (r *Renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Width
}

// Plain reports whether the renderer passes text through unchanged.
func (r *Renderer) Plain() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plain
}

// Render returns the terminal markup for text, or text itself when
// rendering is disabled or fails. Surrounding blank lines are trimmed.
func (r *Renderer) Render(text string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.plain || r.term == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := r.term.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
