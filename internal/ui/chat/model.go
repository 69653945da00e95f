// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/scout-tui/internal/model"
	"github.com/jeranaias/scout-tui/internal/ui/styles"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Controller is the chat controller as seen by the UI.
type Controller interface {
	Send(ctx context.Context, text string) error
	NewChat()
	SwitchSession(ctx context.Context, id string) error
	RefreshSessions(ctx context.Context) error
	Cancel()
}

// Authenticator logs the user in and out.
type Authenticator interface {
	Login(token string, isAdmin bool) error
	Logout() error
	Credential() (model.Credential, bool)
}

// Renderer renders assistant markdown for the current width.
type Renderer interface {
	Render(text string) string
	SetWidth(width int)
}

// Options configures the model.
type Options struct {
	Theme    *styles.Theme
	Renderer Renderer
	// SidebarWidth is the session column width; 0 hides the sidebar.
	SidebarWidth int
	// CurrentSession reports the id of the session on screen.
	CurrentSession func() string
	// Changes signals that the local state file changed on disk.
	Changes <-chan struct{}
	KeyMap  KeyMap
}

type screen int

const (
	screenChat screen = iota
	screenLogin
)

// entry is one finished transcript message with its rendered form cached
// per width.
type entry struct {
	msg      model.Message
	rendered string
	width    int
	// prerendered entries hold controller markup and are never re-rendered.
	prerendered bool
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the scout TUI.
type Model struct {
	ctx  context.Context
	ctrl Controller
	auth Authenticator
	opts Options

	theme *styles.Theme
	keys  KeyMap

	width  int
	height int
	screen screen

	// Components
	viewport   viewport.Model
	input      textinput.Model
	loginInput textinput.Model
	spinner    spinner.Model
	help       help.Model

	// Transcript
	entries []entry
	// pending is the rendered in-progress assistant message, if any.
	pending   *string
	composing bool

	inputEnabled bool
	loginAdmin   bool
	// isAdmin mirrors the stored credential; refreshed on login state changes.
	isAdmin bool

	// Sidebar
	sessions    []model.SessionSummary
	cursor      int
	currentID   string
	showSidebar bool

	status    string
	statusErr bool
	showHelp  bool
}

// New creates the model. ctx bounds every controller call it issues; ctrl
// may be attached later with SetController, before the program starts.
func New(ctx context.Context, ctrl Controller, auth Authenticator, opts Options) *Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme("auto")
	}
	if opts.CurrentSession == nil {
		opts.CurrentSession = func() string { return "" }
	}
	if opts.KeyMap.Submit.Keys() == nil {
		opts.KeyMap = DefaultKeyMap()
	}

	input := textinput.New()
	input.Placeholder = "Describe the role you are hiring for..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	login := textinput.New()
	login.Placeholder = "paste your access token"
	login.Prompt = "token: "
	login.EchoMode = textinput.EchoPassword
	login.EchoCharacter = '*'

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = opts.Theme.Spinner

	h := help.New()

	m := &Model{
		ctx:          ctx,
		ctrl:         ctrl,
		auth:         auth,
		opts:         opts,
		theme:        opts.Theme,
		keys:         opts.KeyMap,
		viewport:     viewport.New(0, 0),
		input:        input,
		loginInput:   login,
		spinner:      sp,
		help:         h,
		inputEnabled: true,
		cursor:       -1,
		showSidebar:  opts.SidebarWidth > 0,
	}
	if cred, ok := auth.Credential(); ok {
		m.isAdmin = cred.IsAdmin
	} else {
		m.enterLogin("")
	}
	return m
}

// SetController attaches the controller. It must be called before the
// program starts.
func (m *Model) SetController(ctrl Controller) {
	m.ctrl = ctrl
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.watchCmd()}
	if m.screen == screenChat {
		cmds = append(cmds, m.newChatCmd(), m.refreshCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) enterLogin(status string) {
	m.screen = screenLogin
	m.loginInput.Reset()
	m.loginInput.Focus()
	m.input.Blur()
	m.loginAdmin = false
	m.setStatus(status, status != "")
}

func (m *Model) enterChat() {
	cred, _ := m.auth.Credential()
	m.isAdmin = cred.IsAdmin
	m.screen = screenChat
	m.loginInput.Blur()
	m.loginInput.Reset()
	if m.inputEnabled {
		m.input.Focus()
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}
