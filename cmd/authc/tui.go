package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	authclient "github.com/goliatone/go-auth-client"
	"github.com/urfave/cli/v3"
)

// UI launches the interactive session manager.
func (r *Runner) UI(ctx context.Context, cmd *cli.Command) error {
	model := newUIModel(ctx, r.manager, r.config.Options())
	p := tea.NewProgram(model)

	// every committed session change re-renders, whatever triggered it
	cancel := r.manager.Store().Subscribe(func(state authclient.SessionState) {
		p.Send(sessionMsg(state))
	})
	defer cancel()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running UI: %w", err)
	}

	return nil
}

// viewState represents the current view in the TUI.
type viewState int

const (
	statusView viewState = iota
	loginFormView
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).MarginBottom(1)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	waitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Italic(true)
)

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	login  key.Binding
	logout key.Binding
	back   key.Binding
	submit key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "log in"),
		),
		logout: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "log out"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.login, k.logout, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.login, k.logout},
		{k.back, k.submit, k.quit},
	}
}

type sessionMsg authclient.SessionState

type loginResultMsg struct {
	state authclient.SessionState
	err   error
}

// uiModel represents the TUI application state. It plays the navigation
// shell role: which view renders is the guard's decision, with the status
// screen treated as a private-only route and the login form as public-only.
type uiModel struct {
	ctx     context.Context
	manager *authclient.Manager
	guard   *authclient.Guard
	view    viewState
	state   authclient.SessionState
	inputs  []textinput.Model
	focus   int
	message string
	busy    bool
	help    help.Model
	keys    keyMap
}

func newUIModel(ctx context.Context, manager *authclient.Manager, cfg authclient.Config) *uiModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	return &uiModel{
		ctx:     ctx,
		manager: manager,
		guard:   authclient.NewGuard(cfg),
		view:    statusView,
		state:   manager.Store().Current(),
		inputs:  []textinput.Model{email, password},
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the one startup verification.
func (m *uiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.start())
}

func (m *uiModel) start() tea.Cmd {
	return func() tea.Msg {
		return sessionMsg(m.manager.Start(m.ctx))
	}
}

func (m *uiModel) submitLogin() tea.Cmd {
	email := m.inputs[0].Value()
	password := m.inputs[1].Value()
	return func() tea.Msg {
		state, err := m.manager.Login(m.ctx, authclient.LoginRequest{
			Email:    email,
			Password: password,
		})
		return loginResultMsg{state: state, err: err}
	}
}

func (m *uiModel) logout() tea.Cmd {
	return func() tea.Msg {
		return sessionMsg(m.manager.Logout(m.ctx))
	}
}

// Update handles incoming messages and updates the model state.
func (m *uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.view {
		case statusView:
			return m.handleStatusKeys(msg)
		case loginFormView:
			return m.handleLoginKeys(msg)
		}

	case sessionMsg:
		m.state = authclient.SessionState(msg)
		m.busy = false
		// a session committed elsewhere can invalidate the login form
		if m.view == loginFormView && !m.loginFormAllowed() {
			m.view = statusView
		}
		return m, nil

	case loginResultMsg:
		m.busy = false
		m.state = msg.state
		if msg.err != nil {
			m.message = authclient.ErrorMessage(msg.err, "login failed")
			return m, nil
		}
		m.message = ""
		m.view = statusView
		return m, nil
	}

	return m, nil
}

func (m *uiModel) handleStatusKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.login):
		if m.loginFormAllowed() {
			m.view = loginFormView
			m.message = ""
			m.focus = 0
			m.inputs[0].Focus()
			m.inputs[1].Blur()
		}
		return m, nil

	case key.Matches(msg, m.keys.logout):
		if m.state.IsAuthenticated() {
			m.busy = true
			return m, m.logout()
		}
		return m, nil
	}

	return m, nil
}

func (m *uiModel) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = statusView
		m.message = ""
		return m, nil

	case key.Matches(msg, m.keys.submit):
		if m.focus == 0 {
			m.focus = 1
			m.inputs[0].Blur()
			m.inputs[1].Focus()
			return m, nil
		}
		m.busy = true
		return m, m.submitLogin()

	case msg.String() == "tab":
		m.focus = (m.focus + 1) % len(m.inputs)
		for i := range m.inputs {
			if i == m.focus {
				m.inputs[i].Focus()
			} else {
				m.inputs[i].Blur()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// View renders the current view.
func (m *uiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("authc"))
	b.WriteString("\n")

	switch m.view {
	case loginFormView:
		b.WriteString(m.inputs[0].View())
		b.WriteString("\n")
		b.WriteString(m.inputs[1].View())
		b.WriteString("\n")
		if m.busy {
			b.WriteString(waitStyle.Render("Logging in..."))
			b.WriteString("\n")
		}
		if m.message != "" {
			b.WriteString(errStyle.Render(m.message))
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("enter submit • esc back • tab switch field"))

	default:
		b.WriteString(m.statusLine())
		b.WriteString("\n")
		if m.message != "" {
			b.WriteString(errStyle.Render(m.message))
			b.WriteString("\n")
		}
		b.WriteString(m.help.View(m.keys))
	}

	b.WriteString("\n")
	return b.String()
}

// loginFormAllowed reports whether the public-only login form may render.
func (m *uiModel) loginFormAllowed() bool {
	return m.guard.Authorize(m.state, authclient.RoutePublicOnly).Action == authclient.ActionRender
}

func (m *uiModel) statusLine() string {
	if m.busy {
		return waitStyle.Render("Checking session...")
	}

	switch m.guard.Authorize(m.state, authclient.RoutePrivateOnly).Action {
	case authclient.ActionLoading:
		return waitStyle.Render("Checking session...")
	case authclient.ActionRender:
		return okStyle.Render(fmt.Sprintf("logged in as %s", m.state.User.DisplayName()))
	default:
		return "not logged in"
	}
}
