package ui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stockdeck/internal/auth"
)

// signInResultMsg reports the outcome of a sign-in attempt. A successful
// attempt also reaches the guard through the session subscription; this
// message only unlocks or annotates the form.
type signInResultMsg struct{ err error }

type loginModel struct {
	session *auth.Session
	log     *slog.Logger

	email      textinput.Model
	password   textinput.Model
	focus      int
	submitting bool
	errMsg     string
}

func newLoginModel(session *auth.Session, log *slog.Logger) loginModel {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginModel{
		session:  session,
		log:      log,
		email:    email,
		password: password,
	}
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signInResultMsg:
		m.submitting = false
		if msg.err != nil {
			// The form stays editable; the guard keeps us here.
			m.errMsg = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down", "up":
			m.focus = 1 - m.focus
			if m.focus == 0 {
				m.email.Focus()
				m.password.Blur()
			} else {
				m.password.Focus()
				m.email.Blur()
			}
			return m, nil
		case "enter":
			if m.focus == 0 {
				m.focus = 1
				m.email.Blur()
				m.password.Focus()
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	if email == "" || password == "" {
		m.errMsg = "email and password are required"
		return m, nil
	}

	m.submitting = true
	m.errMsg = ""
	session := m.session
	return m, func() tea.Msg {
		err := session.SignIn(context.Background(), email, password)
		return signInResultMsg{err: err}
	}
}

func (m loginModel) view(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("stockdeck"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Sign in to continue"))
	b.WriteString("\n\n")
	b.WriteString("  " + m.email.View() + "\n")
	b.WriteString("  " + m.password.View() + "\n\n")
	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render("  signing in..."))
	case m.errMsg != "":
		b.WriteString(errStyle.Render("  " + m.errMsg))
	default:
		b.WriteString(dimStyle.Render("  enter to sign in"))
	}
	b.WriteString("\n")
	return b.String()
}
