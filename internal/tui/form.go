// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/toeirei/keepsake/internal/i18n"
	"github.com/toeirei/keepsake/internal/state"
	"github.com/toeirei/keepsake/internal/strength"
)

// PrefsKey is the store key holding the form's remembered settings.
const PrefsKey = "ui.signup_form"

// formPrefs is what the form remembers between runs. The password is never
// part of it.
type formPrefs struct {
	Email  string `json:"email"`
	Reveal bool   `json:"reveal"`
}

const (
	fieldEmail = iota
	fieldPassword
)

// segmentWidth is the width of one strength meter segment.
const segmentWidth = 6

type formModel struct {
	inputs     []textinput.Model
	focusIndex int
	prefs      *state.Persisted[formPrefs]
	result     strength.Result

	status      string
	statusIsErr bool

	// Swappable for tests.
	copyToClipboard  func(string) error
	generatePassword func() (string, error)
}

func newFormModel(prefs *state.Persisted[formPrefs]) *formModel {
	p := prefs.Get()

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.SetValue(p.Email)

	password := textinput.New()
	password.CharLimit = 128
	password.EchoCharacter = '•'

	m := &formModel{
		inputs:          []textinput.Model{email, password},
		prefs:           prefs,
		copyToClipboard: clipboard.WriteAll,
		generatePassword: func() (string, error) {
			return strength.Generate(strength.DefaultGenerateLength)
		},
	}
	m.applyReveal(p.Reveal)
	m.inputs[fieldEmail].Focus()
	return m
}

func (m *formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *formModel) applyReveal(reveal bool) {
	if reveal {
		m.inputs[fieldPassword].EchoMode = textinput.EchoNormal
	} else {
		m.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	}
}

func (m *formModel) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusIsErr = isErr
}

func (m *formModel) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = (m.focusIndex + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focusIndex].Focus()
}

func (m *formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down", "enter":
			return m, m.moveFocus(1)
		case "shift+tab", "up":
			return m, m.moveFocus(-1)
		case "ctrl+r":
			m.prefs.Update(func(p formPrefs) formPrefs {
				p.Reveal = !p.Reveal
				return p
			})
			reveal := m.prefs.Get().Reveal
			m.applyReveal(reveal)
			if reveal {
				m.setStatus(i18n.T("form.revealed"), false)
			} else {
				m.setStatus(i18n.T("form.hidden"), false)
			}
			return m, nil
		case "ctrl+g":
			pw, err := m.generatePassword()
			if err != nil {
				m.setStatus(err.Error(), true)
				return m, nil
			}
			m.inputs[fieldPassword].SetValue(pw)
			m.result = strength.Classify(pw)
			m.setStatus(i18n.T("form.generated"), false)
			return m, nil
		case "ctrl+y":
			m.copyPassword()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	m.afterInput()
	return m, cmd
}

// afterInput re-derives everything that depends on field contents.
func (m *formModel) afterInput() {
	m.result = strength.Classify(m.inputs[fieldPassword].Value())

	email := m.inputs[fieldEmail].Value()
	if email != m.prefs.Get().Email {
		m.prefs.Update(func(p formPrefs) formPrefs {
			p.Email = email
			return p
		})
	}
}

func (m *formModel) copyPassword() {
	pw := m.inputs[fieldPassword].Value()
	if pw == "" {
		m.setStatus(i18n.T("form.nothing_to_copy"), true)
		return
	}
	if err := m.copyToClipboard(pw); err != nil {
		m.setStatus(i18n.T("form.copy_failed", err), true)
		return
	}
	m.setStatus(i18n.T("form.copied"), false)
}

// levelLabel is the translated name of a strength level.
func levelLabel(l strength.Level) string {
	return i18n.T("strength.level." + l.String())
}

// advisoryText is the translated advisory; TooShort has none.
func advisoryText(l strength.Level) string {
	if l == strength.TooShort {
		return ""
	}
	return i18n.T("strength.advisory." + l.String())
}

// renderMeter draws one colored segment per reached level.
func renderMeter(l strength.Level) string {
	filled := lipgloss.NewStyle().Background(meterColors[l])
	empty := lipgloss.NewStyle().Background(colorEmpty)
	segments := make([]string, 0, int(strength.MaxLevel))
	for i := strength.Weak; i <= strength.MaxLevel; i++ {
		style := empty
		if i <= l {
			style = filled
		}
		segments = append(segments, style.Render(strings.Repeat(" ", segmentWidth)))
	}
	return strings.Join(segments, " ")
}

func (m *formModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(i18n.T("form.title")))
	b.WriteString("\n")

	labels := []string{i18n.T("form.email"), i18n.T("form.password")}
	for i, in := range m.inputs {
		ls := labelStyle
		if i == m.focusIndex {
			ls = focusedLabelStyle
		}
		b.WriteString(ls.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render(i18n.T("strength.label")))
	b.WriteString(renderMeter(m.result.Level))
	b.WriteString(" ")
	b.WriteString(lipgloss.NewStyle().Foreground(meterColors[m.result.Level]).Render(levelLabel(m.result.Level)))
	b.WriteString("\n")
	if adv := advisoryText(m.result.Level); adv != "" {
		b.WriteString(helpStyle.Render(adv))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	var status string
	if m.status != "" {
		if m.statusIsErr {
			status = errorStyle.Render(m.status)
		} else {
			status = successStyle.Render(m.status)
		}
	}
	persistence := i18n.T("form.memory_only")
	if m.prefs.Persistent() {
		persistence = i18n.T("form.remembered")
	}
	b.WriteString(AlignFooter(status, helpStyle.Render(persistence), footerWidth))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(i18n.T("form.help")))
	return docStyle.Render(dialogBoxStyle.Render(b.String()))
}
