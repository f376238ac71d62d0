package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/ui/theme"
)

// Likert is a single-select list over a question's answer options.
// Choosing an option emits a LikertChosenMsg; the component holds no
// answer state of its own beyond the highlighted row.
type Likert struct {
	Options []instrument.Option
	Cursor  int
	// Current is the value already stored for the question, or Unset.
	Current int
}

// LikertChosenMsg reports the value of the chosen option.
type LikertChosenMsg struct {
	Value int
}

// NewLikert creates a selector positioned on the stored answer, if any.
func NewLikert(options []instrument.Option, current int) Likert {
	l := Likert{Options: options, Current: current}
	for i, o := range options {
		if o.Value == current {
			l.Cursor = i
			break
		}
	}
	return l
}

// Update handles arrow navigation, enter, and the digit shortcuts 0-3.
func (l Likert) Update(msg tea.Msg) (Likert, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if l.Cursor > 0 {
			l.Cursor--
		}
	case "down", "j":
		if l.Cursor < len(l.Options)-1 {
			l.Cursor++
		}
	case "enter", "space":
		if l.Cursor < len(l.Options) {
			return l, choose(l.Options[l.Cursor].Value)
		}
	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
			v := int(key[0] - '0')
			for i, o := range l.Options {
				if o.Value == v {
					l.Cursor = i
					return l, choose(v)
				}
			}
		}
	}
	return l, nil
}

func choose(v int) tea.Cmd {
	return func() tea.Msg { return LikertChosenMsg{Value: v} }
}

// View renders the options, marking the stored answer with a check.
func (l Likert) View() string {
	var s string
	for i, o := range l.Options {
		prefix := "  "
		if i == l.Cursor {
			prefix = "▸ "
		}
		mark := "  "
		if o.Value == l.Current {
			mark = " ✓"
		}
		line := fmt.Sprintf("%s%d  %s%s", prefix, o.Value, o.Label, mark)

		switch {
		case i == l.Cursor:
			s += lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(line) + "\n"
		case o.Value == l.Current:
			s += theme.Answered.Render(line) + "\n"
		default:
			s += lipgloss.NewStyle().Foreground(theme.Text).Render(line) + "\n"
		}
	}
	return s
}
