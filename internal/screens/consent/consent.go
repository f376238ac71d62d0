// Package consent implements the disclaimer form that creates the local
// session record.
package consent

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/profile"
	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/screen"
	"github.com/mindharmony/mindharmony/internal/ui/components"
	"github.com/mindharmony/mindharmony/internal/ui/layout"
	"github.com/mindharmony/mindharmony/internal/ui/theme"
)

// Form text.
const (
	PrivacyNote      = "只有汇总分数会匿名发送给 AI 助手用于生成建议。"
	AgreeLabel       = "我明白这并非医疗诊断，并同意上述隐私条款。"
	SubmitLabel      = "进入测评"
	nicknameRequired = "请输入昵称。"
	termsRequired    = "请先勾选同意条款。"
)

type field int

const (
	fieldNickname field = iota
	fieldStudentID
	fieldAgree
	fieldSubmit
	fieldCount
)

// profileSavedMsg reports the outcome of persisting the profile.
type profileSavedMsg struct {
	Profile *profile.Profile
	Err     error
}

// ConsentScreen collects a nickname, an optional student id and the
// user's agreement.
type ConsentScreen struct {
	profiles *profile.Service
	onAccept func(*profile.Profile) screen.Screen

	nickname  components.TextInput
	studentID components.TextInput
	agreed    bool
	focus     field
	saving    bool
	errMsg    string
}

var _ screen.Screen = (*ConsentScreen)(nil)
var _ screen.KeyHintProvider = (*ConsentScreen)(nil)

// New creates the form. onAccept builds the screen shown once the profile
// is saved; it replaces the whole stack.
func New(profiles *profile.Service, onAccept func(*profile.Profile) screen.Screen) *ConsentScreen {
	return &ConsentScreen{
		profiles:  profiles,
		onAccept:  onAccept,
		nickname:  components.NewTextInput("昵称 *", "怎么称呼你？", 32),
		studentID: components.NewTextInput("学号（可选）", "仅供您个人记录使用", 32),
	}
}

func (s *ConsentScreen) Init() tea.Cmd {
	return s.nickname.Focus()
}

func (s *ConsentScreen) Title() string {
	return "知情同意"
}

func (s *ConsentScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "下一项"},
		{Key: "Space", Description: "勾选"},
		{Key: "Enter", Description: "确认"},
		{Key: "Ctrl+C", Description: "退出"},
	}
}

func (s *ConsentScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profileSavedMsg:
		s.saving = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		next := s.onAccept(msg.Profile)
		return s, func() tea.Msg { return router.ResetScreenMsg{Screen: next} }

	case tea.KeyMsg:
		if s.saving {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.setFocus((s.focus + 1) % fieldCount)
		case "shift+tab", "up":
			return s, s.setFocus((s.focus + fieldCount - 1) % fieldCount)
		case "space":
			if s.focus == fieldAgree {
				s.agreed = !s.agreed
				return s, nil
			}
		case "enter":
			switch s.focus {
			case fieldAgree:
				s.agreed = !s.agreed
				return s, nil
			case fieldSubmit:
				return s, s.submit()
			default:
				return s, s.setFocus(s.focus + 1)
			}
		}
	}

	var cmd tea.Cmd
	switch s.focus {
	case fieldNickname:
		s.nickname, cmd = s.nickname.Update(msg)
	case fieldStudentID:
		s.studentID, cmd = s.studentID.Update(msg)
	}
	return s, cmd
}

func (s *ConsentScreen) setFocus(f field) tea.Cmd {
	s.focus = f
	s.nickname.Blur()
	s.studentID.Blur()
	switch f {
	case fieldNickname:
		return s.nickname.Focus()
	case fieldStudentID:
		return s.studentID.Focus()
	}
	return nil
}

func (s *ConsentScreen) submit() tea.Cmd {
	p, err := profile.New(s.nickname.Value(), s.studentID.Value(), s.agreed)
	switch {
	case errors.Is(err, profile.ErrNicknameRequired):
		s.errMsg = nicknameRequired
		return s.setFocus(fieldNickname)
	case errors.Is(err, profile.ErrTermsNotAccepted):
		s.errMsg = termsRequired
		s.focus = fieldAgree
		return nil
	case err != nil:
		s.errMsg = err.Error()
		return nil
	}

	s.errMsg = ""
	s.saving = true
	profiles := s.profiles
	return func() tea.Msg {
		if err := profiles.Save(context.Background(), p); err != nil {
			return profileSavedMsg{Err: err}
		}
		return profileSavedMsg{Profile: p}
	}
}

func (s *ConsentScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	var b strings.Builder

	b.WriteString(theme.Title.Width(cw).Render("欢迎使用 MindHarmony"))
	b.WriteString("\n\n")

	disclaimer := lipgloss.NewStyle().Foreground(theme.Text).Width(cw - 6).Render(instrument.Disclaimer)
	b.WriteString(components.AccentCard(disclaimer, "#f59e0b", cw))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(PrivacyNote))
	b.WriteString("\n\n")

	b.WriteString(s.nickname.View())
	b.WriteString("\n\n")
	b.WriteString(s.studentID.View())
	b.WriteString("\n\n")

	box := "[ ]"
	if s.agreed {
		box = "[✓]"
	}
	agreeStyle := lipgloss.NewStyle().Foreground(theme.Text)
	if s.focus == fieldAgree {
		agreeStyle = theme.Selected
	}
	b.WriteString(agreeStyle.Render(box + " " + AgreeLabel))
	b.WriteString("\n\n")

	b.WriteString(components.NewButton(SubmitLabel, s.focus == fieldSubmit, nil).View())

	if s.saving {
		b.WriteString("\n\n" + theme.Hint.Render("正在保存..."))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n" + theme.Warning.Render(s.errMsg))
	}

	return components.Center(b.String(), width, height)
}
