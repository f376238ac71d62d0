package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/mindharmony/mindharmony/internal/instrument"
	"github.com/mindharmony/mindharmony/internal/profile"
	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/screen"
	"github.com/mindharmony/mindharmony/internal/screens/admin"
	"github.com/mindharmony/mindharmony/internal/screens/history"
	"github.com/mindharmony/mindharmony/internal/screens/questionnaire"
	"github.com/mindharmony/mindharmony/internal/screens/summary"
	"github.com/mindharmony/mindharmony/internal/store"
	"github.com/mindharmony/mindharmony/internal/ui/components"
	"github.com/mindharmony/mindharmony/internal/ui/layout"
)

// Deps are the services reachable from the home menu.
type Deps struct {
	Profiles  *profile.Service
	Reports   *report.Store
	Advisor   *report.Advisor
	Results   store.ResultRepo
	ExportDir string

	// AdvisoryConfigured is false when no provider or endpoint is set.
	AdvisoryConfigured bool
	// LatestVersion is a newer release tag, or "".
	LatestVersion string

	// SignedOut builds the screen shown after logout.
	SignedOut func() screen.Screen
}

type logoutFailedMsg struct {
	Err error
}

// HomeScreen is the main menu for a consented user.
type HomeScreen struct {
	user       *profile.Profile
	deps       Deps
	menu       components.Menu
	menuLabels []string
	errMsg     string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen for user. The report store is started for
// the user unless it already holds their report.
func New(user *profile.Profile, deps Deps) *HomeScreen {
	if deps.Reports == nil {
		deps.Reports = report.NewStore()
	}
	if cur := deps.Reports.Current(); cur == nil || cur.Owner != user.Nickname {
		deps.Reports.Create(user.Nickname)
	}

	h := &HomeScreen{user: user, deps: deps}

	var items []components.MenuItem
	add := func(label string, action func() tea.Cmd) {
		items = append(items, components.MenuItem{Label: label, Action: action})
		h.menuLabels = append(h.menuLabels, label)
	}

	for _, s := range instrument.All() {
		schema := s
		add(schema.Title, func() tea.Cmd {
			return push(questionnaire.New(schema, h.deps.Reports, h.deps.Results, h.summaryScreen))
		})
	}
	add("查看报告", func() tea.Cmd {
		return push(h.summaryScreen(h.deps.Reports.Current()))
	})
	add("历史记录", func() tea.Cmd {
		return push(history.New(h.deps.Results))
	})
	if user.IsAdmin {
		add("管理员面板", func() tea.Cmd {
			return push(admin.New(h.deps.Results))
		})
	}
	add("退出登录", h.logout)
	add("退出程序", func() tea.Cmd { return tea.Quit })

	h.menu = components.NewMenu(items)
	return h
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) summaryScreen(r *report.Report) screen.Screen {
	return summary.New(r, summary.Deps{
		Reports:   h.deps.Reports,
		Advisor:   h.deps.Advisor,
		ExportDir: h.deps.ExportDir,
	})
}

// logout clears the stored profile and the in-memory report, then starts
// over at the signed-out screen.
func (h *HomeScreen) logout() tea.Cmd {
	profiles, reports, next := h.deps.Profiles, h.deps.Reports, h.deps.SignedOut
	return func() tea.Msg {
		if profiles != nil {
			if err := profiles.Logout(context.Background()); err != nil {
				return logoutFailedMsg{Err: err}
			}
		}
		reports.Logout()
		if next == nil {
			return tea.QuitMsg{}
		}
		return router.ResetScreenMsg{Screen: next()}
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "主页"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "选择"},
		{Key: "Enter", Description: "确认"},
		{Key: "Ctrl+C", Description: "退出"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(logoutFailedMsg); ok {
		h.errMsg = m.Err.Error()
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 24 || width < 90
	cw := components.ContentWidth(width)

	completed := 0
	if cur := h.deps.Reports.Current(); cur != nil {
		completed = cur.Len()
	}

	var sections []string
	sections = append(sections, renderGreeting(h.user.Nickname, cw, compact))
	sections = append(sections, renderStatusBar(completed, h.user.IsAdmin, cw))
	if !h.deps.AdvisoryConfigured {
		sections = append(sections, renderAdvisoryBanner(cw))
	}
	if compact {
		sections = append(sections, renderMenuCompact(h.menuLabels, h.menu.Selected, cw))
	} else {
		sections = append(sections, renderMenu(h.menuLabels, h.menu.Selected, cw))
	}
	if h.errMsg != "" {
		sections = append(sections, renderError(h.errMsg, cw))
	}
	if h.deps.LatestVersion != "" {
		sections = append(sections, renderUpdateNote(h.deps.LatestVersion, cw))
	}

	return components.Center(strings.Join(sections, "\n\n"), width, height)
}

// User returns the signed-in profile.
func (h *HomeScreen) User() *profile.Profile {
	return h.user
}
