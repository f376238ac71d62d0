package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/profile"
	"github.com/mindharmony/mindharmony/internal/report"
	"github.com/mindharmony/mindharmony/internal/router"
	"github.com/mindharmony/mindharmony/internal/screen"
	"github.com/mindharmony/mindharmony/internal/screens/consent"
	"github.com/mindharmony/mindharmony/internal/screens/home"
	"github.com/mindharmony/mindharmony/internal/screens/welcome"
	"github.com/mindharmony/mindharmony/internal/store"
	"github.com/mindharmony/mindharmony/internal/ui/layout"
)

// Deps holds the services the TUI runs on.
type Deps struct {
	Store   *store.Store
	Reports *report.Store
	// Advisor may be nil; reports then show no analysis.
	Advisor            *report.Advisor
	AdvisoryConfigured bool
	ExportDir          string
	LatestVersion      string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	user   string
	width  int
	height int
}

// newAppModel creates the model. Users with a stored profile go straight
// to the home menu after the splash; everyone else sees the consent form.
func newAppModel(deps Deps) (AppModel, error) {
	if deps.Reports == nil {
		deps.Reports = report.NewStore()
	}
	profiles := profile.NewService(deps.Store.ProfileRepo())
	user, err := profiles.Load(context.Background())
	if err != nil {
		return AppModel{}, err
	}

	var signedOut func() screen.Screen
	homeFor := func(p *profile.Profile) screen.Screen {
		return home.New(p, home.Deps{
			Profiles:           profiles,
			Reports:            deps.Reports,
			Advisor:            deps.Advisor,
			Results:            deps.Store.ResultRepo(),
			ExportDir:          deps.ExportDir,
			AdvisoryConfigured: deps.AdvisoryConfigured,
			LatestVersion:      deps.LatestVersion,
			SignedOut:          signedOut,
		})
	}
	signedOut = func() screen.Screen {
		return consent.New(profiles, homeFor)
	}

	next := signedOut
	name := ""
	if user != nil {
		next = func() screen.Screen { return homeFor(user) }
		name = user.Nickname
	}

	return AppModel{
		router: router.New(welcome.New(next)),
		user:   name,
	}, nil
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.BackHandler); ok {
				return m, h.Back()
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case router.ResetScreenMsg:
		m.user = ""
		if h, ok := msg.Screen.(*home.HomeScreen); ok {
			m.user = h.User().Nickname
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.user, m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "返回"},
			{Key: "Ctrl+C", Description: "退出"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "任意键", Description: "继续"},
			{Key: "Ctrl+C", Description: "退出"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(deps Deps) error {
	model, err := newAppModel(deps)
	if err != nil {
		return fmt.Errorf("start app: %w", err)
	}
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
