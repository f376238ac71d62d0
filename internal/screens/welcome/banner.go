package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/mindharmony/mindharmony/internal/ui/theme"
)

const bannerArt = `╔╦╗╦╔╗╔╔╦╗  ╦ ╦╔═╗╦═╗╔╦╗╔═╗╔╗╔╦ ╦
║║║║║║║ ║║  ╠═╣╠═╣╠╦╝║║║║ ║║║║╚╦╝
╩ ╩╩╝╚╝═╩╝  ╩ ╩╩ ╩╩╚═╩ ╩╚═╝╝╚╝ ╩ `

const bannerCompact = "MindHarmony"

// RenderBanner returns the banner styled in the primary color, with a
// plain-text fallback for terminals narrower than 40 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 40 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
