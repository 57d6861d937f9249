package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixa/internal/config"
)

const AppName = "pixa"

// ASCII art logo lines for pixa
var LogoLines = []string{
	"██▀▀▀█ ▀██▀ ██  ██ ▄████▄",
	"██   █  ██   ████  ██  ██",
	"██▀▀▀▀  ██    ██   ██▀▀██",
	"██      ██   ████  ██  ██",
	"██     ▄██▄ ██  ██ ██  ██",
}

const CompactLogo = `pixa ›`

const Tagline = "Pixabay image browser"

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#2EC66D"),
	lipgloss.Color("#7FD8A4"),
	lipgloss.Color("#F5C451"),
	lipgloss.Color("#48A9E6"),
	lipgloss.Color("#2EC66D"),
}

// Brand colors. ApplyTheme overrides them from the config.
var (
	PrimaryColor   = lipgloss.Color("#2EC66D")
	SecondaryColor = lipgloss.Color("#48A9E6")
	AccentColor    = lipgloss.Color("#F5C451")

	BackgroundColor = lipgloss.Color("#12151C")
	SurfaceColor    = lipgloss.Color("#1C2230")
	TextColor       = lipgloss.Color("#E6E9EF")
	MutedColor      = lipgloss.Color("#8A93A6")

	HighlightColor = lipgloss.Color("#FFD98A")
	ErrorColor     = lipgloss.Color("#EF5B5B")
	SuccessColor   = lipgloss.Color("#5BD68A")
)

// Styled components
var (
	LogoStyle           lipgloss.Style
	TitleStyle          lipgloss.Style
	HeaderStyle         lipgloss.Style
	StatusBarStyle      lipgloss.Style
	SelectedItemStyle   lipgloss.Style
	HelpStyle           lipgloss.Style
	SeparatorStyle      lipgloss.Style
	TileStyle           lipgloss.Style
	SelectedTileStyle   lipgloss.Style
	CategoryStyle       lipgloss.Style
	ActiveCategoryStyle lipgloss.Style
	ChipStyle           lipgloss.Style
	StatusInfoStyle     lipgloss.Style
	StatusSuccessStyle  lipgloss.Style
	StatusWarnStyle     lipgloss.Style
	StatusErrorStyle    lipgloss.Style
)

func init() {
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true)

	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Bold(true).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Bold(true)

	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	TileStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Padding(0, 1)

	SelectedTileStyle = TileStyle.
		BorderForeground(AccentColor)

	CategoryStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Padding(0, 1)

	ActiveCategoryStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(SecondaryColor).
		Bold(true).
		Padding(0, 1)

	ChipStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(SurfaceColor).
		Padding(0, 1)

	StatusInfoStyle = lipgloss.NewStyle().
		Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
		Foreground(HighlightColor)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
}

// ApplyTheme replaces the brand colors with the configured ones. Empty
// entries keep their defaults.
func ApplyTheme(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func GetWelcomeMessage(modifier string) string {
	return GetCompactBanner(fmt.Sprintf("Type / to search • %s+f filters • %s+l downloads", modifier, modifier))
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// Banner renders the startup banner.
func Banner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	versionTag := version
	if versionTag != "" && versionTag != "dev" {
		if versionTag[0] != 'v' && versionTag[0] != 'V' {
			versionTag = "v" + versionTag
		}
		lines = append(lines, fmt.Sprintf("  %s %s", Tagline, versionTag))
	} else {
		lines = append(lines, "  "+Tagline)
	}

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	border := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	framed := lipgloss.NewStyle().
		Border(border).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1).
		Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))

	separator := lipgloss.NewStyle().
		Foreground(AccentColor).
		Render("▦ ▢ ▦ ▢ ▦")

	center := lipgloss.NewStyle().Width(60).Align(lipgloss.Center)
	return lipgloss.JoinVertical(lipgloss.Left,
		center.Render(framed),
		center.MarginBottom(1).Render(separator),
	)
}

func ShowBanner(version string) {
	fmt.Println(Banner(version))
}
