package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - matching the ui package
var (
	InfoBlue     = lipgloss.Color("#6C9BCF")
	SuccessGreen = lipgloss.Color("#7CB486")
	ErrorRed     = lipgloss.Color("#E07A7A")
	WarningAmber = lipgloss.Color("#D9A648")

	BorderGray   = lipgloss.Color("#4A5568")
	MutedText    = lipgloss.Color("#718096")
	DimTextColor = lipgloss.Color("#A0AEC0")
	BGAccent     = lipgloss.Color("#2D3748")
	BGHighlight  = lipgloss.Color("#3D4A5C")
	BrightWhite  = lipgloss.Color("#F7FAFC")

	AddedGreen  = lipgloss.Color("#48BB78")
	RemovedRed  = lipgloss.Color("#FC8181")
	ChangedBlue = lipgloss.Color("#63B3ED")
)

var (
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(BrightWhite).
			Background(InfoBlue).
			Padding(0, 2).
			MarginBottom(1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderGray).
			Padding(0, 1)

	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(InfoBlue).
				Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(BrightWhite).
			Background(BGAccent).
			Padding(0, 1)

	ItemStyle = lipgloss.NewStyle().
			Foreground(MutedText).
			PaddingLeft(2)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(BrightWhite).
				Background(BGHighlight).
				Bold(true).
				PaddingLeft(1)

	// Classification badges
	SemanticStyle = lipgloss.NewStyle().
			Foreground(WarningAmber).
			Bold(true)

	CosmeticStyle = lipgloss.NewStyle().
			Foreground(SuccessGreen)

	ConflictStyle = lipgloss.NewStyle().
			Foreground(ErrorRed).
			Bold(true)

	CodeStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)

	LineNumberStyle = lipgloss.NewStyle().
			Foreground(MutedText)

	AddedLineStyle = lipgloss.NewStyle().
			Foreground(AddedGreen)

	RemovedLineStyle = lipgloss.NewStyle().
				Foreground(RemovedRed)

	HunkStyle = lipgloss.NewStyle().
			Foreground(ChangedBlue)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedText).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(InfoBlue).
			Bold(true)

	FilePathStyle = lipgloss.NewStyle().
			Foreground(InfoBlue).
			Bold(true)

	PairStyle = lipgloss.NewStyle().
			Foreground(WarningAmber)

	DimTextStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)
)

// Icons (Nerd Font)
const (
	IconFile       = "󰈙 "
	IconCheck      = "✔ "
	IconCross      = "✘ "
	IconWarning    = "⚠ "
	IconArrowRight = "➜ "
	IconOurs       = "󰊢 "
	IconTheirs     = "󰊣 "
	IconBase       = "󰊠 "
	IconDiff       = "󰦓 "
	IconMerge      = "⎇ "
)
