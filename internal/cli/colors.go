package cli

import "github.com/charmbracelet/lipgloss"

// Loop colour palette 🔁
// Shared theme colours for consistent branding across CLI and TUI
var (
	// Core loop colours (dark to bright)
	LoopCyan   = lipgloss.Color("#00E5FF") // Bright cyan
	LoopTeal   = lipgloss.Color("#00B8A9") // Deep teal
	LoopBlue   = lipgloss.Color("#1E90FF") // Dodger blue
	LoopIndigo = lipgloss.Color("#3D348B") // Deep indigo

	// Accent colours
	CoolGray = lipgloss.Color("#6C7A89") // Slate gray for subtle text
)
