package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderProgress carries sample counts while writing a finite excerpt.
type RenderProgress struct {
	Done    int64
	Total   int64
	Elapsed time.Duration
}

// RenderComplete signals the end of the file render.
type RenderComplete struct {
	OutputFile string
	Samples    int64
	TotalTime  time.Duration
}

func (m *Model) renderRenderingView() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(loopCyan).
		Render("Jiveloop 🔁")

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(loopTeal).Render("Rendering Walk to File"))
	s.WriteString("\n\n")

	if m.renderState.Total == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting render...\n"))
	} else {
		percent := float64(m.renderState.Done) / float64(m.renderState.Total)

		s.WriteString("Progress: ")
		s.WriteString(m.progressBar.ViewAs(percent))
		s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
		s.WriteString("\n\n")

		elapsed := m.renderState.Elapsed
		if elapsed == 0 {
			elapsed = time.Since(m.renderStartTime)
		}

		// Rendering runs far faster than realtime; report the rate.
		var speed float64
		if elapsed > 0 {
			speed = float64(m.renderState.Done) / elapsed.Seconds()
		}

		var eta time.Duration
		if percent > 0 {
			eta = time.Duration(float64(elapsed)/percent) - elapsed
		}

		s.WriteString(lipgloss.NewStyle().Faint(true).Render(
			fmt.Sprintf("Time: %s  │  %.0f samples/s  │  ETA: %s",
				formatDuration(elapsed), speed, formatDuration(eta))))
		s.WriteString("\n")
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(loopBlue).
		Padding(1, 2).
		Render(s.String())
}
