// Package ui renders terminal progress for analysis and rendering with
// Bubbletea. The same model drives both phases; serve mode quits after the
// analysis summary, render mode continues into a progress bar.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/jiveloop/internal/analysis"
)

// Loop colour palette 🔁
var (
	loopCyan   = lipgloss.Color("#00E5FF") // Bright cyan
	loopTeal   = lipgloss.Color("#00B8A9") // Deep teal
	loopBlue   = lipgloss.Color("#1E90FF") // Dodger blue
	loopIndigo = lipgloss.Color("#3D348B") // Deep indigo
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseAnalysis Phase = iota
	PhaseRendering
	PhaseComplete
)

// AnalysisProgress carries stage updates from the analysis pipeline.
type AnalysisProgress struct {
	Stage    analysis.Stage
	Onsets   int
	Beats    int
	Edges    int
	Envelope []float64
	Elapsed  time.Duration
}

// AnalysisComplete signals the end of analysis with the track profile.
type AnalysisComplete struct {
	Beats        int
	Edges        int
	Threshold    float64
	Duration     time.Duration
	AnalysisTime time.Duration
}

// quitTimerMsg is sent when it's time to quit after showing completion
type quitTimerMsg struct{}

// Model is the Bubbletea model for the analysis and render phases.
type Model struct {
	progressBar progress.Model
	phase       Phase
	renderMode  bool

	analysisProgress AnalysisProgress
	analysisDone     *AnalysisComplete

	renderState    RenderProgress
	renderComplete *RenderComplete

	startTime       time.Time
	renderStartTime time.Time

	width           int
	height          int
	completionDelay time.Duration
	quitting        bool
}

// NewModel creates the progress UI. renderMode keeps the model alive after
// analysis for the file-render phase; otherwise it quits on the summary.
func NewModel(renderMode bool) *Model {
	// Loop gradient: deep indigo → bright cyan
	p := progress.New(
		progress.WithGradient(string(loopIndigo), string(loopCyan)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		phase:           PhaseAnalysis,
		renderMode:      renderMode,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(msg.Width-30, 50)
		return m, nil

	case AnalysisProgress:
		m.analysisProgress = msg
		return m, nil

	case AnalysisComplete:
		m.analysisDone = &msg
		if m.renderMode {
			m.phase = PhaseRendering
			m.renderStartTime = time.Now()
			return m, nil
		}
		m.phase = PhaseComplete
		m.quitting = true
		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return quitTimerMsg{}
		})

	case RenderProgress:
		m.renderState = msg
		return m, nil

	case RenderComplete:
		m.renderComplete = &msg
		m.phase = PhaseComplete
		m.quitting = true
		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return quitTimerMsg{}
		})

	case quitTimerMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		// Any key skips the completion delay; ctrl+c always quits.
		if m.phase == PhaseComplete {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	if m.phase == PhaseComplete {
		return m.renderSummary()
	}
	if m.phase == PhaseRendering {
		return m.renderRenderingView()
	}
	return m.renderAnalysisView()
}

func (m *Model) renderAnalysisView() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(loopCyan).
		Render("Jiveloop 🔁")

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(loopTeal).Render("Analysing Track"))
	s.WriteString("\n\n")

	p := m.analysisProgress
	switch p.Stage {
	case analysis.StageSegmented:
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Detecting beats..."))
		s.WriteString(fmt.Sprintf("  %d onsets\n", p.Onsets))
	case analysis.StageFeatures:
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Extracting features..."))
		s.WriteString(fmt.Sprintf("  %d beats\n", p.Beats))
	case analysis.StageGraph:
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Building similarity graph..."))
		s.WriteString(fmt.Sprintf("  %d beats  │  %d edges\n", p.Beats, p.Edges))
	default:
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting analysis...\n"))
	}

	if p.Elapsed > 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(
			fmt.Sprintf("Elapsed: %s\n", formatDuration(p.Elapsed))))
	}

	// Energy envelope preview
	if len(p.Envelope) > 0 {
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Energy Envelope:"))
		s.WriteString("\n")
		s.WriteString(renderEnvelope(p.Envelope, min(m.width-10, 76)))
		s.WriteString("\n")
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(loopBlue).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderSummary() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(loopCyan).
		Render("✓ Analysis Complete!")

	s.WriteString(title)
	s.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Faint(true)

	if d := m.analysisDone; d != nil {
		s.WriteString(fmt.Sprintf("  %s%.1fs\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Duration:")), d.Duration.Seconds()))
		s.WriteString(fmt.Sprintf("  %s%d\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Beats:")), d.Beats))
		s.WriteString(fmt.Sprintf("  %s%d\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Edges:")), d.Edges))
		s.WriteString(fmt.Sprintf("  %s%.0f\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Threshold:")), d.Threshold))
		s.WriteString(fmt.Sprintf("  %s%s\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Analysed in:")), formatDuration(d.AnalysisTime)))
	}

	if c := m.renderComplete; c != nil {
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(loopTeal).Render("✓ Render Complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("  %s%s\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Output:")), c.OutputFile))
		s.WriteString(fmt.Sprintf("  %s%d samples\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Audio:")), c.Samples))
		s.WriteString(fmt.Sprintf("  %s%s\n",
			labelStyle.Render(fmt.Sprintf("%-14s", "Rendered in:")), formatDuration(c.TotalTime)))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(loopTeal).
		Padding(1, 2).
		Render(s.String()) + "\n"
}

// renderEnvelope draws the energy envelope as a single-row bar chart.
func renderEnvelope(env []float64, width int) string {
	if len(env) == 0 || width <= 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	// Cool-to-hot loop gradient from low to high energy
	loopColors := []lipgloss.Color{
		lipgloss.Color("#3D348B"), // Indigo
		lipgloss.Color("#4455C7"), // Blue-violet
		lipgloss.Color("#1E90FF"), // Dodger blue
		lipgloss.Color("#00B8A9"), // Teal
		lipgloss.Color("#00E5FF"), // Cyan
	}

	stride := len(env) / width
	if stride == 0 {
		stride = 1
	}

	maxHeight := 0.0
	for _, h := range env {
		if h > maxHeight {
			maxHeight = h
		}
	}
	if maxHeight == 0 {
		maxHeight = 1.0
	}

	var result strings.Builder
	count := 0
	for i := 0; i < len(env) && count < width; i += stride {
		normalized := env[i] / maxHeight
		blockIdx := int(normalized * float64(len(blocks)-1))
		if blockIdx >= len(blocks) {
			blockIdx = len(blocks) - 1
		}
		colorIdx := int(normalized * float64(len(loopColors)-1))
		if colorIdx >= len(loopColors) {
			colorIdx = len(loopColors) - 1
		}
		result.WriteString(lipgloss.NewStyle().
			Foreground(loopColors[colorIdx]).
			Render(string(blocks[blockIdx])))
		count++
	}

	return result.String()
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
