package player

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-vcf/dsp/filter/ladder"
	"github.com/cwbudde/algo-vcf/dsp/vcf"
	"github.com/cwbudde/algo-vcf/internal/cli"
)

const (
	refreshInterval = 200 * time.Millisecond
	feedbackStep    = 0.1
)

// cutoffStep is one semitone.
var cutoffStep = math.Pow(2, 1.0/12)

// Controller is the control-thread view of the engine.
type Controller interface {
	SetParameter(id ladder.ParamID, value float64) error
	Parameter(id ladder.ParamID) (float64, error)
	Diagnostics() *vcf.Diagnostics
}

type tickMsg time.Time

// Model is the bubbletea model of the live control view.
type Model struct {
	ctrl   Controller
	source string

	cutoff   float64
	feedback float64
	diag     vcf.DiagnosticsSnapshot
	err      error
}

// NewModel reads the current controls from ctrl.
func NewModel(ctrl Controller, source string) Model {
	m := Model{ctrl: ctrl, source: source}
	m.cutoff, _ = ctrl.Parameter(ladder.ParamCutoffHz)
	m.feedback, _ = ctrl.Parameter(ladder.ParamFeedbackGain)
	m.diag = ctrl.Diagnostics().Snapshot()

	return m
}

// Init starts the diagnostics refresh.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles key presses and refresh ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.set(ladder.ParamCutoffHz, m.cutoff*cutoffStep)
		case "down", "j":
			m.set(ladder.ParamCutoffHz, m.cutoff/cutoffStep)
		case "right", "l":
			m.set(ladder.ParamFeedbackGain, m.feedback+feedbackStep)
		case "left", "h":
			m.set(ladder.ParamFeedbackGain, m.feedback-feedbackStep)
		}

	case tickMsg:
		m.diag = m.ctrl.Diagnostics().Snapshot()
		return m, tick()
	}

	return m, nil
}

func (m *Model) set(id ladder.ParamID, v float64) {
	if m.err = m.ctrl.SetParameter(id, v); m.err != nil {
		return
	}

	// Read back the clamped value.
	got, err := m.ctrl.Parameter(id)
	if err != nil {
		m.err = err
		return
	}

	switch id {
	case ladder.ParamCutoffHz:
		m.cutoff = got
	case ladder.ParamFeedbackGain:
		m.feedback = got
	}
}

// View renders the controls and engine counters.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(cli.TitleStyle.Render("vcf live"))
	sb.WriteString("\n")
	sb.WriteString(cli.KeyValue("source", m.source) + "\n")
	sb.WriteString(cli.KeyValue("cutoff", fmt.Sprintf("%.1f Hz", m.cutoff)) + "\n")
	sb.WriteString(cli.KeyValue("feedback", fmt.Sprintf("%.2f", m.feedback)) + "\n")
	sb.WriteString(cli.KeyValue("blocks", fmt.Sprintf("%d", m.diag.Blocks)) + "\n")
	sb.WriteString(cli.KeyValue("max iterations", fmt.Sprintf("%d", m.diag.MaxIterations)) + "\n")

	if m.diag.NonConverged > 0 || m.diag.Sanitized > 0 {
		sb.WriteString(cli.ErrorStyle.Render(fmt.Sprintf("non-converged %d, sanitized %d",
			m.diag.NonConverged, m.diag.Sanitized)) + "\n")
	}

	if m.err != nil {
		sb.WriteString(cli.ErrorStyle.Render(m.err.Error()) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(cli.HelpStyle.Render("up/down cutoff, left/right feedback, q quit"))
	sb.WriteString("\n")

	return sb.String()
}

// Cutoff returns the displayed cutoff control.
func (m Model) Cutoff() float64 { return m.cutoff }

// Feedback returns the displayed feedback control.
func (m Model) Feedback() float64 { return m.feedback }

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
