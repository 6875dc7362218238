// Package tui provides the Bubble Tea flashcard interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/flipfox/flipfox/internal/engine"
)

type tickMsg time.Time

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	answerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	hiddenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	resultsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	cardStyle    = lipgloss.NewStyle().
			Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

const barWidth = 40

// Model implements the Bubble Tea flashcard UI.
type Model struct {
	engine *engine.Engine
	tick   time.Duration

	revealBar progress.Model
	holdBar   progress.Model

	width  int
	height int
}

// NewModel constructs a flashcard TUI model around an engine with a fresh
// game already started.
func NewModel(e *engine.Engine, tick time.Duration) *Model {
	if tick <= 0 {
		tick = engine.DefaultTick
	}
	revealBar := progress.New(progress.WithSolidFill("#38BDF8"), progress.WithoutPercentage())
	holdBar := progress.New(progress.WithSolidFill("#34D399"), progress.WithoutPercentage())
	revealBar.Width = barWidth
	holdBar.Width = barWidth
	return &Model{
		engine:    e,
		tick:      tick,
		revealBar: revealBar,
		holdBar:   holdBar,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.engine.StartTimer()
	return m.maybeTick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.engine.Tick(context.Background(), time.Time(msg))
		return m, m.maybeTick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	snap := m.engine.Snapshot()

	switch msg.String() {
	case "ctrl+c":
		m.engine.EndGame(ctx)
		return m, tea.Quit
	case "q", "esc":
		if snap.Finished {
			return m, tea.Quit
		}
		// End early; the results view stays up until dismissed.
		m.engine.EndGame(ctx)
		return m, nil
	case "p":
		m.engine.TogglePause()
		if !m.engine.Snapshot().Paused {
			m.engine.StartTimer()
		}
		return m, m.maybeTick()
	}

	if snap.Finished {
		switch msg.String() {
		case "r", "enter", " ":
			m.engine.DismissResults()
			m.engine.StartNewGame()
			m.engine.StartTimer()
			return m, m.maybeTick()
		}
		return m, nil
	}
	if snap.Paused {
		return m, nil
	}

	if snap.Holding {
		switch msg.String() {
		case "enter", " ":
			m.engine.ContinueNow(ctx)
			return m, m.maybeTick()
		case "w":
			m.engine.ChangeLastToWrong()
		}
		return m, nil
	}

	switch msg.String() {
	case "g", "y":
		m.engine.Mark(true)
		return m, m.maybeTick()
	case "m", "n":
		m.engine.Mark(false)
		return m, m.maybeTick()
	}
	return m, nil
}

func (m *Model) maybeTick() tea.Cmd {
	if !m.engine.TimerActive() {
		return nil
	}
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.engine.Snapshot()
	var content string
	if snap.Finished && snap.ShowingResults {
		content = m.renderResults(snap)
	} else {
		content = m.renderGame(snap)
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderGame(snap engine.Snapshot) string {
	header := headerStyle.Render(fmt.Sprintf("%s · %s · card %d/%d",
		snap.Settings.Category, snap.Settings.Mode.Label(), snap.CardNumber, snap.CardTotal))

	prompt := promptStyle.Render(snap.Prompt)
	answer := m.renderAnswer(snap)

	var bar string
	if snap.Holding {
		bar = m.holdBar.ViewAs(snap.HoldPct / 100)
	} else {
		bar = m.revealBar.ViewAs(snap.RevealPct / 100)
	}

	card := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center, prompt, "", answer, "", bar))

	score := headerStyle.Render(fmt.Sprintf("seen %d · correct %d · accuracy %d%%",
		snap.Seen, snap.Correct, snap.Accuracy))

	footer := footerStyle.Render(m.controlsHint(snap))

	lines := []string{header, card, score, footer}
	if snap.Paused {
		lines = append(lines, pausedStyle.Render("Paused"))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderAnswer(snap engine.Snapshot) string {
	if snap.ShowingAnswer {
		return answerStyle.Render(snap.Answer)
	}
	// Placeholder sized to the answer so the card does not jump on reveal.
	width := runewidth.StringWidth(snap.Answer)
	if width < 1 {
		width = 1
	}
	return hiddenStyle.Render(strings.Repeat("▁", width))
}

func (m *Model) controlsHint(snap engine.Snapshot) string {
	if snap.Paused {
		return "[p] resume · [q] end"
	}
	if snap.Holding {
		hint := "[enter] continue"
		if snap.LastChoice != nil && snap.LastChoice.WasCorrect {
			hint += " · [w] change to wrong"
		}
		return hint + " · [p] pause · [q] end"
	}
	return "[g] got it · [m] missed · [p] pause · [q] end"
}

func (m *Model) renderResults(snap engine.Snapshot) string {
	title := resultsStyle.Render("Great work!")
	score := fmt.Sprintf("Seen %d · Correct %d · Accuracy %d%%", snap.Seen, snap.Correct, snap.Accuracy)
	lifetime := headerStyle.Render(fmt.Sprintf("Lifetime: %d games · best %d%%",
		snap.Statistics.TotalGames, snap.Statistics.BestAccuracy))
	footer := footerStyle.Render("[r] practice again · [q] quit")
	card := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Center, title, "", score, lifetime))
	return lipgloss.JoinVertical(lipgloss.Center, card, footer)
}
