package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MoodListView ViewState = iota
	GeneratingView
	ResultView
)

// Generator runs a generation for a session.
type Generator interface {
	Generate(ctx context.Context, sess *session.Session, mood string, progress chan<- tasks.ProgressUpdate) (*models.PlaylistResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	generator    Generator
	session      *session.Session
	width        int
	height       int
	moodList     list.Model
	selected     string
	loading      bool
	progressChan chan tasks.ProgressUpdate
	done         chan generationOutcome
	progress     tasks.ProgressUpdate
	result       *models.PlaylistResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, generator Generator, sess *session.Session) *Model {
	moodList := list.New(moodItems(), list.NewDefaultDelegate(), 0, 0)
	moodList.Title = "How are you feeling?"
	moodList.SetShowStatusBar(false)
	moodList.SetFilteringEnabled(false)
	moodList.SetShowHelp(false)

	return &Model{
		ctx:       ctx,
		view:      MoodListView,
		generator: generator,
		session:   sess,
		moodList:  moodList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.moodList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}

		switch m.view {
		case MoodListView:
			return m.handleMoodListKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgGenerationComplete:
			outcome := msg.data.(generationOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.loading = false
			m.progressChan = nil
			m.done = nil
			m.view = ResultView
			return m, nil
		}
	}

	if m.view == MoodListView {
		var cmd tea.Cmd
		m.moodList, cmd = m.moodList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MoodListView:
		return m.renderMoodList()
	case GeneratingView:
		return m.renderGenerating()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleMoodListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.moodList.SelectedItem().(moodItem); ok {
			return m, m.startGeneration(item.mood.String())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.moodList, cmd = m.moodList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = MoodListView
		m.selected = ""
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
	}
	return m, nil
}

// startGeneration runs the generator in the background and returns the command that relays its progress.
func (m *Model) startGeneration(mood string) tea.Cmd {
	m.selected = mood
	m.loading = true
	m.view = GeneratingView
	m.progress = tasks.ProgressUpdate{}
	m.progressChan = make(chan tasks.ProgressUpdate, 16)
	m.done = make(chan generationOutcome, 1)

	progress, done := m.progressChan, m.done
	go func() {
		result, err := m.generator.Generate(m.ctx, m.session, mood, progress)
		close(progress)
		done <- generationOutcome{result, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if progress == nil {
			return generationCompleteMsg(m.result, m.err)
		}

		update, ok := <-progress
		if !ok {
			outcome := <-done
			return generationCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderMoodList() string {
	return fmt.Sprintf("%s\n\n%s", m.moodList.View(), m.help.View(m.keys))
}

func (m *Model) renderGenerating() string {
	title := styles.title.Render(fmt.Sprintf("Building your %s playlist", m.selected))

	var phase string
	switch m.progress.State {
	case tasks.FetchingRecommendations:
		phase = "Finding tracks..."
	case tasks.ResolvingIdentity:
		phase = "Looking up your account..."
	case tasks.CreatingPlaylist:
		phase = "Creating playlist..."
	case tasks.PopulatingTracks:
		phase = "Adding tracks..."
	default:
		phase = "Starting..."
	}

	step := ""
	if m.progress.Total > 0 {
		step = styles.help.Render(fmt.Sprintf("step %d/%d", m.progress.Step, m.progress.Total))
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s", title, phase, step, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var partial *tasks.PartialSuccessError
	switch {
	case errors.As(m.err, &partial):
		title := styles.warn.Render("! Playlist created without tracks")
		info := fmt.Sprintf("\n%s\n%s", tasks.Message(m.err), styles.As(formatter.PlaylistURL(partial.PlaylistID), lipgloss.Color("#1DB954")))
		return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
	case m.err != nil:
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("✗ "+tasks.Message(m.err)), helpView)
	case m.result == nil:
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render(fmt.Sprintf("✓ %s", m.result.Name))
	info := fmt.Sprintf(
		"\nTracks: %d\nSeeds: %s\n%s",
		m.result.TrackCount,
		strings.Join(m.result.Seeds, ", "),
		styles.As(formatter.PlaylistURL(m.result.PlaylistID), lipgloss.Color("#1DB954")),
	)

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
