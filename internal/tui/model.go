// Package tui is a terminal client for one quiz session.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"exam-drill-service/internal/app"
	"exam-drill-service/internal/domain"
	"exam-drill-service/internal/engine"
	"exam-drill-service/internal/input"
)

// Session is the part of app.Session the terminal client drives.
type Session interface {
	input.Target
	Snapshot() app.SessionView
}

// wheelStep is the synthetic delta of one terminal wheel notch; terminals do
// not report pixel deltas.
const wheelStep = 100

// Model renders a session using Bubble Tea.
type Model struct {
	session  Session
	router   *input.Router
	updates  <-chan app.SessionView
	view     app.SessionView
	notice   string
	copied   string
	progress progress.Model
	width    int
	noColor  bool
}

// Options configures the terminal model.
type Options struct {
	NoColor  bool
	Gestures input.Config
}

// NewModel constructs a model over a session and its update stream.
func NewModel(session Session, updates <-chan app.SessionView, opts Options) Model {
	return Model{
		session:  session,
		router:   input.NewRouter(session, opts.Gestures),
		updates:  updates,
		view:     session.Snapshot(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		width:    80,
		noColor:  opts.NoColor,
	}
}

// Result returns the graded result once the session finished.
func (m Model) Result() *domain.GradeResult {
	return m.view.Result
}

// UpdateMsg wraps a session update for Bubble Tea.
type UpdateMsg struct {
	View app.SessionView
}

// Init waits for the first session update.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// Update consumes key presses, wheel events and session updates.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.progress.Width = max(min(typed.Width-20, 60), 10)
		return m, nil
	case UpdateMsg:
		m.view = typed.View
		return m, waitForUpdate(m.updates)
	case tea.MouseMsg:
		switch typed.Button {
		case tea.MouseButtonWheelDown:
			_, err := m.router.HandleWheel(wheelStep, input.Boundless)
			m = m.withError(err)
		case tea.MouseButtonWheelUp:
			_, err := m.router.HandleWheel(-wheelStep, input.Boundless)
			m = m.withError(err)
		}
		return m.refresh(), nil
	case tea.KeyMsg:
		return m.handleKey(typed.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	m.notice = ""
	v := m.view
	switch {
	case v.Result != nil || !v.InProgress:
		if key == "q" || key == "enter" || key == "esc" {
			return m, tea.Quit
		}
		return m, nil
	case v.Intro:
		if key == "enter" {
			m = m.withError(m.session.Dispatch(engine.Command{Kind: engine.CmdStart}))
		}
		return m.refresh(), nil
	case v.ConfirmationPending:
		var resolution engine.Resolution
		switch key {
		case "z":
			resolution = engine.ZeroFillAll
		case "t":
			resolution = engine.TruncateToCurrent
		case "esc":
			resolution = engine.CancelSubmission
		default:
			return m, nil
		}
		m = m.withError(m.session.Dispatch(engine.Command{Kind: engine.CmdResolve, Resolution: resolution}))
		return m.refresh(), nil
	case key == "f":
		m = m.withError(m.session.Dispatch(engine.Command{Kind: engine.CmdFinish}))
		return m.refresh(), nil
	}

	res := m.router.HandleKey(key)
	if res.Copied != "" {
		m.copied = res.Copied
	}
	return m.withError(res.Err).refresh(), nil
}

func (m Model) withError(err error) Model {
	if err == nil {
		return m
	}
	var incomplete *domain.SelectionIncompleteError
	if errors.As(err, &incomplete) {
		m.notice = fmt.Sprintf("Select %d options to continue (currently %d).", incomplete.Required, incomplete.Selected)
		return m
	}
	m.notice = err.Error()
	return m
}

// refresh reads the session directly so the frame reflects the input just handled.
func (m Model) refresh() Model {
	m.view = m.session.Snapshot()
	return m
}

func waitForUpdate(updates <-chan app.SessionView) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		v, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return UpdateMsg{View: v}
	}
}

// View renders the session.
func (m Model) View() string {
	st := newStyles(m.noColor)
	v := m.view
	if v.Result != nil {
		return renderResult(st, *v.Result)
	}

	var b strings.Builder
	b.WriteString(renderHeader(st, v, m.progress))
	b.WriteString("\n\n")

	switch {
	case v.Intro:
		b.WriteString(st.overlay.Render(introText))
		return b.String()
	case v.Paused:
		b.WriteString(st.overlay.Render("Paused. Press P to resume."))
		return b.String()
	}

	b.WriteString(renderQuestion(st, v))
	if v.Display.ShowExplanation {
		b.WriteString("\n")
		b.WriteString(st.explanation.Render(explanationText(v)))
	}
	if v.ConfirmationPending {
		b.WriteString("\n\n")
		b.WriteString(st.overlay.Render(fmt.Sprintf(
			"%d questions are unanswered.\n[z] grade them as wrong  [t] stop here and grade up to this question  [esc] keep going",
			v.Unanswered)))
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(st.notice.Render(m.notice))
	}
	if m.copied != "" {
		b.WriteString("\n")
		b.WriteString(st.dim.Render("Copied:\n" + m.copied))
	}
	b.WriteString("\n\n")
	b.WriteString(st.dim.Render("←/a prev  →/d/space next  1-6 select  s explanation  o original  p pause  v copy  f submit  ctrl+c quit"))
	return b.String()
}

const introText = `Exam drill
Answer every question before the timer runs out.
Multi-select questions need exactly the stated number of options.
Press Enter to start the clock.`
