package engine

import (
	"sync"
	"time"

	"exam-drill-service/internal/domain"
)

// CommandKind names one engine command.
type CommandKind string

const (
	CmdStart             CommandKind = "start"
	CmdSelect            CommandKind = "select"
	CmdNext              CommandKind = "next"
	CmdPrev              CommandKind = "prev"
	CmdFinish            CommandKind = "finish"
	CmdResolve           CommandKind = "resolve"
	CmdPause             CommandKind = "pause"
	CmdResume            CommandKind = "resume"
	CmdTogglePause       CommandKind = "togglePause"
	CmdToggleExplanation CommandKind = "toggleExplanation"
	CmdToggleOriginal    CommandKind = "toggleOriginal"
	CmdTick              CommandKind = "tick"
)

// Command is one input event resolved to an engine operation.
type Command struct {
	Kind       CommandKind `json:"kind"`
	Label      string      `json:"label,omitempty"`
	Resolution Resolution  `json:"resolution,omitempty"`
}

// Options configures a new Engine.
type Options struct {
	TimeLimitSeconds int
	// SkipIntro starts the clock immediately instead of waiting for CmdStart.
	SkipIntro bool
	// TickInterval is the scheduler period used by Run. Defaults to one second.
	TickInterval time.Duration
	// OnComplete fires exactly once, when the session finishes.
	OnComplete func(domain.Outcome)
	// OnChange fires after every state transition with the new view.
	OnChange func(View)
}

// Engine runs one quiz attempt. Every command is applied atomically under the
// engine lock; hooks run after the lock is released.
type Engine struct {
	mu        sync.Mutex
	questions []domain.Question
	answers   *AnswerState
	nav       navigator
	timer     Countdown
	arbiter   arbiter
	intro     bool

	tickInterval time.Duration
	onComplete   func(domain.Outcome)
	onChange     func(View)

	resumed chan struct{}
	done    chan struct{}
}

// New builds an engine over a non-empty question pool.
func New(questions []domain.Question, opts Options) (*Engine, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyPool
	}
	if opts.TimeLimitSeconds <= 0 {
		return nil, domain.ErrInvalidTimeLimit
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	pool := make([]domain.Question, len(questions))
	copy(pool, questions)

	e := &Engine{
		questions:    pool,
		answers:      newAnswerState(),
		nav:          navigator{total: len(pool)},
		timer:        NewCountdown(opts.TimeLimitSeconds),
		arbiter:      arbiter{status: StatusInProgress},
		intro:        !opts.SkipIntro,
		tickInterval: interval,
		onComplete:   opts.OnComplete,
		onChange:     opts.OnChange,
		resumed:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	// Defective questions are resolved up front so that unvisited ones are
	// graded correct too; visits re-assert the same value.
	for _, q := range pool {
		if q.IsDefective() {
			e.answers.Set(q.ID, q.CorrectAnswer)
		}
	}
	return e, nil
}

type transition struct {
	changed bool
	outcome *domain.Outcome
}

// Dispatch applies one command. Rejected commands leave the state untouched.
func (e *Engine) Dispatch(cmd Command) error {
	e.mu.Lock()
	tr, err := e.applyLocked(cmd)
	var view View
	if tr.changed {
		view = e.viewLocked()
	}
	e.mu.Unlock()

	if tr.outcome != nil {
		close(e.done)
		if e.onComplete != nil {
			e.onComplete(*tr.outcome)
		}
	}
	if tr.changed && e.onChange != nil {
		e.onChange(view)
	}
	return err
}

func (e *Engine) applyLocked(cmd Command) (transition, error) {
	switch cmd.Kind {
	case CmdStart:
		return e.startLocked()
	case CmdSelect:
		return e.selectLocked(cmd.Label)
	case CmdNext:
		return e.nextLocked()
	case CmdPrev:
		return e.prevLocked()
	case CmdFinish:
		return e.requestFinishLocked()
	case CmdResolve:
		return e.resolveLocked(cmd.Resolution)
	case CmdPause:
		return e.pauseLocked()
	case CmdResume:
		return e.resumeLocked()
	case CmdTogglePause:
		if e.timer.Paused() {
			return e.resumeLocked()
		}
		return e.pauseLocked()
	case CmdToggleExplanation:
		return e.toggleLocked(false)
	case CmdToggleOriginal:
		return e.toggleLocked(true)
	case CmdTick:
		return e.tickLocked(), nil
	}
	return transition{}, domain.ErrUnknownCommand
}

// guardInteractiveLocked rejects answer and navigation input while the
// session is finished, behind an overlay, or awaiting a partial-submission choice.
func (e *Engine) guardInteractiveLocked() error {
	switch {
	case e.arbiter.status == StatusFinished:
		return domain.ErrSessionFinished
	case e.intro:
		return domain.ErrIntroActive
	case e.timer.Paused():
		return domain.ErrSessionPaused
	case e.arbiter.status == StatusConfirmingPartial:
		return domain.ErrConfirmationPending
	}
	return nil
}

func (e *Engine) startLocked() (transition, error) {
	if e.arbiter.status == StatusFinished {
		return transition{}, domain.ErrSessionFinished
	}
	if !e.intro {
		return transition{}, nil
	}
	e.intro = false
	e.signalResume()
	return transition{changed: true}, nil
}

func (e *Engine) selectLocked(label string) (transition, error) {
	if err := e.guardInteractiveLocked(); err != nil {
		return transition{}, err
	}
	q := e.currentLocked()
	if q.IsDefective() {
		return transition{}, nil
	}
	if !q.HasOption(label) {
		return transition{}, domain.ErrOptionNotFound
	}
	e.answers.Select(q, label)
	return transition{changed: true}, nil
}

func (e *Engine) nextLocked() (transition, error) {
	if e.arbiter.status == StatusFinished {
		return transition{}, nil
	}
	if err := e.guardInteractiveLocked(); err != nil {
		return transition{}, err
	}
	q := e.currentLocked()
	if q.IsMultiSelect() && !q.IsDefective() {
		selected := len(e.answers.Get(q.ID))
		if selected != q.RequiredSelections() {
			return transition{}, &domain.SelectionIncompleteError{Required: q.RequiredSelections(), Selected: selected}
		}
	}
	if e.nav.advance() {
		e.visitLocked()
		return transition{changed: true}, nil
	}
	return e.requestFinishLocked()
}

func (e *Engine) prevLocked() (transition, error) {
	if err := e.guardInteractiveLocked(); err != nil {
		return transition{}, err
	}
	if !e.nav.retreat() {
		return transition{}, nil
	}
	e.visitLocked()
	return transition{changed: true}, nil
}

// visitLocked re-asserts the auto-fill rule for the question just entered.
func (e *Engine) visitLocked() {
	q := e.currentLocked()
	if q.IsDefective() {
		e.answers.Set(q.ID, q.CorrectAnswer)
	}
}

func (e *Engine) requestFinishLocked() (transition, error) {
	switch {
	case e.arbiter.status == StatusFinished, e.arbiter.status == StatusConfirmingPartial:
		return transition{}, nil
	case e.intro:
		return transition{}, domain.ErrIntroActive
	case e.timer.Paused():
		return transition{}, domain.ErrSessionPaused
	}
	if e.arbiter.requestFinish(e.answeredCountLocked(), len(e.questions)) {
		return e.finishLocked(domain.CompletedAllAnswered, 0), nil
	}
	return transition{changed: true}, nil
}

func (e *Engine) resolveLocked(resolution Resolution) (transition, error) {
	if e.arbiter.status == StatusFinished {
		return transition{}, domain.ErrSessionFinished
	}
	if e.arbiter.status != StatusConfirmingPartial {
		return transition{}, domain.ErrNoPendingConfirmation
	}
	switch resolution {
	case ZeroFillAll:
		return e.finishLocked(domain.CompletedZeroFill, 0), nil
	case TruncateToCurrent:
		return e.finishLocked(domain.CompletedTruncated, e.nav.index+1), nil
	case CancelSubmission:
		e.arbiter.status = StatusInProgress
		return transition{changed: true}, nil
	}
	return transition{}, domain.ErrUnknownResolution
}

func (e *Engine) pauseLocked() (transition, error) {
	switch {
	case e.arbiter.status == StatusFinished:
		return transition{}, domain.ErrSessionFinished
	case e.intro:
		return transition{}, domain.ErrIntroActive
	case e.timer.Paused():
		return transition{}, nil
	}
	e.timer.Pause()
	return transition{changed: true}, nil
}

func (e *Engine) resumeLocked() (transition, error) {
	if e.arbiter.status == StatusFinished {
		return transition{}, domain.ErrSessionFinished
	}
	if !e.timer.Paused() {
		return transition{}, nil
	}
	e.timer.Resume()
	e.signalResume()
	return transition{changed: true}, nil
}

func (e *Engine) toggleLocked(original bool) (transition, error) {
	if err := e.guardInteractiveLocked(); err != nil {
		return transition{}, err
	}
	if original {
		if !e.currentLocked().HasOriginal() {
			return transition{}, nil
		}
		e.nav.display.ShowOriginal = !e.nav.display.ShowOriginal
	} else {
		e.nav.display.ShowExplanation = !e.nav.display.ShowExplanation
	}
	return transition{changed: true}, nil
}

func (e *Engine) tickLocked() transition {
	if e.arbiter.status == StatusFinished || e.intro {
		return transition{}
	}
	if !e.timer.Tick() {
		return transition{}
	}
	if e.timer.Expired() {
		return e.finishLocked(domain.CompletedTimeout, 0)
	}
	return transition{changed: true}
}

func (e *Engine) finishLocked(reason domain.CompletionReason, limit int) transition {
	remaining := e.timer.Remaining()
	if reason == domain.CompletedTimeout {
		remaining = 0
	}
	outcome := domain.Outcome{
		Answers:             e.answers.Snapshot(),
		SecondsRemaining:    remaining,
		TimeLimitSeconds:    e.timer.Limit(),
		GradedQuestionLimit: limit,
		Reason:              reason,
	}
	if !e.arbiter.finish(outcome) {
		return transition{}
	}
	return transition{changed: true, outcome: &outcome}
}

// answeredCountLocked counts non-empty entries; auto-resolved questions count
// as answered even when their stored answer is blank.
func (e *Engine) answeredCountLocked() int {
	n := 0
	for _, q := range e.questions {
		if q.IsDefective() || e.answers.Get(q.ID) != "" {
			n++
		}
	}
	return n
}

func (e *Engine) currentLocked() domain.Question {
	return e.questions[e.nav.index]
}

func (e *Engine) signalResume() {
	select {
	case e.resumed <- struct{}{}:
	default:
	}
}

// Start dismisses the intro overlay and starts the clock.
func (e *Engine) Start() error { return e.Dispatch(Command{Kind: CmdStart}) }

// SelectOption selects or toggles an option of the current question.
func (e *Engine) SelectOption(label string) error {
	return e.Dispatch(Command{Kind: CmdSelect, Label: label})
}

// GoNext advances, or requests completion on the last question.
func (e *Engine) GoNext() error { return e.Dispatch(Command{Kind: CmdNext}) }

// GoPrev moves back one question.
func (e *Engine) GoPrev() error { return e.Dispatch(Command{Kind: CmdPrev}) }

// RequestFinish is the explicit submit action.
func (e *Engine) RequestFinish() error { return e.Dispatch(Command{Kind: CmdFinish}) }

func (e *Engine) Pause() error  { return e.Dispatch(Command{Kind: CmdPause}) }
func (e *Engine) Resume() error { return e.Dispatch(Command{Kind: CmdResume}) }

// ResolvePartialSubmission answers a pending partial-submission prompt.
func (e *Engine) ResolvePartialSubmission(r Resolution) error {
	return e.Dispatch(Command{Kind: CmdResolve, Resolution: r})
}

// Tick advances the clock by one second.
func (e *Engine) Tick() { _ = e.Dispatch(Command{Kind: CmdTick}) }

// Questions returns the session's question pool.
func (e *Engine) Questions() []domain.Question {
	out := make([]domain.Question, len(e.questions))
	copy(out, e.questions)
	return out
}

// Outcome returns the completion snapshot once the session has finished.
func (e *Engine) Outcome() (domain.Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.arbiter.outcome == nil {
		return domain.Outcome{}, false
	}
	return *e.arbiter.outcome, true
}

// InProgress is the guard condition for leaving the page mid-session.
func (e *Engine) InProgress() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.arbiter.status != StatusFinished
}

// Done is closed when the session finishes.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}
