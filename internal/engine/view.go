package engine

import (
	"fmt"
	"strings"

	"exam-drill-service/internal/domain"
)

// View is the read model the UI renders from.
type View struct {
	Status             Status          `json:"status"`
	Index              int             `json:"index"`
	Total              int             `json:"total"`
	IsLast             bool            `json:"isLast"`
	Question           domain.Question `json:"question"`
	Prompt             string          `json:"prompt"`
	Options            []domain.Option `json:"options"`
	Answer             string          `json:"answer"`
	MultiSelect        bool            `json:"multiSelect"`
	RequiredSelections int             `json:"requiredSelections"`
	SelectedCount      int             `json:"selectedCount"`
	Defective          bool            `json:"defective"`
	SecondsRemaining   int             `json:"secondsRemaining"`
	TimeLimitSeconds   int             `json:"timeLimitSeconds"`
	Paused             bool            `json:"paused"`
	Intro              bool            `json:"intro"`
	Display            DisplayState    `json:"display"`
	AnsweredCount      int             `json:"answeredCount"`
	// ConfirmationPending is set while a partial submission awaits a resolution;
	// Unanswered is then the number of questions left blank.
	ConfirmationPending bool `json:"confirmationPending"`
	Unanswered          int  `json:"unanswered"`
	InProgress          bool `json:"inProgress"`
}

// View returns the current read model.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Engine) viewLocked() View {
	q := e.currentLocked()
	answer := e.answers.Get(q.ID)
	answered := e.answeredCountLocked()
	v := View{
		Status:             e.arbiter.status,
		Index:              e.nav.index,
		Total:              len(e.questions),
		IsLast:             e.nav.isLast(),
		Question:           q,
		Prompt:             q.Prompt,
		Options:            q.Options,
		Answer:             answer,
		MultiSelect:        q.IsMultiSelect(),
		RequiredSelections: q.RequiredSelections(),
		SelectedCount:      len(answer),
		Defective:          q.IsDefective(),
		SecondsRemaining:   e.timer.Remaining(),
		TimeLimitSeconds:   e.timer.Limit(),
		Paused:             e.timer.Paused(),
		Intro:              e.intro,
		Display:            e.nav.display,
		AnsweredCount:      answered,
		InProgress:         e.arbiter.status != StatusFinished,
	}
	if e.arbiter.status == StatusConfirmingPartial {
		v.ConfirmationPending = true
		v.Unanswered = len(e.questions) - answered
	}
	if e.nav.display.ShowOriginal && q.HasOriginal() {
		v.Prompt = q.OriginalPrompt
		v.Options = originalOptions(q)
	}
	return v
}

// originalOptions keeps the canonical labels and swaps in original-language text
// where one is available.
func originalOptions(q domain.Question) []domain.Option {
	out := make([]domain.Option, len(q.Options))
	for i, opt := range q.Options {
		out[i] = opt
		if i < len(q.OriginalOptions) && q.OriginalOptions[i] != "" {
			out[i].Text = q.OriginalOptions[i]
		}
	}
	return out
}

// CopyText renders the current question for pasting into an assistant chat.
func (e *Engine) CopyText() string {
	e.mu.Lock()
	q := e.currentLocked()
	e.mu.Unlock()
	return FormatCopyText(q)
}

// FormatCopyText renders the prompt, the correct options and all options.
func FormatCopyText(q domain.Question) string {
	answerText := q.CorrectAnswer
	var correct, all []string
	for _, opt := range q.Options {
		all = append(all, opt.Text)
		if opt.Label != "" && strings.Contains(q.CorrectAnswer, opt.Label) {
			correct = append(correct, opt.Text)
		}
	}
	if len(correct) > 0 {
		answerText = strings.Join(correct, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nThe answer is %s.\n", q.Prompt, answerText)
	if len(all) > 0 {
		fmt.Fprintf(&b, "Options:\n%s\n", strings.Join(all, "\n"))
	}
	b.WriteString("Please explain this question and share tips for the exam.")
	return b.String()
}
