package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"

	"exam-drill-service/internal/domain"
)

func TestSessionFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "quiz-session",
		ScenarioInitializer: InitializeSessionScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("features")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeSessionScenario wires steps for session scenarios.
func InitializeSessionScenario(ctx *godog.ScenarioContext) {
	state := &sessionScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^a quiz of (\d+) questions with a (\d+) second time limit$`, state.givenQuiz)
	ctx.Step(`^the quiz has started$`, state.givenStarted)
	ctx.Step(`^I answer every question correctly$`, state.whenAnswerAll)
	ctx.Step(`^I answer the current question correctly$`, state.whenAnswerCurrent)
	ctx.Step(`^(\d+) seconds pass$`, state.whenSecondsPass)
	ctx.Step(`^I move to the next question$`, state.whenNext)
	ctx.Step(`^I move to the previous question$`, state.whenPrev)
	ctx.Step(`^I submit the quiz$`, state.whenSubmit)
	ctx.Step(`^the session completes exactly once$`, state.thenCompletedOnce)
	ctx.Step(`^the session has not completed$`, state.thenNotCompleted)
	ctx.Step(`^the completion reports (\d+) correct answers$`, state.thenCorrectAnswers)
	ctx.Step(`^the completion reports (\d+) seconds remaining$`, state.thenSecondsRemaining)
	ctx.Step(`^the completion reason is "([^"]*)"$`, state.thenReason)
	ctx.Step(`^every answer in the completion is empty$`, state.thenAllEmpty)
	ctx.Step(`^no confirmation prompt was shown$`, state.thenNoPrompt)
	ctx.Step(`^a confirmation prompt reports (\d+) unanswered questions$`, state.thenPrompt)
	ctx.Step(`^the current question is number (\d+)$`, state.thenCurrentNumber)
}

type sessionScenarioState struct {
	engine    *Engine
	questions []domain.Question
	outcomes  []domain.Outcome
	prompted  bool
	lastErr   error
}

func (s *sessionScenarioState) reset() {
	*s = sessionScenarioState{}
}

func (s *sessionScenarioState) givenQuiz(count, seconds int) error {
	s.questions = make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		answer := "B"
		if i%2 == 1 {
			answer = "AC"
		}
		s.questions = append(s.questions, question(fmt.Sprintf("bank-%d", i), answer, "A", "B", "C", "D"))
	}
	e, err := New(s.questions, Options{
		TimeLimitSeconds: seconds,
		OnComplete:       func(o domain.Outcome) { s.outcomes = append(s.outcomes, o) },
		OnChange: func(v View) {
			if v.ConfirmationPending {
				s.prompted = true
			}
		},
	})
	s.engine = e
	return err
}

func (s *sessionScenarioState) givenStarted() error {
	return s.engine.Start()
}

func (s *sessionScenarioState) whenAnswerCurrent() error {
	q := s.questions[s.engine.View().Index]
	for _, r := range q.CorrectAnswer {
		if err := s.engine.SelectOption(string(r)); err != nil {
			return err
		}
	}
	return nil
}

// whenAnswerAll answers each question and stops on the last one.
func (s *sessionScenarioState) whenAnswerAll() error {
	for {
		if err := s.whenAnswerCurrent(); err != nil {
			return err
		}
		if s.engine.View().IsLast {
			return nil
		}
		if err := s.engine.GoNext(); err != nil {
			return err
		}
	}
}

func (s *sessionScenarioState) whenSecondsPass(n int) error {
	for i := 0; i < n; i++ {
		s.engine.Tick()
	}
	return nil
}

func (s *sessionScenarioState) whenNext() error {
	s.lastErr = s.engine.GoNext()
	return s.lastErr
}

func (s *sessionScenarioState) whenPrev() error {
	s.lastErr = s.engine.GoPrev()
	return s.lastErr
}

func (s *sessionScenarioState) whenSubmit() error {
	s.lastErr = s.engine.RequestFinish()
	return s.lastErr
}

func (s *sessionScenarioState) outcome() (domain.Outcome, error) {
	if len(s.outcomes) != 1 {
		return domain.Outcome{}, fmt.Errorf("expected one completion, got %d", len(s.outcomes))
	}
	return s.outcomes[0], nil
}

func (s *sessionScenarioState) thenCompletedOnce() error {
	_, err := s.outcome()
	return err
}

func (s *sessionScenarioState) thenNotCompleted() error {
	if len(s.outcomes) != 0 {
		return fmt.Errorf("expected no completion, got %d", len(s.outcomes))
	}
	return nil
}

func (s *sessionScenarioState) thenCorrectAnswers(want int) error {
	o, err := s.outcome()
	if err != nil {
		return err
	}
	correct := 0
	for _, q := range s.questions {
		if o.Answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	if correct != want {
		return fmt.Errorf("expected %d correct answers, got %d", want, correct)
	}
	return nil
}

func (s *sessionScenarioState) thenSecondsRemaining(want int) error {
	o, err := s.outcome()
	if err != nil {
		return err
	}
	if o.SecondsRemaining != want {
		return fmt.Errorf("expected %d seconds remaining, got %d", want, o.SecondsRemaining)
	}
	return nil
}

func (s *sessionScenarioState) thenReason(want string) error {
	o, err := s.outcome()
	if err != nil {
		return err
	}
	if string(o.Reason) != want {
		return fmt.Errorf("expected reason %q, got %q", want, o.Reason)
	}
	return nil
}

func (s *sessionScenarioState) thenAllEmpty() error {
	o, err := s.outcome()
	if err != nil {
		return err
	}
	for id, answer := range o.Answers {
		if answer != "" {
			return fmt.Errorf("expected empty answer for %s, got %q", id, answer)
		}
	}
	return nil
}

func (s *sessionScenarioState) thenNoPrompt() error {
	if s.prompted {
		return fmt.Errorf("confirmation prompt was shown")
	}
	return nil
}

func (s *sessionScenarioState) thenPrompt(unanswered int) error {
	v := s.engine.View()
	if !v.ConfirmationPending {
		return fmt.Errorf("expected a pending confirmation")
	}
	if v.Unanswered != unanswered {
		return fmt.Errorf("expected %d unanswered, got %d", unanswered, v.Unanswered)
	}
	return nil
}

func (s *sessionScenarioState) thenCurrentNumber(n int) error {
	if got := s.engine.View().Index + 1; got != n {
		return fmt.Errorf("expected question %d, got %d", n, got)
	}
	return nil
}
