package app

import (
	"context"
	"sync"
	"time"

	"exam-drill-service/internal/domain"
	"exam-drill-service/internal/engine"
)

// SessionView is the engine read model enriched with per-user data.
type SessionView struct {
	engine.View
	SessionID  string `json:"sessionId"`
	WrongCount int    `json:"wrongCount"`
	// Result is set once the session has finished and been graded.
	Result *domain.GradeResult `json:"result,omitempty"`
}

// Session is an in-memory quiz attempt: the engine plus its subscribers.
type Session struct {
	id        string
	userID    string
	examNames []string
	engine    *engine.Engine
	wrong     map[string]int

	mu          sync.RWMutex
	result      *domain.GradeResult
	finishedAt  time.Time
	cancel      context.CancelFunc
	subscribers map[chan SessionView]struct{}
}

func newSession(id, userID string, examNames []string, wrong map[string]int) *Session {
	if wrong == nil {
		wrong = map[string]int{}
	}
	return &Session{
		id:          id,
		userID:      userID,
		examNames:   examNames,
		wrong:       wrong,
		cancel:      func() {},
		subscribers: make(map[chan SessionView]struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// UserID returns the owner of the session.
func (s *Session) UserID() string { return s.userID }

// View returns the engine read model.
func (s *Session) View() engine.View { return s.engine.View() }

// Dispatch applies one command to the engine.
func (s *Session) Dispatch(cmd engine.Command) error { return s.engine.Dispatch(cmd) }

// CopyText returns clipboard text for the current question.
func (s *Session) CopyText() string { return s.engine.CopyText() }

// Snapshot returns the enriched read model.
func (s *Session) Snapshot() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Result returns the grade once the session has finished.
func (s *Session) Result() (domain.GradeResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return domain.GradeResult{}, false
	}
	return *s.result, true
}

func (s *Session) start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	go s.engine.Run(ctx)
}

func (s *Session) stop() {
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()
	cancel()
}

func (s *Session) setResult(result domain.GradeResult, at time.Time) {
	s.mu.Lock()
	s.result = &result
	s.finishedAt = at
	s.mu.Unlock()
}

func (s *Session) subscribe() (<-chan SessionView, func()) {
	ch := make(chan SessionView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// The buffer is empty, so this send cannot block; holding the lock keeps a
	// concurrent publish from overtaking the initial snapshot.
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// publish ignores the hook's view and reads the engine again under the
// session lock, so concurrent hooks never deliver an older state last.
func (s *Session) publish(engine.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked()
}

func (s *Session) broadcastLocked() SessionView {
	v := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- v:
		default:
			// slow client: drop its oldest update
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
	return v
}

func (s *Session) snapshotLocked() SessionView {
	v := s.engine.View()
	return SessionView{
		View:       v,
		SessionID:  s.id,
		WrongCount: s.wrong[v.Question.ID],
		Result:     s.result,
	}
}
