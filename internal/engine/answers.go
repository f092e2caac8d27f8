package engine

import (
	"sort"
	"strings"

	"exam-drill-service/internal/domain"
)

// AnswerState maps question IDs to the sorted uppercase letters currently
// selected. A missing or empty entry means unanswered.
type AnswerState struct {
	entries map[string]string
}

func newAnswerState() *AnswerState {
	return &AnswerState{entries: make(map[string]string)}
}

// Get returns the stored selection for a question.
func (s *AnswerState) Get(questionID string) string {
	return s.entries[questionID]
}

// Set overwrites the stored selection.
func (s *AnswerState) Set(questionID, value string) {
	s.entries[questionID] = value
}

// Select applies one option click: radio replacement for single-answer
// questions, toggle for multi-answer ones. It returns the new entry.
func (s *AnswerState) Select(q domain.Question, label string) string {
	if !q.IsMultiSelect() {
		s.entries[q.ID] = label
		return label
	}
	next := toggleLetter(s.entries[q.ID], label)
	s.entries[q.ID] = next
	return next
}

// Snapshot copies the state for hand-off.
func (s *AnswerState) Snapshot() map[string]string {
	out := make(map[string]string, len(s.entries))
	for id, v := range s.entries {
		out[id] = v
	}
	return out
}

func toggleLetter(current, label string) string {
	letters := make([]string, 0, len(current)+1)
	found := false
	for _, r := range current {
		l := string(r)
		if l == label {
			found = true
			continue
		}
		letters = append(letters, l)
	}
	if !found {
		letters = append(letters, label)
	}
	sort.Strings(letters)
	return strings.Join(letters, "")
}
