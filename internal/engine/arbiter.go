package engine

import "exam-drill-service/internal/domain"

// Status is the submission state of a session.
type Status string

const (
	StatusInProgress        Status = "in_progress"
	StatusConfirmingPartial Status = "confirming_partial"
	StatusFinished          Status = "finished"
)

// Resolution is the user's answer to a partial-submission prompt.
type Resolution string

const (
	// ZeroFillAll grades every question; unanswered ones count as wrong.
	ZeroFillAll Resolution = "zeroFillAll"
	// TruncateToCurrent grades only the questions up to and including the current one.
	TruncateToCurrent Resolution = "truncateToCurrent"
	// CancelSubmission returns to answering.
	CancelSubmission Resolution = "cancel"
)

type arbiter struct {
	status  Status
	outcome *domain.Outcome
}

// requestFinish moves to FINISHED when every question is answered, otherwise
// to CONFIRMING_PARTIAL. It reports whether the session finished.
func (a *arbiter) requestFinish(answered, total int) bool {
	if answered == total {
		return true
	}
	a.status = StatusConfirmingPartial
	return false
}

// finish enters the terminal state once; later calls return false.
func (a *arbiter) finish(outcome domain.Outcome) bool {
	if a.status == StatusFinished {
		return false
	}
	a.status = StatusFinished
	a.outcome = &outcome
	return true
}
