// Package grading scores a finished session.
package grading

import (
	"math"

	"exam-drill-service/internal/domain"
)

// DefaultPassMark is the percentage needed to pass.
const DefaultPassMark = 72

// Grade scores outcome against questions. Only the first
// outcome.GradedQuestionLimit questions count when the limit is set.
func Grade(questions []domain.Question, outcome domain.Outcome, passMark int) domain.GradeResult {
	graded := questions
	if limit := outcome.GradedQuestionLimit; limit > 0 && limit < len(questions) {
		graded = questions[:limit]
	}

	res := domain.GradeResult{
		TotalQuestions:   len(questions),
		GradedQuestions:  len(graded),
		PassMark:         passMark,
		TimeTakenSeconds: outcome.TimeLimitSeconds - outcome.SecondsRemaining,
		WrongIDs:         []string{},
		CorrectIDs:       []string{},
	}
	for _, q := range graded {
		answer := outcome.Answers[q.ID]
		switch {
		case answer == q.CorrectAnswer:
			res.CorrectCount++
			res.CorrectIDs = append(res.CorrectIDs, q.ID)
			continue
		case answer == "":
			res.Unanswered++
		}
		res.WrongIDs = append(res.WrongIDs, q.ID)
	}
	if len(graded) > 0 {
		res.Score = int(math.Round(float64(res.CorrectCount) * 100 / float64(len(graded))))
	}
	res.IsPass = res.Score >= passMark
	return res
}
