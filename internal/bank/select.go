package bank

import (
	"math"
	"math/rand"
	"time"

	"exam-drill-service/internal/domain"
)

// Criteria narrows and orders a pool for one session.
type Criteria struct {
	// Count caps the pool size; zero keeps every question.
	Count int
	// WrongOnly keeps only questions with a recorded wrong answer.
	WrongOnly bool
	Wrong     map[string]int
	// Rand drives the shuffle; a time-seeded source is used when nil.
	Rand *rand.Rand
}

// Select filters, shuffles and truncates pool. The input slice is not modified.
func Select(pool []domain.Question, c Criteria) ([]domain.Question, error) {
	picked := make([]domain.Question, 0, len(pool))
	for _, q := range pool {
		if c.WrongOnly && c.Wrong[q.ID] <= 0 {
			continue
		}
		picked = append(picked, q)
	}
	if len(picked) == 0 {
		return nil, domain.ErrEmptyPool
	}

	rng := c.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for i := len(picked) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		picked[i], picked[j] = picked[j], picked[i]
	}

	if c.Count > 0 && c.Count < len(picked) {
		picked = picked[:c.Count]
	}
	return picked, nil
}

// TimeLimitFor scales the exam's official time per question to count
// questions, rounding up to whole minutes. Exams without official figures use
// fallbackMinutes.
func TimeLimitFor(exam domain.ExamInfo, count, fallbackMinutes int) int {
	if exam.TimeLimitMinutes <= 0 || exam.QuestionCount <= 0 || count <= 0 {
		return fallbackMinutes
	}
	minutes := int(math.Ceil(float64(count) * float64(exam.TimeLimitMinutes) / float64(exam.QuestionCount)))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
