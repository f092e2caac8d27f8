package domain

import "time"

// Option is one labeled choice of a question. Label is the single uppercase
// letter the user selects; Text is the display text without the label prefix.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question models one exam item.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Source        string   `json:"source,omitempty"`

	OriginalPrompt      string   `json:"originalPrompt,omitempty"`
	OriginalOptions     []string `json:"originalOptions,omitempty"`
	OriginalExplanation string   `json:"originalExplanation,omitempty"`
}

// IsMultiSelect reports whether the question requires more than one letter.
func (q Question) IsMultiSelect() bool {
	return len(q.CorrectAnswer) > 1
}

// RequiredSelections is the number of distinct letters a complete answer has.
func (q Question) RequiredSelections() int {
	return len(q.CorrectAnswer)
}

// IsDefective reports whether the question cannot be answered interactively
// and is resolved to its own correct answer instead.
func (q Question) IsDefective() bool {
	return len(q.Options) == 0 || q.CorrectAnswer == ""
}

// HasOriginal reports whether an original-language variant is attached.
func (q Question) HasOriginal() bool {
	return q.OriginalPrompt != ""
}

// HasOption reports whether label names one of the question's options.
func (q Question) HasOption(label string) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// RawQuestion is a question bank item as it is stored in dataset JSON.
// Answer is either a string ("AC", "A, C") or an array of letters.
type RawQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      any      `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Dataset is one question bank.
type Dataset struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	ExamCode  string        `json:"examCode,omitempty"`
	Revision  string        `json:"revision,omitempty"`
	Questions []RawQuestion `json:"questions"`
}

// DatasetSummary lists a dataset without its questions.
type DatasetSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ExamCode      string `json:"examCode,omitempty"`
	QuestionCount int    `json:"questionCount"`
}

// Summary returns the dataset's listing entry.
func (d Dataset) Summary() DatasetSummary {
	return DatasetSummary{ID: d.ID, Name: d.Name, ExamCode: d.ExamCode, QuestionCount: len(d.Questions)}
}

// ExamInfo describes an exam in the catalog.
type ExamInfo struct {
	Code             string `json:"code" yaml:"code"`
	Name             string `json:"name" yaml:"name"`
	Description      string `json:"description" yaml:"description"`
	Category         string `json:"category" yaml:"category"`
	TimeLimitMinutes int    `json:"timeLimitMinutes,omitempty" yaml:"time_limit_minutes"`
	QuestionCount    int    `json:"questionCount,omitempty" yaml:"question_count"`
}

// CompletionReason records which trigger finished a session.
type CompletionReason string

const (
	CompletedAllAnswered CompletionReason = "all_answered"
	CompletedZeroFill    CompletionReason = "zero_fill"
	CompletedTruncated   CompletionReason = "truncated"
	CompletedTimeout     CompletionReason = "timeout"
)

// Outcome is the immutable snapshot handed to the result side when a session finishes.
type Outcome struct {
	Answers          map[string]string `json:"answers"`
	SecondsRemaining int               `json:"secondsRemaining"`
	TimeLimitSeconds int               `json:"timeLimitSeconds"`
	// GradedQuestionLimit restricts grading to the first N questions; zero grades the full pool.
	GradedQuestionLimit int              `json:"gradedQuestionLimit,omitempty"`
	Reason              CompletionReason `json:"reason"`
}

// GradeResult summarizes a graded session.
type GradeResult struct {
	TotalQuestions   int      `json:"totalQuestions"`
	GradedQuestions  int      `json:"gradedQuestions"`
	CorrectCount     int      `json:"correctCount"`
	Unanswered       int      `json:"unanswered"`
	Score            int      `json:"score"`
	IsPass           bool     `json:"isPass"`
	PassMark         int      `json:"passMark"`
	TimeTakenSeconds int      `json:"timeTakenSeconds"`
	WrongIDs         []string `json:"wrongIds"`
	CorrectIDs       []string `json:"correctIds"`
}

// HistoryRecord is one finished attempt in a user's history.
type HistoryRecord struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Timestamp        time.Time `json:"timestamp"`
	TotalQuestions   int       `json:"totalQuestions"`
	CorrectCount     int       `json:"correctCount"`
	Score            int       `json:"score"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	IsPass           bool      `json:"isPass"`
	ExamNames        []string  `json:"examNames"`
}
