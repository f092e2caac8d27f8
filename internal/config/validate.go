package config

import (
	"fmt"
	"strings"
	"time"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate reports every invalid field of a normalized config.
func Validate(cfg Config) error {
	var issues []Issue
	add := func(field, msg string) { issues = append(issues, Issue{Field: field, Message: msg}) }

	if cfg.Quiz.PassMark < 0 || cfg.Quiz.PassMark > 100 {
		add("quiz.pass_mark", "must be between 0 and 100")
	}
	if cfg.Quiz.HistoryLimit < 0 {
		add("quiz.history_limit", "must not be negative")
	}
	if cfg.Quiz.DefaultTimeLimitMinutes < 0 {
		add("quiz.default_time_limit_minutes", "must be positive")
	}
	if cfg.Quiz.DefaultQuestionCount < 0 {
		add("quiz.default_question_count", "must be positive")
	}
	for _, field := range []struct {
		name, raw string
	}{
		{"redis.ttl", cfg.Redis.TTL},
		{"datasets.ttl", cfg.Datasets.TTL},
		{"gestures.wheel_cooldown", cfg.Gestures.WheelCooldown},
	} {
		if d, err := time.ParseDuration(field.raw); err != nil || d < 0 {
			add(field.name, fmt.Sprintf("invalid duration %q", field.raw))
		}
	}
	if cfg.Gestures.WheelThreshold < 0 || cfg.Gestures.SwipeThreshold < 0 {
		add("gestures", "thresholds must not be negative")
	}
	seen := map[string]bool{}
	for i, exam := range cfg.Exams {
		field := fmt.Sprintf("exams[%d]", i)
		if exam.Code == "" {
			add(field+".code", "is required")
			continue
		}
		if seen[exam.Code] {
			add(field+".code", fmt.Sprintf("duplicate exam %q", exam.Code))
		}
		seen[exam.Code] = true
		if exam.TimeLimitMinutes < 0 || exam.QuestionCount < 0 {
			add(field, "time limit and question count must not be negative")
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
