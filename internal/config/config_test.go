package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
redis:
  addr: localhost:6379
quiz:
  pass_mark: 80
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Quiz.PassMark != 80 {
		t.Fatalf("expected pass mark 80, got %d", cfg.Quiz.PassMark)
	}
	if cfg.Quiz.HistoryLimit != 50 || cfg.Quiz.DefaultQuestionCount != 65 || cfg.Quiz.DefaultTimeLimitMinutes != 120 {
		t.Fatalf("expected quiz defaults, got %+v", cfg.Quiz)
	}
	if got := TTLDuration(cfg.Gestures.WheelCooldown, 0); got != 600*time.Millisecond {
		t.Fatalf("expected 600ms wheel cooldown, got %v", got)
	}
	if len(cfg.Exams) == 0 {
		t.Fatalf("expected built-in exam catalog")
	}
}

func TestLoadCustomCatalog(t *testing.T) {
	path := writeConfig(t, `
exams:
  - code: ANS-C01
    name: Advanced Networking
    time_limit_minutes: 170
    question_count: 65
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Exams) != 1 || cfg.Exams[0].TimeLimitMinutes != 170 {
		t.Fatalf("unexpected catalog %+v", cfg.Exams)
	}
}

func TestValidateCollectsIssues(t *testing.T) {
	cfg := Default()
	cfg.Quiz.PassMark = 120
	cfg.Gestures.WheelCooldown = "soon"
	cfg.Exams = append(cfg.Exams, cfg.Exams[0])

	err := Validate(cfg)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Issues) != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", len(verr.Issues), verr)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
	if got := TTLDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
}
